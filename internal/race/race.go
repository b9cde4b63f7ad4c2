// Package race provides a combinator for waiting on several independently
// completing asynchronous signals and taking the first one to finish.
// It is used by the session turn loop to arbitrate between a participant
// confirming a pending submission, a participant withdrawing one, and the
// session being torn down.
package race

import (
	"context"
	"time"
)

// TimedOut is the Winner value reported when no source completed before the
// deadline (or before the parent context was canceled).
const TimedOut = -1

// Source is a single awaitable signal. It must honor ctx cancellation and
// return promptly once ctx is done; the value it returns after cancellation
// is discarded.
type Source[T any] func(ctx context.Context) (T, error)

// Outcome reports the result of a race.
type Outcome[T any] struct {
	// Winner is the index of the source that completed first, or TimedOut.
	Winner int
	// Value is the winning source's result. Zero value on timeout.
	Value T
	// Err is the winning source's error, or the context error on timeout.
	Err error
}

// TimedOut reports whether the race ended without any source completing.
func (o Outcome[T]) TimedOut() bool { return o.Winner == TimedOut }

type entry[T any] struct {
	index int
	value T
	err   error
}

// First waits until one of the sources completes, the timeout elapses, or ctx
// is canceled. A timeout of zero or less means no deadline.
//
// Every source runs with its own child context. When a winner is chosen (or
// the race times out), all remaining sources are canceled before First
// returns. Result channels are buffered so a slow loser can finish and exit
// on its own once canceled; nothing blocks on it.
//
// Racing zero sources returns a timed-out outcome immediately.
func First[T any](ctx context.Context, timeout time.Duration, sources ...Source[T]) Outcome[T] {
	if len(sources) == 0 {
		return Outcome[T]{Winner: TimedOut}
	}

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan entry[T], len(sources))
	for i, src := range sources {
		go func(i int, src Source[T]) {
			v, err := src(raceCtx)
			results <- entry[T]{index: i, value: v, err: err}
		}(i, src)
	}

	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}

	for remaining := len(sources); remaining > 0; remaining-- {
		select {
		case res := <-results:
			// A source that merely observed our own cancellation did not
			// win anything; keep waiting for the rest.
			if res.err != nil && raceCtx.Err() != nil {
				continue
			}
			cancel()
			return Outcome[T]{Winner: res.index, Value: res.value, Err: res.err}
		case <-timer:
			cancel()
			return Outcome[T]{Winner: TimedOut}
		case <-ctx.Done():
			cancel()
			return Outcome[T]{Winner: TimedOut, Err: ctx.Err()}
		}
	}

	// Every source bailed out in response to a cancellation we caused.
	return Outcome[T]{Winner: TimedOut, Err: raceCtx.Err()}
}
