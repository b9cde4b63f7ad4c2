// Package watch tracks outstanding acknowledgement waits for a process.
//
// A participant confirms or withdraws a pending submission by raising or
// removing an emblem (reaction) on one of the engine's tracked messages. The
// transport reports those as Signals; the turn loop registers waits for them
// via a Registry. Every registered wait is removed from the registry exactly
// once: either consumed by a matching signal or cleaned up on timeout/cancel.
package watch

import (
	"context"
	"sync"
	"time"
)

// Kind distinguishes the two ways a confirm emblem can resolve a wait.
type Kind int

const (
	// SignalAdded means a confirm emblem was raised on a message.
	SignalAdded Kind = iota
	// SignalRemoved means a previously raised emblem was withdrawn.
	// Both kinds resolve the same logical wait so a participant can toggle
	// their readiness without the engine polling reaction state.
	SignalRemoved
)

// String returns a human-readable name for a signal kind.
func (k Kind) String() string {
	switch k {
	case SignalAdded:
		return "added"
	case SignalRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Signal is an acknowledgement event raised by the platform.
type Signal struct {
	Kind      Kind
	Emblem    string
	MessageID string // message the emblem was raised on
	Actor     string // participant who raised or withdrew it
}

// MatchFunc further filters signals beyond the emblem set, typically by
// acting-participant identity and message ownership.
type MatchFunc func(Signal) bool

type waiter struct {
	emblems map[string]bool
	match   MatchFunc
	// resolved carries the consumed signal; buffered so Dispatch never
	// blocks while holding the registry lock.
	resolved chan Signal
}

func (w *waiter) accepts(sig Signal) bool {
	if !w.emblems[sig.Emblem] {
		return false
	}
	if w.match != nil && !w.match(sig) {
		return false
	}
	return true
}

// Registry is the set of outstanding waits. One Registry is shared by all
// sessions of a process; cross-session interference is prevented by the
// per-wait MatchFunc, and a signal is consumed by at most one wait.
type Registry struct {
	mu      sync.Mutex // held across match+remove so consumption is atomic
	waiters map[*waiter]bool
}

// NewRegistry creates an empty watch registry.
func NewRegistry() *Registry {
	return &Registry{
		waiters: make(map[*waiter]bool),
	}
}

// Len returns the number of outstanding waits.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.waiters)
}

// Await registers a wait for any of the given emblems and blocks until a
// matching signal is dispatched, the timeout elapses, or ctx is canceled.
// A timeout of zero or less means no deadline.
//
// The returned bool reports whether a signal was matched. Whatever the
// outcome, the wait is removed from the registry exactly once before Await
// returns.
func (r *Registry) Await(ctx context.Context, timeout time.Duration, emblems []string, match MatchFunc) (Signal, bool) {
	w := &waiter{
		emblems:  make(map[string]bool, len(emblems)),
		match:    match,
		resolved: make(chan Signal, 1),
	}
	for _, e := range emblems {
		w.emblems[e] = true
	}

	r.mu.Lock()
	r.waiters[w] = true
	r.mu.Unlock()

	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}

	select {
	case sig := <-w.resolved:
		// Dispatch removed the wait when it matched.
		return sig, true
	case <-timer:
	case <-ctx.Done():
	}

	return r.abandon(w)
}

// abandon removes a wait that timed out or was canceled. If a dispatch beat
// the removal, the consumed signal is honored instead of being dropped.
func (r *Registry) abandon(w *waiter) (Signal, bool) {
	r.mu.Lock()
	if r.waiters[w] {
		delete(r.waiters, w)
		r.mu.Unlock()
		return Signal{}, false
	}
	r.mu.Unlock()

	// The wait was already removed by Dispatch; the signal is in flight.
	sig := <-w.resolved
	return sig, true
}

// Dispatch offers a signal to the outstanding waits. The first wait that
// accepts it consumes it; matching and removal happen under one lock so a
// signal can never resolve two waits. Returns whether the signal was consumed.
func (r *Registry) Dispatch(sig Signal) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for w := range r.waiters {
		if w.accepts(sig) {
			delete(r.waiters, w)
			w.resolved <- sig
			return true
		}
	}
	return false
}
