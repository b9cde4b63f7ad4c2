package watch

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestAwait_MatchRemovesExactlyOnce(t *testing.T) {
	r := NewRegistry()

	done := make(chan Signal, 1)
	go func() {
		sig, ok := r.Await(context.Background(), time.Second, []string{"☑"}, nil)
		if !ok {
			t.Error("expected a matched signal")
		}
		done <- sig
	}()

	// Wait for the waiter to register before dispatching.
	waitForLen(t, r, 1)

	if !r.Dispatch(Signal{Kind: SignalAdded, Emblem: "☑", MessageID: "m1", Actor: "alice"}) {
		t.Fatal("expected dispatch to be consumed")
	}

	sig := <-done
	if sig.MessageID != "m1" || sig.Actor != "alice" {
		t.Errorf("unexpected signal: %+v", sig)
	}
	if n := r.Len(); n != 0 {
		t.Errorf("expected empty registry after match, got %d waits", n)
	}
}

func TestAwait_TimeoutRemovesWait(t *testing.T) {
	r := NewRegistry()

	_, ok := r.Await(context.Background(), 10*time.Millisecond, []string{"☑"}, nil)
	if ok {
		t.Error("expected timeout, got a signal")
	}
	if n := r.Len(); n != 0 {
		t.Errorf("expected empty registry after timeout, got %d waits", n)
	}
}

func TestAwait_CancelRemovesWait(t *testing.T) {
	r := NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan bool, 1)
	go func() {
		_, ok := r.Await(ctx, 0, []string{"☑"}, nil)
		done <- ok
	}()

	waitForLen(t, r, 1)
	cancel()

	select {
	case ok := <-done:
		if ok {
			t.Error("expected canceled wait to report no match")
		}
	case <-time.After(time.Second):
		t.Fatal("Await did not return after cancel")
	}
	if n := r.Len(); n != 0 {
		t.Errorf("expected empty registry after cancel, got %d waits", n)
	}
}

func TestDispatch_SignalConsumedByOneWaitOnly(t *testing.T) {
	r := NewRegistry()

	const waiters = 4
	var matched sync.WaitGroup
	results := make(chan bool, waiters)
	for i := 0; i < waiters; i++ {
		matched.Add(1)
		go func() {
			defer matched.Done()
			_, ok := r.Await(context.Background(), 100*time.Millisecond, []string{"☑"}, nil)
			results <- ok
		}()
	}

	waitForLen(t, r, waiters)
	r.Dispatch(Signal{Kind: SignalRemoved, Emblem: "☑", MessageID: "m1", Actor: "bob"})
	matched.Wait()
	close(results)

	got := 0
	for ok := range results {
		if ok {
			got++
		}
	}
	if got != 1 {
		t.Errorf("expected exactly one wait to consume the signal, got %d", got)
	}
	if n := r.Len(); n != 0 {
		t.Errorf("expected empty registry, got %d waits", n)
	}
}

func TestDispatch_FilteredByMatchFunc(t *testing.T) {
	r := NewRegistry()

	ownMessage := func(sig Signal) bool {
		return sig.Actor == "alice" && sig.MessageID == "m-alice"
	}

	done := make(chan Signal, 1)
	go func() {
		sig, ok := r.Await(context.Background(), time.Second, []string{"☑"}, ownMessage)
		if !ok {
			t.Error("expected a matched signal")
		}
		done <- sig
	}()

	waitForLen(t, r, 1)

	// A signal from the wrong actor or on the wrong message is not consumed.
	if r.Dispatch(Signal{Kind: SignalAdded, Emblem: "☑", MessageID: "m-alice", Actor: "mallory"}) {
		t.Error("signal from non-owner should not be consumed")
	}
	if r.Dispatch(Signal{Kind: SignalAdded, Emblem: "☑", MessageID: "m-bob", Actor: "alice"}) {
		t.Error("signal on another message should not be consumed")
	}
	if r.Dispatch(Signal{Kind: SignalAdded, Emblem: "👀", MessageID: "m-alice", Actor: "alice"}) {
		t.Error("signal with wrong emblem should not be consumed")
	}

	if !r.Dispatch(Signal{Kind: SignalAdded, Emblem: "☑", MessageID: "m-alice", Actor: "alice"}) {
		t.Fatal("expected matching signal to be consumed")
	}
	sig := <-done
	if sig.Actor != "alice" {
		t.Errorf("unexpected actor %q", sig.Actor)
	}
}

func TestDispatch_NoWaiters(t *testing.T) {
	r := NewRegistry()
	if r.Dispatch(Signal{Emblem: "☑"}) {
		t.Error("dispatch into an empty registry should not be consumed")
	}
}

func waitForLen(t *testing.T, r *Registry, n int) {
	t.Helper()
	deadline := time.After(time.Second)
	for r.Len() != n {
		select {
		case <-deadline:
			t.Fatalf("registry never reached %d waits (have %d)", n, r.Len())
		case <-time.After(time.Millisecond):
		}
	}
}
