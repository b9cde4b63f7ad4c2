package samples

import (
	"context"
	"sync"
)

// Task is one background download. The blocking work runs off the caller's
// goroutine; completion is signaled through Done so the cooperative side can
// await it directly instead of polling.
type Task struct {
	done   chan struct{}
	cancel context.CancelFunc

	mu  sync.Mutex
	url string
	err error
}

// newTask starts fn on its own goroutine. fn returns the resolved source URL.
func newTask(parent context.Context, fn func(ctx context.Context) (string, error)) *Task {
	ctx, cancel := context.WithCancel(parent)
	t := &Task{done: make(chan struct{}), cancel: cancel}
	go func() {
		defer close(t.done)
		url, err := fn(ctx)
		t.mu.Lock()
		t.url, t.err = url, err
		t.mu.Unlock()
	}()
	return t
}

// Done is closed when the download finished, failed, or was canceled.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the task completes or ctx is canceled, and returns the
// task's error.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the task's error, nil while it is still running.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// URL returns the resolved source URL, empty until the task completes.
func (t *Task) URL() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.url
}

// Cancel aborts the download. The task still completes (Done closes) with a
// context error.
func (t *Task) Cancel() { t.cancel() }
