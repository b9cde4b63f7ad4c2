package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/irdumbs/jamcord/internal/config"
	"github.com/irdumbs/jamcord/internal/errors"
	"github.com/irdumbs/jamcord/internal/evaluator"
	"github.com/irdumbs/jamcord/internal/event"
	"github.com/irdumbs/jamcord/internal/logging"
	"github.com/irdumbs/jamcord/internal/transport"
	"github.com/irdumbs/jamcord/internal/watch"
)

// fakeTransport is an in-memory Transport that records everything the
// engine does and lets tests feed inbound messages.
type fakeTransport struct {
	mu        sync.Mutex
	nextID    int
	messages  map[string]transport.Message
	sent      []transport.Message
	edits     map[string][]string
	deleted   map[string]bool
	reactions map[string][]string
	failEdit  error // when set, Edit returns it

	inbound chan transport.Message
	members []transport.Member
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		messages:  make(map[string]transport.Message),
		edits:     make(map[string][]string),
		deleted:   make(map[string]bool),
		reactions: make(map[string][]string),
		inbound:   make(chan transport.Message, 16),
	}
}

func (f *fakeTransport) Send(ctx context.Context, roomID, content string) (transport.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	m := transport.Message{
		ID:       fmt.Sprintf("engine-%d", f.nextID),
		RoomID:   roomID,
		Content:  content,
		FromSelf: true,
		Posted:   time.Now(),
	}
	f.messages[m.ID] = m
	f.sent = append(f.sent, m)
	return m, nil
}

func (f *fakeTransport) Edit(ctx context.Context, messageID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failEdit != nil {
		return f.failEdit
	}
	m, ok := f.messages[messageID]
	if !ok {
		return errors.ErrMessageNotFound
	}
	m.Content = content
	f.messages[messageID] = m
	f.edits[messageID] = append(f.edits[messageID], content)
	return nil
}

func (f *fakeTransport) Delete(ctx context.Context, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.messages[messageID]; !ok {
		return errors.ErrMessageNotFound
	}
	delete(f.messages, messageID)
	f.deleted[messageID] = true
	return nil
}

func (f *fakeTransport) Lookup(ctx context.Context, roomID, messageID string) (transport.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[messageID]
	if !ok {
		return transport.Message{}, errors.ErrMessageNotFound
	}
	return m, nil
}

func (f *fakeTransport) React(ctx context.Context, messageID, emblem string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reactions[messageID] = append(f.reactions[messageID], emblem)
	return nil
}

func (f *fakeTransport) WaitForMessage(ctx context.Context, roomID string, timeout time.Duration, filter transport.MessageFilter) (transport.Message, bool, error) {
	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}
	for {
		select {
		case m := <-f.inbound:
			if filter == nil || filter(m) {
				return m, true, nil
			}
		case <-timer:
			return transport.Message{}, false, nil
		case <-ctx.Done():
			return transport.Message{}, false, ctx.Err()
		}
	}
}

func (f *fakeTransport) Members(ctx context.Context, roomID string) ([]transport.Member, error) {
	return f.members, nil
}

// post feeds an inbound participant message to the transport.
func (f *fakeTransport) post(msg transport.Message) {
	f.mu.Lock()
	f.messages[msg.ID] = msg
	f.mu.Unlock()
	f.inbound <- msg
}

// setContent simulates a participant editing their message in place.
func (f *fakeTransport) setContent(messageID, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := f.messages[messageID]
	m.Content = content
	f.messages[messageID] = m
}

func (f *fakeTransport) wasDeleted(messageID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deleted[messageID]
}

func (f *fakeTransport) sentContaining(substr string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.sent {
		if strings.Contains(m.Content, substr) {
			return true
		}
	}
	return false
}

func (f *fakeTransport) editsOf(messageID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.edits[messageID]...)
}

// testEngine bundles a registry wired to a fake transport.
type testEngine struct {
	cfg     *config.Config
	tr      *fakeTransport
	bus     *event.Bus
	watches *watch.Registry
	reg     *Registry
}

// noopEval evaluates everything to an empty result.
var noopEval = evaluator.Func(func(ctx context.Context, code string) (evaluator.Result, error) {
	return evaluator.Result{}, nil
})

func newTestEngine(t *testing.T, eval evaluator.Evaluator, mutate ...func(*config.Config)) *testEngine {
	t.Helper()
	cfg := config.Default()
	cfg.Display.RefreshIntervalMs = 10
	for _, m := range mutate {
		m(cfg)
	}

	tr := newFakeTransport()
	bus := event.NewBus()
	watches := watch.NewRegistry()
	factory := func(kind string) (evaluator.Evaluator, evaluator.Profile, error) {
		return eval, evaluator.Profile{Kind: "foxdot", Hush: "Clock.clear()"}, nil
	}

	reg := NewRegistry(cfg, tr, bus, watches, factory, logging.NopLogger())
	reg.joinTimeout = 200 * time.Millisecond
	reg.Start()
	t.Cleanup(reg.Close)

	return &testEngine{cfg: cfg, tr: tr, bus: bus, watches: watches, reg: reg}
}

// create starts a session, feeding the owner's first submission so the join
// prompt resolves immediately.
func (e *testEngine) create(t *testing.T, roomID string, opts Options, submission transport.Message) *Session {
	t.Helper()
	e.tr.post(submission)
	s, err := e.reg.Create(context.Background(), roomID, opts)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	return s
}

// confirm waits for the turn loop's watch to register, then raises the
// confirm emblem on a message.
func (e *testEngine) confirm(t *testing.T, roomID, messageID, actor string) {
	t.Helper()
	waitFor(t, "confirm watch registered", func() bool { return e.watches.Len() > 0 })
	e.bus.Publish(event.NewSignalAddedEvent(roomID, messageID, actor, e.cfg.Session.ConfirmEmblem))
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func submission(id, roomID, author, name, content string) transport.Message {
	return transport.Message{
		ID:         id,
		RoomID:     roomID,
		Author:     author,
		AuthorName: name,
		Content:    content,
		Posted:     time.Now(),
	}
}
