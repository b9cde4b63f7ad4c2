// Package tui renders a jam room in the terminal. It bundles a local
// in-memory Transport implementation and a bubbletea view over it, so the
// engine can be exercised end to end without any chat platform.
package tui

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/irdumbs/jamcord/internal/errors"
	"github.com/irdumbs/jamcord/internal/event"
	"github.com/irdumbs/jamcord/internal/transport"
)

// Local is an in-memory Transport for a single terminal user. The engine
// talks to it like any platform; the local user's actions (posting, toggling
// the confirm emblem) are turned into the same events a real platform would
// publish.
type Local struct {
	bus  *event.Bus
	user transport.Member

	mu        sync.Mutex
	order     map[string][]string // roomID -> message IDs in arrival order
	messages  map[string]transport.Message
	reactions map[string]map[string]map[string]bool // messageID -> emblem -> actors
	waiters   []*msgWaiter

	// notify is invoked after every room change; the view hooks a
	// Program.Send here to re-render.
	notify func()
}

type msgWaiter struct {
	roomID string
	filter transport.MessageFilter
	ch     chan transport.Message
}

// NewLocal creates a local transport for one terminal user.
func NewLocal(bus *event.Bus, user transport.Member) *Local {
	return &Local{
		bus:       bus,
		user:      user,
		order:     make(map[string][]string),
		messages:  make(map[string]transport.Message),
		reactions: make(map[string]map[string]map[string]bool),
		notify:    func() {},
	}
}

// User returns the local participant.
func (l *Local) User() transport.Member { return l.user }

// SetNotify installs the change callback. Must be set before the engine
// starts using the transport.
func (l *Local) SetNotify(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if fn == nil {
		fn = func() {}
	}
	l.notify = fn
}

func (l *Local) changed() {
	l.mu.Lock()
	fn := l.notify
	l.mu.Unlock()
	fn()
}

// Send posts an engine message into a room.
func (l *Local) Send(ctx context.Context, roomID, content string) (transport.Message, error) {
	msg := transport.Message{
		ID:         uuid.NewString(),
		RoomID:     roomID,
		Author:     "jamcord",
		AuthorName: "jamcord",
		Content:    content,
		FromSelf:   true,
		Posted:     time.Now(),
	}
	l.mu.Lock()
	l.store(msg)
	l.mu.Unlock()
	l.changed()
	return msg, nil
}

// Edit replaces a message's content.
func (l *Local) Edit(ctx context.Context, messageID, content string) error {
	l.mu.Lock()
	msg, ok := l.messages[messageID]
	if !ok {
		l.mu.Unlock()
		return errors.ErrMessageNotFound
	}
	msg.Content = content
	l.messages[messageID] = msg
	l.mu.Unlock()
	l.changed()
	return nil
}

// Delete removes a message.
func (l *Local) Delete(ctx context.Context, messageID string) error {
	l.mu.Lock()
	msg, ok := l.messages[messageID]
	if !ok {
		l.mu.Unlock()
		return errors.ErrMessageNotFound
	}
	delete(l.messages, messageID)
	delete(l.reactions, messageID)
	ids := l.order[msg.RoomID]
	for i, id := range ids {
		if id == messageID {
			l.order[msg.RoomID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	l.mu.Unlock()
	l.changed()
	return nil
}

// Lookup fetches a message by ID.
func (l *Local) Lookup(ctx context.Context, roomID, messageID string) (transport.Message, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	msg, ok := l.messages[messageID]
	if !ok || msg.RoomID != roomID {
		return transport.Message{}, errors.ErrMessageNotFound
	}
	return msg, nil
}

// React raises an emblem on the engine's behalf.
func (l *Local) React(ctx context.Context, messageID, emblem string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.messages[messageID]; !ok {
		return errors.ErrMessageNotFound
	}
	l.addReaction(messageID, emblem, "jamcord")
	return nil
}

// WaitForMessage blocks until a matching message is posted in the room.
func (l *Local) WaitForMessage(ctx context.Context, roomID string, timeout time.Duration, filter transport.MessageFilter) (transport.Message, bool, error) {
	w := &msgWaiter{roomID: roomID, filter: filter, ch: make(chan transport.Message, 1)}
	l.mu.Lock()
	l.waiters = append(l.waiters, w)
	l.mu.Unlock()
	defer l.removeWaiter(w)

	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}

	select {
	case msg := <-w.ch:
		return msg, true, nil
	case <-timer:
		return transport.Message{}, false, nil
	case <-ctx.Done():
		return transport.Message{}, false, ctx.Err()
	}
}

// Members lists the room's participants: the local user.
func (l *Local) Members(ctx context.Context, roomID string) ([]transport.Member, error) {
	return []transport.Member{l.user}, nil
}

// Post records a message typed by the local user, feeds any waiting prompt,
// and publishes it on the bus.
func (l *Local) Post(roomID, content string) transport.Message {
	msg := transport.Message{
		ID:         uuid.NewString(),
		RoomID:     roomID,
		Author:     l.user.ID,
		AuthorName: l.user.Name,
		Content:    content,
		Posted:     time.Now(),
	}

	l.mu.Lock()
	l.store(msg)
	var delivered []*msgWaiter
	for _, w := range l.waiters {
		if w.roomID != roomID {
			continue
		}
		if w.filter != nil && !w.filter(msg) {
			continue
		}
		select {
		case w.ch <- msg:
			delivered = append(delivered, w)
		default:
		}
	}
	for _, w := range delivered {
		l.dropWaiter(w)
	}
	l.mu.Unlock()

	l.bus.Publish(event.NewMessagePostedEvent(msg))
	l.changed()
	return msg
}

// ToggleEmblem raises or withdraws the local user's emblem on a message and
// publishes the corresponding signal event. Returns whether the emblem is
// now present.
func (l *Local) ToggleEmblem(messageID, emblem string) (bool, error) {
	l.mu.Lock()
	msg, ok := l.messages[messageID]
	if !ok {
		l.mu.Unlock()
		return false, errors.ErrMessageNotFound
	}

	actors := l.reactions[messageID][emblem]
	if actors != nil && actors[l.user.ID] {
		delete(actors, l.user.ID)
		l.mu.Unlock()
		l.bus.Publish(event.NewSignalRemovedEvent(msg.RoomID, messageID, l.user.ID, emblem))
		l.changed()
		return false, nil
	}

	l.addReaction(messageID, emblem, l.user.ID)
	l.mu.Unlock()
	l.bus.Publish(event.NewSignalAddedEvent(msg.RoomID, messageID, l.user.ID, emblem))
	l.changed()
	return true, nil
}

// Messages returns the room's messages in arrival order.
func (l *Local) Messages(roomID string) []transport.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]transport.Message, 0, len(l.order[roomID]))
	for _, id := range l.order[roomID] {
		if msg, ok := l.messages[id]; ok {
			out = append(out, msg)
		}
	}
	return out
}

// Emblems returns the emblems on a message and how many actors raised each.
func (l *Local) Emblems(messageID string) map[string]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]int)
	for emblem, actors := range l.reactions[messageID] {
		if len(actors) > 0 {
			out[emblem] = len(actors)
		}
	}
	return out
}

// store records a message; callers hold the lock.
func (l *Local) store(msg transport.Message) {
	l.messages[msg.ID] = msg
	l.order[msg.RoomID] = append(l.order[msg.RoomID], msg.ID)
}

// addReaction records an emblem; callers hold the lock.
func (l *Local) addReaction(messageID, emblem, actor string) {
	if l.reactions[messageID] == nil {
		l.reactions[messageID] = make(map[string]map[string]bool)
	}
	if l.reactions[messageID][emblem] == nil {
		l.reactions[messageID][emblem] = make(map[string]bool)
	}
	l.reactions[messageID][emblem][actor] = true
}

func (l *Local) removeWaiter(w *msgWaiter) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dropWaiter(w)
}

// dropWaiter unregisters a waiter; callers hold the lock.
func (l *Local) dropWaiter(w *msgWaiter) {
	for i, cur := range l.waiters {
		if cur == w {
			l.waiters = append(l.waiters[:i], l.waiters[i+1:]...)
			return
		}
	}
}
