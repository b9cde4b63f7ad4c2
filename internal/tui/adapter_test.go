package tui

import (
	"context"
	"testing"
	"time"

	"github.com/irdumbs/jamcord/internal/errors"
	"github.com/irdumbs/jamcord/internal/event"
	"github.com/irdumbs/jamcord/internal/transport"
)

func newTestLocal() (*Local, *event.Bus) {
	bus := event.NewBus()
	return NewLocal(bus, transport.Member{ID: "A", Name: "Ace"}), bus
}

func TestLocal_SendEditDelete(t *testing.T) {
	l, _ := newTestLocal()
	ctx := context.Background()

	msg, err := l.Send(ctx, "room", "hello")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !msg.FromSelf {
		t.Error("engine sends must be marked FromSelf")
	}

	if err := l.Edit(ctx, msg.ID, "edited"); err != nil {
		t.Fatalf("edit: %v", err)
	}
	got, err := l.Lookup(ctx, "room", msg.ID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.Content != "edited" {
		t.Errorf("expected edited content, got %q", got.Content)
	}

	if err := l.Delete(ctx, msg.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := l.Lookup(ctx, "room", msg.ID); !errors.Is(err, errors.ErrMessageNotFound) {
		t.Errorf("expected ErrMessageNotFound after delete, got %v", err)
	}
	if err := l.Delete(ctx, msg.ID); !errors.Is(err, errors.ErrMessageNotFound) {
		t.Errorf("double delete should report ErrMessageNotFound, got %v", err)
	}
}

func TestLocal_PostFeedsWaiter(t *testing.T) {
	l, _ := newTestLocal()

	type result struct {
		msg transport.Message
		ok  bool
	}
	got := make(chan result, 1)
	go func() {
		msg, ok, _ := l.WaitForMessage(context.Background(), "room", time.Second,
			func(m transport.Message) bool { return m.Author == "A" })
		got <- result{msg, ok}
	}()

	// Give the waiter a moment to register, then post.
	time.Sleep(20 * time.Millisecond)
	l.Post("room", "`x=1`")

	select {
	case r := <-got:
		if !r.ok || r.msg.Content != "`x=1`" {
			t.Errorf("unexpected wait result %+v", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("waiter never resolved")
	}
}

func TestLocal_PostPublishesEvent(t *testing.T) {
	l, bus := newTestLocal()

	var posted []transport.Message
	bus.Subscribe("message.posted", func(e event.Event) {
		if ev, ok := e.(event.MessagePostedEvent); ok {
			posted = append(posted, ev.Message)
		}
	})

	l.Post("room", "hi there")
	if len(posted) != 1 || posted[0].AuthorName != "Ace" {
		t.Errorf("expected one posted event from Ace, got %+v", posted)
	}
}

func TestLocal_ToggleEmblemPublishesSignals(t *testing.T) {
	l, bus := newTestLocal()

	var kinds []string
	bus.SubscribeAll(func(e event.Event) {
		switch e.EventType() {
		case "signal.added", "signal.removed":
			kinds = append(kinds, e.EventType())
		}
	})

	msg := l.Post("room", "`x=1`")

	raised, err := l.ToggleEmblem(msg.ID, "☑")
	if err != nil || !raised {
		t.Fatalf("first toggle should raise, got raised=%v err=%v", raised, err)
	}
	raised, err = l.ToggleEmblem(msg.ID, "☑")
	if err != nil || raised {
		t.Fatalf("second toggle should withdraw, got raised=%v err=%v", raised, err)
	}

	if len(kinds) != 2 || kinds[0] != "signal.added" || kinds[1] != "signal.removed" {
		t.Errorf("expected added then removed, got %v", kinds)
	}
	if n := l.Emblems(msg.ID)["☑"]; n != 0 {
		t.Errorf("emblem should be withdrawn, count %d", n)
	}
}

func TestLocal_MessagesOrdered(t *testing.T) {
	l, _ := newTestLocal()
	ctx := context.Background()

	_, _ = l.Send(ctx, "room", "first")
	l.Post("room", "second")
	_, _ = l.Send(ctx, "other", "elsewhere")

	msgs := l.Messages("room")
	if len(msgs) != 2 || msgs[0].Content != "first" || msgs[1].Content != "second" {
		t.Errorf("unexpected room history %+v", msgs)
	}
}
