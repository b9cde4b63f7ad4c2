package session

import (
	"context"
	"testing"

	"github.com/irdumbs/jamcord/internal/errors"
	"github.com/irdumbs/jamcord/internal/transport"
)

func TestRegistry_OneSessionPerRoom(t *testing.T) {
	e := newTestEngine(t, noopEval)
	owner := transport.Member{ID: "A", Name: "A"}
	e.create(t, "room", Options{Owner: owner},
		submission("sub-1", "room", "A", "A", "`x=1`"))

	if _, err := e.reg.Create(context.Background(), "room", Options{Owner: owner}); !errors.Is(err, errors.ErrSessionExists) {
		t.Errorf("expected ErrSessionExists, got %v", err)
	}
	if e.reg.Len() != 1 {
		t.Errorf("expected 1 session, have %d", e.reg.Len())
	}
}

func TestRegistry_CreateAfterDestroy(t *testing.T) {
	e := newTestEngine(t, noopEval)
	owner := transport.Member{ID: "A", Name: "A"}
	e.create(t, "room", Options{Owner: owner},
		submission("sub-1", "room", "A", "A", "`x=1`"))

	if !e.reg.Destroy("room", "killed") {
		t.Fatal("expected destroy to find the session")
	}
	if _, ok := e.reg.Get("room"); ok {
		t.Fatal("session should be gone after destroy")
	}

	s := e.create(t, "room", Options{Owner: owner},
		submission("sub-2", "room", "A", "A", "`y=2`"))
	if !s.Active() {
		t.Error("recreated session should be active")
	}
}

func TestRegistry_DestroyIdempotent(t *testing.T) {
	e := newTestEngine(t, noopEval)
	if e.reg.Destroy("room", "killed") {
		t.Error("destroying a room with no session should report nothing to kill")
	}
}

func TestRegistry_CreatePromptExpiryTearsDown(t *testing.T) {
	e := newTestEngine(t, noopEval)

	// No submission is ever posted; the creating prompt expires.
	_, err := e.reg.Create(context.Background(), "room",
		Options{Owner: transport.Member{ID: "A", Name: "A"}})
	if !errors.Is(err, errors.ErrNoSubmission) {
		t.Fatalf("expected ErrNoSubmission, got %v", err)
	}
	if e.reg.Len() != 0 {
		t.Error("expired create must not leave a registry entry")
	}
	if !e.tr.sentContaining("didn't post a submission in time") {
		t.Error("expected an expiry notice")
	}
}

func TestRegistry_JoinRegistersParticipant(t *testing.T) {
	e := newTestEngine(t, noopEval)
	s := e.create(t, "room", Options{Owner: transport.Member{ID: "A", Name: "A"}},
		submission("sub-1", "room", "A", "A", "`x=1`"))

	done := make(chan error, 1)
	go func() {
		done <- e.reg.Join(context.Background(), "room", transport.Member{ID: "B", Name: "B"})
	}()
	waitFor(t, "join prompt", func() bool { return countSent(e.tr, "B post a") == 1 })
	e.tr.post(submission("sub-2", "room", "B", "B", "`y=2`"))

	if err := <-done; err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if got := len(s.Participants()); got != 2 {
		t.Errorf("expected 2 pending submissions, have %d", got)
	}
}

func TestRegistry_JoinUnknownRoom(t *testing.T) {
	e := newTestEngine(t, noopEval)
	err := e.reg.Join(context.Background(), "nowhere", transport.Member{ID: "B", Name: "B"})
	if !errors.Is(err, errors.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestRegistry_UnknownKind(t *testing.T) {
	e := newTestEngine(t, noopEval)
	e.reg.factory = PipeFactory(e.cfg)

	_, err := e.reg.Create(context.Background(), "room",
		Options{Kind: "sonicpi", Owner: transport.Member{ID: "A", Name: "A"}})
	if !errors.Is(err, errors.ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}
