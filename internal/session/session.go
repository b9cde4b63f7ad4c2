// Package session implements the collaborative jam engine: the per-room
// session state, the at-most-one-per-room registry, the turn loop that
// arbitrates confirmed submissions, the display supervisor that keeps the
// shared console fresh, and the purge supervisor that keeps the room clean.
package session

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gobwas/glob"

	"github.com/irdumbs/jamcord/internal/errors"
	"github.com/irdumbs/jamcord/internal/evaluator"
	"github.com/irdumbs/jamcord/internal/event"
	"github.com/irdumbs/jamcord/internal/logging"
	"github.com/irdumbs/jamcord/internal/pager"
	"github.com/irdumbs/jamcord/internal/transport"
	"github.com/irdumbs/jamcord/internal/watch"
)

// Marker is the zero-width-space prefix carried by every message the engine
// itself sends. The purge supervisor uses it to classify "is this one of
// ours" without consulting session state.
const Marker = "\u200b"

// Session is one active jam in one room. All of its mutable state is owned
// by the session; the only structure shared across sessions is the watch
// registry, where matching is filtered by participant and message identity.
type Session struct {
	RoomID string
	Kind   string
	Owner  string

	transport transport.Transport
	bus       *event.Bus
	watches   *watch.Registry
	eval      evaluator.Evaluator
	log       *logging.Logger
	pager     *pager.Pager

	hush            string
	fence           string
	confirmEmblem   string
	joinTimeout     time.Duration
	refreshInterval time.Duration
	cleanupDelay    time.Duration
	consoleless     bool
	keep            []glob.Glob

	mu           sync.Mutex
	participants map[string]transport.Message // participant -> pending submission
	surfaceID    string

	active       atomic.Bool
	dirty        atomic.Bool
	reportedOnce atomic.Bool // one-shot diagnostic for display errors

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// wake nudges the confirm race so a freshly registered participant is
	// included without waiting for someone else to act.
	wake chan struct{}

	// onTerminate is set by the registry so an in-loop quit removes the
	// room entry before teardown.
	onTerminate func(reason string)
}

// Active reports whether the session has not begun termination.
func (s *Session) Active() bool {
	return s.active.Load()
}

// Participants returns the identifiers with an outstanding pending
// submission.
func (s *Session) Participants() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.participants))
	for id := range s.participants {
		ids = append(ids, id)
	}
	return ids
}

// Join prompts a new participant for their first submission and registers it.
// The prompt expiring is not fatal to the session; the participant just
// isn't registered.
func (s *Session) Join(ctx context.Context, member transport.Member) error {
	if !s.active.Load() {
		return errors.ErrSessionInactive
	}
	ok, err := s.promptForSubmission(ctx, member, false)
	if err != nil {
		return err
	}
	if !ok {
		return errors.ErrNoSubmission
	}
	return nil
}

// Leave drops a participant's pending submission. Returns whether the
// participant had one.
func (s *Session) Leave(participant string) bool {
	s.mu.Lock()
	_, ok := s.participants[participant]
	delete(s.participants, participant)
	s.mu.Unlock()
	if ok {
		s.nudge()
	}
	return ok
}

// takeSubmission consumes a participant's pending submission.
func (s *Session) takeSubmission(participant string) (transport.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.participants[participant]
	delete(s.participants, participant)
	return msg, ok
}

// registerSubmission records a participant's pending submission, replacing
// any previous one, and wakes the confirm race so it is included.
func (s *Session) registerSubmission(participant string, msg transport.Message) {
	s.mu.Lock()
	s.participants[participant] = msg
	s.mu.Unlock()
	s.nudge()
}

// observeSubmission registers an inbound code message as its author's next
// pending submission, replacing any prior one, and marks it with the confirm
// emblem. Submissions are consumed when claimed, so this is how participants
// line up turn after turn.
func (s *Session) observeSubmission(msg transport.Message) {
	if !s.active.Load() || msg.FromSelf || msg.RoomID != s.RoomID {
		return
	}
	if !strings.HasPrefix(msg.Content, "`") {
		return
	}
	s.registerSubmission(msg.Author, msg)
	if err := s.transport.React(s.ctx, msg.ID, s.confirmEmblem); err != nil {
		s.log.Debug("could not emblem submission", "message", msg.ID, "error", err)
	}
}

// nudge restarts the confirm race without resolving any submission.
func (s *Session) nudge() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Session) surfaceRef() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.surfaceID
}

func (s *Session) setSurface(id string) {
	s.mu.Lock()
	s.surfaceID = id
	s.mu.Unlock()
}

// publish appends a formatted block to the log, resets paging to the newest
// page, and flags the display supervisor.
func (s *Session) publish(block string) {
	// a bare "None" result reads as noise on the console
	if block == "None" {
		block = "\n"
	}
	s.pager.Append(block)
	s.dirty.Store(true)
	s.bus.Publish(event.NewPagePublishedEvent(s.RoomID))
}

// terminate ends the session, removing the registry entry first when the
// registry installed a hook.
func (s *Session) terminate(reason string) {
	if s.onTerminate != nil {
		s.onTerminate(reason)
		return
	}
	s.shutdown(reason)
}

// shutdown tears the session down: stops the loops, releases the evaluator,
// and removes the console surface. Idempotent.
func (s *Session) shutdown(reason string) {
	if !s.active.Swap(false) {
		return
	}
	s.cancel()

	if s.eval != nil {
		if err := s.eval.Close(); err != nil {
			s.log.Warn("evaluator did not close cleanly", "error", err)
		}
	}

	if sid := s.surfaceRef(); sid != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = s.transport.Delete(ctx, sid)
		cancel()
	}

	s.log.Info("session ended", "reason", reason)
	s.bus.Publish(event.NewSessionEndedEvent(s.RoomID, reason))
}
