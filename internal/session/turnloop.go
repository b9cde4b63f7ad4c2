package session

import (
	"context"

	"github.com/irdumbs/jamcord/internal/errors"
	"github.com/irdumbs/jamcord/internal/race"
	"github.com/irdumbs/jamcord/internal/transport"
	"github.com/irdumbs/jamcord/internal/watch"
)

// claim identifies the participant whose confirm signal won a race round.
// A zero claim means the race was restarted without resolving anything.
type claim struct {
	participant string
	messageID   string
}

// runTurnLoop is the session's control loop. Each iteration races one watch
// per pending submission; the first participant to raise (or withdraw) the
// confirm emblem on their own submission gets it evaluated and published.
// At most one evaluation is ever in flight per session.
func (s *Session) runTurnLoop() {
	defer s.wg.Done()

	for s.active.Load() {
		outcome := race.First(s.ctx, 0, s.confirmLegs()...)
		if !s.active.Load() || s.ctx.Err() != nil {
			return
		}
		if outcome.TimedOut() || outcome.Err != nil || outcome.Value.participant == "" {
			// Woken to pick up a participant change; race again.
			continue
		}
		s.handleClaim(outcome.Value)
	}
}

// confirmLegs snapshots the pending submissions and builds one race leg per
// participant, plus a wake leg that restarts the race when the participant
// set changes.
func (s *Session) confirmLegs() []race.Source[claim] {
	s.mu.Lock()
	pending := make(map[string]transport.Message, len(s.participants))
	for id, msg := range s.participants {
		pending[id] = msg
	}
	s.mu.Unlock()

	legs := make([]race.Source[claim], 0, len(pending)+1)
	for id, msg := range pending {
		legs = append(legs, func(ctx context.Context) (claim, error) {
			match := func(sig watch.Signal) bool {
				return sig.Actor == id && sig.MessageID == msg.ID
			}
			sig, ok := s.watches.Await(ctx, 0, []string{s.confirmEmblem}, match)
			if !ok {
				return claim{}, errors.ErrCanceled
			}
			return claim{participant: id, messageID: sig.MessageID}, nil
		})
	}
	legs = append(legs, func(ctx context.Context) (claim, error) {
		select {
		case <-s.wake:
			return claim{}, nil
		case <-ctx.Done():
			return claim{}, ctx.Err()
		}
	})
	return legs
}

// handleClaim consumes the winning participant's submission: interprets the
// control synonyms, otherwise evaluates it and publishes the outcome.
func (s *Session) handleClaim(c claim) {
	sub, ok := s.takeSubmission(c.participant)
	if !ok {
		return
	}

	// Participants edit their submission message up to the moment they
	// confirm it; fetch the latest revision before consuming it.
	if latest, err := s.transport.Lookup(s.ctx, s.RoomID, sub.ID); err == nil {
		sub = latest
	}

	cleaned := CleanupCode(sub.Content)

	switch {
	case isQuit(cleaned):
		s.log.Info("participant quit", "participant", c.participant)
		_, _ = s.transport.Send(s.ctx, s.RoomID, Marker+"jam over, open your eyes")
		s.terminate("quit")
		return
	case isRefresh(cleaned):
		member := transport.Member{ID: sub.Author, Name: sub.AuthorName}
		go func() {
			_, _ = s.promptForSubmission(s.ctx, member, false)
		}()
		return
	}

	if cleaned == "." {
		cleaned = s.hush
	}

	res, err := s.eval.Evaluate(s.ctx, cleaned)
	if err != nil {
		s.log.Warn("evaluation failed", "participant", c.participant, "error", err)
	}
	s.publish(formatResult(sub.AuthorName, cleaned, res, err))
}
