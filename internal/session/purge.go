package session

import (
	"context"
	"strings"
	"time"

	"github.com/irdumbs/jamcord/internal/transport"
)

// KeepMarker exempts a message from purging when it leads the content,
// letting participants leave permanent notes in a cleaned room.
const KeepMarker = "*"

// observeMessage classifies an inbound room message for purging. Eligible
// messages are deleted after the cleanup delay, with a re-check first since
// the protocol message set may have changed while waiting. Deletion is
// best-effort.
func (s *Session) observeMessage(msg transport.Message) {
	if s.cleanupDelay < 0 || !s.active.Load() {
		return
	}
	if msg.RoomID != s.RoomID || s.exemptFromPurge(msg) {
		return
	}

	go func() {
		timer := time.NewTimer(s.cleanupDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-s.ctx.Done():
			return
		}

		if !s.active.Load() || s.exemptFromPurge(msg) {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.transport.Delete(ctx, msg.ID); err != nil {
			s.log.Debug("purge delete failed", "message", msg.ID, "error", err)
		}
	}()
}

// exemptFromPurge reports whether a message must survive cleaning: protocol
// messages (marker prefix, pending submissions, the console surface), the
// keep marker, and any configured keep pattern.
func (s *Session) exemptFromPurge(msg transport.Message) bool {
	if strings.HasPrefix(msg.Content, Marker) {
		return true
	}
	if strings.HasPrefix(msg.Content, KeepMarker) {
		return true
	}

	s.mu.Lock()
	if msg.ID == s.surfaceID {
		s.mu.Unlock()
		return true
	}
	for _, pending := range s.participants {
		if pending.ID == msg.ID {
			s.mu.Unlock()
			return true
		}
	}
	s.mu.Unlock()

	for _, g := range s.keep {
		if g.Match(msg.Content) {
			return true
		}
	}
	return false
}
