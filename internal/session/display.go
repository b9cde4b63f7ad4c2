package session

import (
	"fmt"
	"time"

	"github.com/irdumbs/jamcord/internal/errors"
)

// fenceFor picks the syntax-highlight tag for a console page.
func fenceFor(kind string) string {
	switch kind {
	case "foxdot":
		return "py"
	case "tidal", "stack":
		return "haskell"
	}
	return ""
}

// renderPage renders the current console page: marker prefix, fenced block,
// and the page/total marker on the same unit. Each call steps the pager
// backward one page, so an idle-but-dirty console walks through history
// newest-first.
func (s *Session) renderPage() string {
	text, page, total := s.pager.Render()
	return fmt.Sprintf("%s```%s\n%s\n```%d/%d", Marker, s.fence, text, page, total)
}

// runDisplay keeps the console surface in sync with the log. It polls the
// dirty flag on a short fixed interval rather than reacting to every append
// so a burst of publishes collapses into one surface edit.
func (s *Session) runDisplay() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
		}
		if !s.active.Load() {
			return
		}
		if !s.dirty.Load() {
			continue
		}
		s.refreshSurface()
		s.dirty.Store(false)
	}
}

// refreshSurface pushes the current page to the console surface, recreating
// the surface if it vanished and retrying the update once. Permission errors
// are swallowed; other transport errors produce a single diagnostic message
// to the room and are otherwise ignored.
func (s *Session) refreshSurface() {
	content := s.renderPage()

	sid := s.surfaceRef()
	if sid != "" {
		if _, err := s.transport.Lookup(s.ctx, s.RoomID, sid); errors.Is(err, errors.ErrMessageNotFound) {
			sid = ""
		}
	}

	if sid == "" {
		s.recreateSurface(content)
		return
	}

	err := s.transport.Edit(s.ctx, sid, content)
	switch {
	case err == nil:
	case errors.Is(err, errors.ErrForbidden):
	case errors.Is(err, errors.ErrMessageNotFound):
		// Vanished between the lookup and the edit.
		s.recreateSurface(content)
	default:
		s.reportDisplayError(err)
	}
}

func (s *Session) recreateSurface(content string) {
	msg, err := s.transport.Send(s.ctx, s.RoomID, content)
	if err != nil {
		s.reportDisplayError(err)
		return
	}
	s.setSurface(msg.ID)
	s.log.Debug("console surface recreated", "message", msg.ID)
}

// reportDisplayError surfaces an unexpected transport error to the room once
// per session; repeats are only logged.
func (s *Session) reportDisplayError(err error) {
	s.log.Error("console update failed", "error", err)
	if s.reportedOnce.Swap(true) {
		return
	}
	_, _ = s.transport.Send(s.ctx, s.RoomID,
		fmt.Sprintf("%sunexpected console error: `%v`", Marker, err))
}
