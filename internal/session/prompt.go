package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/irdumbs/jamcord/internal/transport"
)

// promptForSubmission asks a participant to post their first submission and
// waits for it. On success the submission is registered as pending, the
// confirm emblem is raised on it so the participant can click it back, and
// the prompt message is removed.
//
// creating marks the prompt issued by session creation; its expiry is fatal
// to the session (handled by the caller). A later join or refresh prompt
// expiring just leaves a friendly note.
func (s *Session) promptForSubmission(ctx context.Context, member transport.Member, creating bool) (bool, error) {
	text := fmt.Sprintf("%s%s post a `code` message or a ```code block``` to start your session",
		Marker, member.Name)
	prompt, err := s.transport.Send(ctx, s.RoomID, text)
	if err != nil {
		return false, err
	}

	filter := func(m transport.Message) bool {
		return m.Author == member.ID && strings.HasPrefix(m.Content, "`")
	}
	msg, ok, err := s.transport.WaitForMessage(ctx, s.RoomID, s.joinTimeout, filter)
	if err != nil || !ok {
		expired := fmt.Sprintf("%s%s didn't post a submission in time", Marker, member.Name)
		_, _ = s.transport.Send(ctx, s.RoomID, expired)
		_ = s.transport.Delete(ctx, prompt.ID)
		return false, err
	}

	if rerr := s.transport.React(ctx, msg.ID, s.confirmEmblem); rerr != nil {
		s.log.Warn("could not raise confirm emblem", "message", msg.ID, "error", rerr)
	}
	s.registerSubmission(member.ID, msg)
	_ = s.transport.Delete(ctx, prompt.ID)

	s.log.Debug("submission registered",
		"participant", member.ID, "message", msg.ID, "creating", creating)
	return true, nil
}
