// Package transport defines the chat-platform capability the session engine
// consumes. The engine only ever talks to a platform through this interface:
// it sends, edits, and deletes messages, waits for inbound text, and learns
// about confirm emblems through events the transport publishes.
//
// The concrete platform is external to the engine. The bundled terminal
// adapter (internal/tui) implements this interface for local jams.
package transport

import (
	"context"
	"time"
)

// Message is a single message in a room as the platform reports it.
type Message struct {
	ID         string
	RoomID     string
	Author     string // stable participant identifier
	AuthorName string // display name shown in published output
	Content    string
	FromSelf   bool // true if the engine itself sent it
	Posted     time.Time
}

// Member is a participant the platform knows about in a room.
type Member struct {
	ID   string
	Name string
}

// MessageFilter selects inbound messages a wait is interested in.
type MessageFilter func(Message) bool

// Transport is the platform capability.
//
// All blocking calls honor ctx cancellation. Implementations report a
// vanished message with errors.ErrMessageNotFound and a refused edit or
// delete with errors.ErrForbidden so the engine can apply its recovery
// policy.
type Transport interface {
	// Send posts a message to a room and returns it with its platform ID.
	Send(ctx context.Context, roomID, content string) (Message, error)

	// Edit replaces the content of a previously sent message.
	Edit(ctx context.Context, messageID, content string) error

	// Delete removes a message. Deleting an already-gone message returns
	// errors.ErrMessageNotFound.
	Delete(ctx context.Context, messageID string) error

	// Lookup fetches a message by ID, used to detect a vanished surface.
	Lookup(ctx context.Context, roomID, messageID string) (Message, error)

	// React raises an emblem on a message on the engine's behalf, marking
	// a pending submission as confirmable.
	React(ctx context.Context, messageID, emblem string) error

	// WaitForMessage blocks until a message passing the filter arrives in
	// the room, the timeout elapses, or ctx is canceled. The bool reports
	// whether a message arrived.
	WaitForMessage(ctx context.Context, roomID string, timeout time.Duration, filter MessageFilter) (Message, bool, error)

	// Members lists the room's current participants.
	Members(ctx context.Context, roomID string) ([]Member, error)
}
