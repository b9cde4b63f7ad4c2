package event

import (
	"time"

	"github.com/irdumbs/jamcord/internal/transport"
)

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "message.posted").
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{eventType: eventType, timestamp: time.Now()}
}

// -----------------------------------------------------------------------------
// Inbound Platform Events
// -----------------------------------------------------------------------------

// MessagePostedEvent is published by the transport for every inbound message.
// The registry routes it to the owning session for submission tracking and
// purge classification.
type MessagePostedEvent struct {
	baseEvent
	Message transport.Message
}

// NewMessagePostedEvent creates a MessagePostedEvent.
func NewMessagePostedEvent(msg transport.Message) MessagePostedEvent {
	return MessagePostedEvent{
		baseEvent: newBaseEvent("message.posted"),
		Message:   msg,
	}
}

// SignalAddedEvent is published when a participant raises a confirm emblem
// on a message.
type SignalAddedEvent struct {
	baseEvent
	RoomID    string
	MessageID string
	Actor     string // participant who raised the emblem
	Emblem    string
}

// NewSignalAddedEvent creates a SignalAddedEvent.
func NewSignalAddedEvent(roomID, messageID, actor, emblem string) SignalAddedEvent {
	return SignalAddedEvent{
		baseEvent: newBaseEvent("signal.added"),
		RoomID:    roomID,
		MessageID: messageID,
		Actor:     actor,
		Emblem:    emblem,
	}
}

// SignalRemovedEvent is published when a participant withdraws a previously
// raised emblem. Withdrawal resolves the same waits as raising, so toggling
// readiness works without the engine polling reaction state.
type SignalRemovedEvent struct {
	baseEvent
	RoomID    string
	MessageID string
	Actor     string
	Emblem    string
}

// NewSignalRemovedEvent creates a SignalRemovedEvent.
func NewSignalRemovedEvent(roomID, messageID, actor, emblem string) SignalRemovedEvent {
	return SignalRemovedEvent{
		baseEvent: newBaseEvent("signal.removed"),
		RoomID:    roomID,
		MessageID: messageID,
		Actor:     actor,
		Emblem:    emblem,
	}
}

// -----------------------------------------------------------------------------
// Session Lifecycle Events
// -----------------------------------------------------------------------------

// SessionStartedEvent is emitted when a session becomes active in a room.
type SessionStartedEvent struct {
	baseEvent
	RoomID string
	Kind   string // interpreter kind
	Owner  string
}

// NewSessionStartedEvent creates a SessionStartedEvent.
func NewSessionStartedEvent(roomID, kind, owner string) SessionStartedEvent {
	return SessionStartedEvent{
		baseEvent: newBaseEvent("session.started"),
		RoomID:    roomID,
		Kind:      kind,
		Owner:     owner,
	}
}

// SessionEndedEvent is emitted after a session is torn down and its room
// entry removed from the registry.
type SessionEndedEvent struct {
	baseEvent
	RoomID string
	Reason string // "quit", "killed", "prompt expired", ...
}

// NewSessionEndedEvent creates a SessionEndedEvent.
func NewSessionEndedEvent(roomID, reason string) SessionEndedEvent {
	return SessionEndedEvent{
		baseEvent: newBaseEvent("session.ended"),
		RoomID:    roomID,
		Reason:    reason,
	}
}

// PagePublishedEvent is emitted whenever the turn loop appends a new block
// to the session log. The display supervisor reacts by re-rendering; other
// listeners (the TUI status line) may observe it too.
type PagePublishedEvent struct {
	baseEvent
	RoomID string
}

// NewPagePublishedEvent creates a PagePublishedEvent.
func NewPagePublishedEvent(roomID string) PagePublishedEvent {
	return PagePublishedEvent{
		baseEvent: newBaseEvent("page.published"),
		RoomID:    roomID,
	}
}
