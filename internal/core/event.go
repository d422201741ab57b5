package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventMessage carries a chat message on one of the message topics.
	EventMessage EventKind = iota
	// EventOnlineUsers carries the presence snapshot.
	EventOnlineUsers
	// EventSendUs echoes the global preference.
	EventSendUs
	// EventSendMe echoes the identity-scoped preference.
	EventSendMe
	// EventSendHere echoes the session-scoped preference.
	EventSendHere
	// EventSnapshot delivers the one-time registration snapshot.
	EventSnapshot
	// EventError notifies the originating session about a domain error.
	EventError
)

// Event is sent to clients to describe what happened in the system.
// Scope fields tell the transport which topic the delivery belongs to:
// a user-targeted message mirrored to the sender carries the sender's
// identity in UserScope, while the copy for the target carries the
// target's.
type Event struct {
	Kind EventKind

	Message *Message
	// UserScope is the identity whose user topic an EventMessage with
	// AudienceUser belongs to.
	UserScope string
	// SessionScope is the session id for device-scoped deliveries
	// (device messages, send-here echoes, snapshots, errors).
	SessionScope string

	Users    []string // EventOnlineUsers
	Identity string   // EventSendMe scope
	Value    string   // preference echoes
	Snapshot *Snapshot
	Error    *CoreError
}

// Snapshot is the one-time bulk state payload delivered to a session
// immediately after registration.
type Snapshot struct {
	SessionID      string
	Me             string
	SendMe         string
	SendHere       string
	SendUs         string
	OnlineUsers    []string
	RecentMessages []Message
}
