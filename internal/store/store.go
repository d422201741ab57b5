package store

import (
	"context"
	"time"
)

// Message is a persisted chat message.
type Message struct {
	ID            string
	Sender        string
	Audience      string
	Source        string
	Content       string
	TargetUser    string
	TargetSession string
	CreatedAt     time.Time
}

// MessageStore handles message persistence.
type MessageStore interface {
	// SaveMessage persists a message to storage.
	SaveMessage(ctx context.Context, msg *Message) error

	// ListRecent retrieves the newest limit messages, oldest first.
	ListRecent(ctx context.Context, limit int) ([]*Message, error)
}

// Store aggregates the storage interfaces.
type Store interface {
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
