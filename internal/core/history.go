package core

import "github.com/google/uuid"

// DefaultHistoryLimit is the bounded history cap used when the
// configuration leaves it unset.
const DefaultHistoryLimit = 200

// History retains a bounded ordered log of chat messages, oldest first.
// It never deduplicates; repeats are a consumer-side concern. Not safe
// for concurrent use, the hub serializes access.
type History struct {
	limit   int
	entries []Message
}

// NewHistory constructs a history bounded at limit entries.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit}
}

// Append stores a message, assigning a unique id when the producer left
// it empty, and evicts the oldest entry beyond the cap. Returns the
// stored message.
func (h *History) Append(m Message) Message {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	h.entries = append(h.entries, m)
	if len(h.entries) > h.limit {
		overflow := len(h.entries) - h.limit
		h.entries = append(h.entries[:0], h.entries[overflow:]...)
	}
	return m
}

// Len returns the number of retained messages.
func (h *History) Len() int { return len(h.entries) }

// All returns the retained messages, oldest first.
func (h *History) All() []Message {
	out := make([]Message, len(h.entries))
	copy(out, h.entries)
	return out
}

// RecentFor returns up to limit of the newest messages relevant to the
// given identity and session, oldest first. Relevance mirrors what the
// session would have received live: broadcasts, user-scope traffic sent
// to or by the identity, and device-scope traffic for the session.
func (h *History) RecentFor(identity, sessionID string, limit int) []Message {
	if limit <= 0 {
		return nil
	}
	picked := make([]Message, 0, limit)
	for i := len(h.entries) - 1; i >= 0 && len(picked) < limit; i-- {
		if relevant(h.entries[i], identity, sessionID) {
			picked = append(picked, h.entries[i])
		}
	}
	// Reverse into oldest-first order.
	for i, j := 0, len(picked)-1; i < j; i, j = i+1, j-1 {
		picked[i], picked[j] = picked[j], picked[i]
	}
	return picked
}

func relevant(m Message, identity, sessionID string) bool {
	switch m.Audience {
	case AudienceEveryone:
		return true
	case AudienceUser:
		if identity == "" {
			return false
		}
		return m.TargetUser == identity || m.Sender == identity
	case AudienceDevice:
		return m.TargetSession == sessionID
	default:
		return false
	}
}
