package core

import "time"

// Session is one connected device tracked by the registry.
type Session struct {
	ID          string
	DeviceID    string
	Identity    string
	SendHere    string
	ConnectedAt time.Time

	client *Client
}

// userState groups the sessions bound to one identity together with the
// identity-scoped preference.
type userState struct {
	identity string
	sendMe   string
	sessions map[string]*Session
}

// Registry tracks connected sessions, identity bindings and the three
// preference scopes. It is not safe for concurrent use: the hub owns it
// and serializes all mutations on its run loop.
type Registry struct {
	sessions map[string]*Session
	users    map[string]*userState
	// order holds distinct online identities in first-bind order.
	order  []string
	sendUs string
}

// NewRegistry constructs an empty registry with the default global value.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		users:    make(map[string]*userState),
		sendUs:   DefaultSendUs(),
	}
}

// Add admits a connection as an unbound session. The duplicate check is
// defensive; the transport assigns fresh session ids at upgrade.
func (r *Registry) Add(c *Client) (*Session, error) {
	if _, exists := r.sessions[c.SessionID]; exists {
		return nil, ErrDuplicateSession
	}
	s := &Session{
		ID:          c.SessionID,
		DeviceID:    c.DeviceID,
		SendHere:    DefaultSendHere(),
		ConnectedAt: time.Now(),
		client:      c,
	}
	r.sessions[s.ID] = s
	return s, nil
}

// Remove drops a session and its identity binding. Idempotent: removing
// an unknown session is a no-op and returns false.
func (r *Registry) Remove(sessionID string) bool {
	s, ok := r.sessions[sessionID]
	if !ok {
		return false
	}
	delete(r.sessions, sessionID)
	if s.Identity != "" {
		r.unbind(s)
	}
	return true
}

// Bind assigns an identity to a session, moving it out of any previous
// identity's scope. Rebinding to the same identity is a no-op.
func (r *Registry) Bind(sessionID, identity string) (*Session, error) {
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.Identity == identity {
		return s, nil
	}
	if s.Identity != "" {
		r.unbind(s)
	}
	u, ok := r.users[identity]
	if !ok {
		u = &userState{
			identity: identity,
			sendMe:   DefaultSendMe(),
			sessions: make(map[string]*Session),
		}
		r.users[identity] = u
		r.order = append(r.order, identity)
	}
	u.sessions[sessionID] = s
	s.Identity = identity
	return s, nil
}

func (r *Registry) unbind(s *Session) {
	u, ok := r.users[s.Identity]
	if ok {
		delete(u.sessions, s.ID)
		if len(u.sessions) == 0 {
			delete(r.users, s.Identity)
			r.order = removeString(r.order, s.Identity)
		}
	}
	s.Identity = ""
}

// Session looks up a connected session by id.
func (r *Registry) Session(id string) (*Session, bool) {
	s, ok := r.sessions[id]
	return s, ok
}

// OnlineUsers returns the distinct online identities in first-bind order.
func (r *Registry) OnlineUsers() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// UserOnline reports whether any session is bound to the identity.
func (r *Registry) UserOnline(identity string) bool {
	_, ok := r.users[identity]
	return ok
}

// UserSessions returns the sessions currently bound to an identity.
func (r *Registry) UserSessions(identity string) []*Session {
	u, ok := r.users[identity]
	if !ok {
		return nil
	}
	out := make([]*Session, 0, len(u.sessions))
	for _, s := range u.sessions {
		out = append(out, s)
	}
	return out
}

// Sessions returns every connected session.
func (r *Registry) Sessions() []*Session {
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// SendMe returns the identity-scoped value, or the default when the
// identity is offline.
func (r *Registry) SendMe(identity string) string {
	if u, ok := r.users[identity]; ok {
		return u.sendMe
	}
	return DefaultSendMe()
}

// SetSendMe overwrites the identity-scoped value.
func (r *Registry) SetSendMe(identity, value string) error {
	u, ok := r.users[identity]
	if !ok {
		return ErrUserNotFound
	}
	u.sendMe = value
	return nil
}

// SetSendHere overwrites the session-scoped value.
func (r *Registry) SetSendHere(sessionID, value string) (*Session, error) {
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.SendHere = value
	return s, nil
}

// SendUs returns the single global value.
func (r *Registry) SendUs() string { return r.sendUs }

// SetSendUs overwrites the single global value. Last write wins.
func (r *Registry) SetSendUs(value string) string {
	r.sendUs = value
	return r.sendUs
}

func removeString(list []string, v string) []string {
	for i, item := range list {
		if item == v {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
