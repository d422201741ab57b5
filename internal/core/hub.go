package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/pjsousa/hello-stomp-live/internal/store"
)

// DefaultSnapshotRecent bounds the message replay inside the
// registration snapshot.
const DefaultSnapshotRecent = 10

// Options tunes hub behavior. Zero values fall back to defaults; a zero
// schedule interval disables that emission.
type Options struct {
	HistoryLimit    int
	SnapshotRecent  int
	ValidateOptions bool

	BroadcastInterval time.Duration
	UserInterval      time.Duration
	DeviceInterval    time.Duration
}

type envelope struct {
	client     *Client
	cmd        *Command
	connect    bool
	disconnect bool
}

// Hub coordinates sessions, presence, preferences, routing and history.
// All shared state is owned by the Run goroutine; clients talk to it
// exclusively through channels, so no locking is needed.
type Hub struct {
	registry *Registry
	history  *History
	store    store.MessageStore
	log      zerolog.Logger
	opts     Options

	commands chan envelope

	runCtx context.Context
}

// NewHub constructs a hub. The store may be nil to disable persistence.
func NewHub(st store.MessageStore, logger *zerolog.Logger, opts Options) *Hub {
	if opts.SnapshotRecent <= 0 {
		opts.SnapshotRecent = DefaultSnapshotRecent
	}
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	return &Hub{
		registry: NewRegistry(),
		history:  NewHistory(opts.HistoryLimit),
		store:    st,
		log:      l,
		opts:     opts,
		commands: make(chan envelope, 64),
	}
}

// SeedHistory preloads previously persisted messages. Must be called
// before Run.
func (h *Hub) SeedHistory(msgs []Message) {
	for _, m := range msgs {
		h.history.Append(m)
	}
}

// RegisterClient admits a connection and starts pumping its commands
// into the hub loop. Connect is enqueued before the pump starts, so no
// command can overtake it. The pump exits when the transport closes the
// client's command channel.
func (h *Hub) RegisterClient(c *Client) {
	h.commands <- envelope{client: c, connect: true}
	go func() {
		for cmd := range c.Commands {
			h.commands <- envelope{client: c, cmd: cmd}
		}
	}()
}

// UnregisterClient removes a connection. Safe to call for clients the
// hub never admitted.
func (h *Hub) UnregisterClient(c *Client) {
	h.commands <- envelope{client: c, disconnect: true}
}

// Run processes commands until the context is canceled.
func (h *Hub) Run(ctx context.Context) {
	h.runCtx = ctx

	broadcastTicker, broadcastTick := newTicker(h.opts.BroadcastInterval)
	userTicker, userTick := newTicker(h.opts.UserInterval)
	deviceTicker, deviceTick := newTicker(h.opts.DeviceInterval)
	defer stopTickers(broadcastTicker, userTicker, deviceTicker)

	for {
		select {
		case <-ctx.Done():
			return
		case env := <-h.commands:
			switch {
			case env.connect:
				h.handleConnect(env.client)
			case env.disconnect:
				h.handleDisconnect(env.client)
			default:
				h.dispatch(env.client, env.cmd)
			}
		case <-broadcastTick:
			h.emitBroadcastSchedule()
		case <-userTick:
			h.emitUserSchedule()
		case <-deviceTick:
			h.emitDeviceSchedule()
		}
	}
}

func newTicker(d time.Duration) (*time.Ticker, <-chan time.Time) {
	if d <= 0 {
		// nil channel: the select arm never fires.
		return nil, nil
	}
	t := time.NewTicker(d)
	return t, t.C
}

func stopTickers(tickers ...*time.Ticker) {
	for _, t := range tickers {
		if t != nil {
			t.Stop()
		}
	}
}

func (h *Hub) handleConnect(c *Client) {
	if _, err := h.registry.Add(c); err != nil {
		h.log.Warn().Str("session_id", c.SessionID).Msg("duplicate session id on connect")
		h.sendError(c, ErrCodeDuplicateSession, "session id already connected")
		return
	}
	h.log.Debug().Str("session_id", c.SessionID).Msg("session connected")
	h.broadcastPresence()
}

func (h *Hub) handleDisconnect(c *Client) {
	s, ok := h.registry.Session(c.SessionID)
	if !ok || s.client != c {
		// A connection rejected as a duplicate shares its id with the
		// admitted one; only the admitted client may tear it down.
		return
	}
	h.registry.Remove(c.SessionID)
	h.log.Debug().Str("session_id", c.SessionID).Msg("session disconnected")
	h.broadcastPresence()
}

func (h *Hub) dispatch(c *Client, cmd *Command) {
	switch cmd.Kind {
	case CommandRegister:
		h.handleRegister(c, cmd)
	case CommandSendMessage:
		h.handleSendMessage(c, cmd)
	case CommandSetSendMe:
		h.handleSetSendMe(c, cmd)
	case CommandSetSendHere:
		h.handleSetSendHere(c, cmd)
	case CommandSetSendUs:
		h.handleSetSendUs(c, cmd)
	default:
		h.sendError(c, ErrCodeBadRequest, "unknown command")
	}
}

func (h *Hub) handleRegister(c *Client, cmd *Command) {
	if cmd.Identity == "" {
		h.sendError(c, ErrCodeBadRequest, "ME selection is required")
		return
	}
	if h.opts.ValidateOptions && !isIdentityOption(cmd.Identity) {
		h.sendError(c, ErrCodeInvalidPreference, "unknown identity: "+cmd.Identity)
		return
	}
	if cmd.SendMe != "" && h.opts.ValidateOptions && !isValueOption(cmd.SendMe) {
		h.sendError(c, ErrCodeInvalidPreference, "unknown SEND ME value: "+cmd.SendMe)
		return
	}
	if cmd.SendHere != "" && h.opts.ValidateOptions && !isValueOption(cmd.SendHere) {
		h.sendError(c, ErrCodeInvalidPreference, "unknown SEND HERE value: "+cmd.SendHere)
		return
	}

	s, err := h.registry.Bind(c.SessionID, cmd.Identity)
	if err != nil {
		h.sendError(c, ErrCodeBadRequest, "session is not connected")
		return
	}
	if cmd.SendHere != "" {
		s.SendHere = cmd.SendHere
	}
	if cmd.SendMe != "" {
		// Bind guarantees the user state exists.
		_ = h.registry.SetSendMe(s.Identity, cmd.SendMe)
	}

	snapshot := &Snapshot{
		SessionID:      s.ID,
		Me:             s.Identity,
		SendMe:         h.registry.SendMe(s.Identity),
		SendHere:       s.SendHere,
		SendUs:         h.registry.SendUs(),
		OnlineUsers:    h.registry.OnlineUsers(),
		RecentMessages: h.history.RecentFor(s.Identity, s.ID, h.opts.SnapshotRecent),
	}
	h.send(c, &Event{Kind: EventSnapshot, SessionScope: s.ID, Snapshot: snapshot})
	h.emitSendMe(s.Identity)
	h.broadcastPresence()
	h.log.Info().Str("session_id", s.ID).Str("identity", s.Identity).Msg("session registered")
}

func (h *Hub) handleSendMessage(c *Client, cmd *Command) {
	s, ok := h.registry.Session(c.SessionID)
	if !ok || s.Identity == "" {
		h.sendError(c, ErrCodeNotRegistered, "select a ME identity before sending messages")
		return
	}
	if cmd.Content == "" {
		h.sendError(c, ErrCodeBadRequest, "content is required")
		return
	}
	if h.opts.ValidateOptions && !isValueOption(cmd.Content) {
		h.sendError(c, ErrCodeBadRequest, "content must be one of the value options")
		return
	}

	target := cmd.Target
	if target == "" {
		target = TargetEveryone
	}

	switch {
	case target == TargetEveryone:
		m := h.appendMessage(BroadcastMessage(s.Identity, cmd.Content, SourceUserMessage))
		h.fanoutBroadcast(m)
	case h.registry.UserOnline(target):
		m := h.appendMessage(UserMessage(s.Identity, target, cmd.Content, SourceUserMessage))
		h.fanoutUser(m, target)
		if s.Identity != target {
			// Mirror to the sender's own user topic.
			h.fanoutUser(m, s.Identity)
		}
	default:
		if dest, connected := h.registry.Session(target); connected {
			m := h.appendMessage(DeviceMessage(s.Identity, dest.ID, cmd.Content, SourceUserMessage))
			h.sendDevice(m, dest)
			return
		}
		h.sendError(c, ErrCodeUnknownTarget, "unknown SEND TO target: "+target)
	}
}

func (h *Hub) handleSetSendMe(c *Client, cmd *Command) {
	s, ok := h.registry.Session(c.SessionID)
	if !ok || s.Identity == "" {
		h.sendError(c, ErrCodeNotRegistered, "select a ME identity before updating SEND ME")
		return
	}
	if cmd.Value == "" {
		h.sendError(c, ErrCodeBadRequest, "SEND ME value is required")
		return
	}
	if h.opts.ValidateOptions && !isValueOption(cmd.Value) {
		h.sendError(c, ErrCodeInvalidPreference, "unknown SEND ME value: "+cmd.Value)
		return
	}
	if err := h.registry.SetSendMe(s.Identity, cmd.Value); err != nil {
		h.sendError(c, ErrCodeBadRequest, err.Error())
		return
	}
	h.emitSendMe(s.Identity)
}

func (h *Hub) handleSetSendHere(c *Client, cmd *Command) {
	if cmd.Value == "" {
		h.sendError(c, ErrCodeBadRequest, "SEND HERE value is required")
		return
	}
	if h.opts.ValidateOptions && !isValueOption(cmd.Value) {
		h.sendError(c, ErrCodeInvalidPreference, "unknown SEND HERE value: "+cmd.Value)
		return
	}
	s, err := h.registry.SetSendHere(c.SessionID, cmd.Value)
	if err != nil {
		h.sendError(c, ErrCodeBadRequest, "session is not connected")
		return
	}
	h.send(c, &Event{Kind: EventSendHere, SessionScope: s.ID, Value: s.SendHere})
}

func (h *Hub) handleSetSendUs(c *Client, cmd *Command) {
	if cmd.Value == "" {
		h.sendError(c, ErrCodeBadRequest, "SEND US value is required")
		return
	}
	if h.opts.ValidateOptions && !isValueOption(cmd.Value) {
		h.sendError(c, ErrCodeInvalidPreference, "unknown SEND US value: "+cmd.Value)
		return
	}
	value := h.registry.SetSendUs(cmd.Value)
	ev := &Event{Kind: EventSendUs, Value: value}
	for _, s := range h.registry.Sessions() {
		h.send(s.client, ev)
	}
}

// emitSendMe echoes the identity-scoped value to every session of the
// identity, the originator included.
func (h *Hub) emitSendMe(identity string) {
	ev := &Event{Kind: EventSendMe, Identity: identity, Value: h.registry.SendMe(identity)}
	for _, s := range h.registry.UserSessions(identity) {
		h.send(s.client, ev)
	}
}

func (h *Hub) broadcastPresence() {
	ev := &Event{Kind: EventOnlineUsers, Users: h.registry.OnlineUsers()}
	for _, s := range h.registry.Sessions() {
		h.send(s.client, ev)
	}
}

func (h *Hub) fanoutBroadcast(m Message) {
	ev := &Event{Kind: EventMessage, Message: &m}
	for _, s := range h.registry.Sessions() {
		h.send(s.client, ev)
	}
}

func (h *Hub) fanoutUser(m Message, identity string) {
	ev := &Event{Kind: EventMessage, Message: &m, UserScope: identity}
	for _, s := range h.registry.UserSessions(identity) {
		h.send(s.client, ev)
	}
}

func (h *Hub) sendDevice(m Message, dest *Session) {
	h.send(dest.client, &Event{Kind: EventMessage, Message: &m, SessionScope: dest.ID})
}

// Scheduled emissions, mirroring the server's periodic SYSTEM traffic:
// the global value to everyone, each identity's SEND ME to its user
// topic, each session's SEND HERE to its device topic.

func (h *Hub) emitBroadcastSchedule() {
	if len(h.registry.Sessions()) == 0 {
		return
	}
	m := h.appendMessage(BroadcastMessage(SystemSender, h.registry.SendUs(), SourceSystemBroadcast))
	h.fanoutBroadcast(m)
}

func (h *Hub) emitUserSchedule() {
	for _, identity := range h.registry.OnlineUsers() {
		m := h.appendMessage(UserMessage(SystemSender, identity, h.registry.SendMe(identity), SourceSystemUserSched))
		h.fanoutUser(m, identity)
	}
}

func (h *Hub) emitDeviceSchedule() {
	for _, s := range h.registry.Sessions() {
		m := h.appendMessage(DeviceMessage(SystemSender, s.ID, s.SendHere, SourceSystemDeviceSched))
		h.sendDevice(m, s)
	}
}

// appendMessage records a message in bounded history (assigning its id)
// and persists it when a store is configured. Append happens before any
// fan-out, so a message can never be evicted before its own delivery.
func (h *Hub) appendMessage(m Message) Message {
	m = h.history.Append(m)
	if h.store != nil {
		ctx := h.runCtx
		if ctx == nil {
			ctx = context.Background()
		}
		if err := h.store.SaveMessage(ctx, toStoreMessage(m)); err != nil {
			h.log.Warn().Err(err).Str("message_id", m.ID).Msg("failed to persist message")
		}
	}
	return m
}

func toStoreMessage(m Message) *store.Message {
	return &store.Message{
		ID:            m.ID,
		Sender:        m.Sender,
		Audience:      string(m.Audience),
		Source:        string(m.Source),
		Content:       m.Content,
		TargetUser:    m.TargetUser,
		TargetSession: m.TargetSession,
		CreatedAt:     m.CreatedAt,
	}
}

// FromStoreMessage converts a persisted message back into the domain
// model for history seeding.
func FromStoreMessage(m *store.Message) Message {
	return Message{
		ID:            m.ID,
		Sender:        m.Sender,
		Audience:      Audience(m.Audience),
		Source:        Source(m.Source),
		Content:       m.Content,
		TargetUser:    m.TargetUser,
		TargetSession: m.TargetSession,
		CreatedAt:     m.CreatedAt,
	}
}

func (h *Hub) sendError(c *Client, code, msg string) {
	h.send(c, &Event{Kind: EventError, SessionScope: c.SessionID, Error: coreError(code, msg)})
}

// send never blocks the hub loop; events for slow consumers are dropped
// and recovered through history replay on reconnect.
func (h *Hub) send(c *Client, ev *Event) {
	select {
	case c.Events <- ev:
	default:
		h.log.Warn().Str("session_id", c.SessionID).Msg("dropping event for slow consumer")
	}
}
