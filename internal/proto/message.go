package proto

import (
	"encoding/json"
	"fmt"
)

// ProtocolVersion identifies the single canonical wire revision.
const ProtocolVersion = 1

// Inbound is the envelope for frames coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Inbound frame types, named after the operation they invoke.
const (
	InboundTypeRegister = "session/register"
	InboundTypeSend     = "message/send"
	InboundTypeSendMe   = "settings/send-me"
	InboundTypeSendHere = "settings/send-here"
	InboundTypeSendUs   = "settings/send-us"
)

// RegisterData binds the session to an identity and optionally seeds
// the preference scopes.
type RegisterData struct {
	Me       string `json:"me"`
	SendMe   string `json:"sendMe,omitempty"`
	SendHere string `json:"sendHere,omitempty"`
	Protocol int    `json:"protocol,omitempty"`
}

// SendData is a chat message from the client.
type SendData struct {
	Target  string `json:"target"`
	Content string `json:"content"`
}

// ValueData carries a preference update.
type ValueData struct {
	Value string `json:"value"`
}

// Outbound is the envelope for frames sent to the client. Topic tells
// the client which subscription the payload belongs to.
type Outbound struct {
	Topic string `json:"topic"`
	Data  any    `json:"data,omitempty"`
}

// Shared topics.
const (
	TopicMessages       = "/topic/messages"
	TopicOnline         = "/topic/online"
	TopicGlobalSettings = "/topic/settings/global"
)

// UserMessagesTopic is the per-identity message topic.
func UserMessagesTopic(identity string) string {
	return fmt.Sprintf("/topic/user/%s/messages", identity)
}

// UserSettingsTopic is the per-identity settings topic.
func UserSettingsTopic(identity string) string {
	return fmt.Sprintf("/topic/settings/user/%s", identity)
}

// DeviceMessagesTopic is the per-session message topic.
func DeviceMessagesTopic(sessionID string) string {
	return fmt.Sprintf("/topic/device/%s/messages", sessionID)
}

// DeviceControlTopic is the per-session private channel carrying the
// snapshot, send-here echoes and error payloads.
func DeviceControlTopic(sessionID string) string {
	return fmt.Sprintf("/topic/device/%s/control", sessionID)
}

// ChatMessage is the wire shape of a chat message.
type ChatMessage struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Sender    string `json:"sender"`
	Target    string `json:"target"`
	Audience  string `json:"audience"`
	Source    string `json:"source"`
	Content   string `json:"content"`
}

// OnlineUsers is the presence payload.
type OnlineUsers struct {
	Users []string `json:"users"`
}

// SendUs is the global settings payload.
type SendUs struct {
	Value string `json:"value"`
}

// SendMe is the identity-scoped settings payload.
type SendMe struct {
	User  string `json:"user"`
	Value string `json:"value"`
}

// SendHere is the session-scoped settings echo.
type SendHere struct {
	SessionID string `json:"sessionId"`
	Value     string `json:"value"`
}

// Error is an in-band error payload on the device control topic.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Snapshot resynchronizes a session after registration.
type Snapshot struct {
	SessionID      string        `json:"sessionId"`
	Me             string        `json:"me"`
	SendMe         string        `json:"sendMe"`
	SendHere       string        `json:"sendHere"`
	SendUs         string        `json:"sendUs"`
	OnlineUsers    []string      `json:"onlineUsers"`
	RecentMessages []ChatMessage `json:"recentMessages"`
	AnimalOptions  []string      `json:"animalOptions"`
	FoodOptions    []string      `json:"foodOptions"`
}
