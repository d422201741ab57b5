package core

import "time"

// Audience describes who a message is addressed to.
type Audience string

const (
	AudienceEveryone Audience = "EVERYONE"
	AudienceUser     Audience = "USER"
	AudienceDevice   Audience = "DEVICE"
)

// Source describes who produced a message.
type Source string

const (
	SourceUserMessage       Source = "USER_MESSAGE"
	SourceSystemBroadcast   Source = "SYSTEM_BROADCAST"
	SourceSystemUserSched   Source = "SYSTEM_USER_SCHEDULE"
	SourceSystemDeviceSched Source = "SYSTEM_DEVICE_SCHEDULE"
)

// SystemSender is the sender identity used by scheduled emissions.
const SystemSender = "SYSTEM"

// Message is the domain model for a chat message. Immutable once appended
// to history; the history store assigns ID when the producer left it empty.
type Message struct {
	ID            string
	Sender        string
	Audience      Audience
	Source        Source
	Content       string
	TargetUser    string
	TargetSession string
	CreatedAt     time.Time
}

// BroadcastMessage builds a message addressed to everyone.
func BroadcastMessage(sender, content string, source Source) Message {
	return Message{
		Sender:    sender,
		Audience:  AudienceEveryone,
		Source:    source,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// UserMessage builds a message addressed to one identity (all of its sessions).
func UserMessage(sender, targetUser, content string, source Source) Message {
	return Message{
		Sender:     sender,
		Audience:   AudienceUser,
		Source:     source,
		Content:    content,
		TargetUser: targetUser,
		CreatedAt:  time.Now(),
	}
}

// DeviceMessage builds a message addressed to a single session.
func DeviceMessage(sender, targetSession, content string, source Source) Message {
	return Message{
		Sender:        sender,
		Audience:      AudienceDevice,
		Source:        source,
		Content:       content,
		TargetSession: targetSession,
		CreatedAt:     time.Now(),
	}
}
