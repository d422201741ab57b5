package core

import (
	"testing"
	"time"
)

func TestHubRegisterDeliversSnapshotAndPresence(t *testing.T) {
	hub := startHub(t, Options{})

	dog, snapshot := connect(t, hub, "s1", "🐶")

	if snapshot.Me != "🐶" || snapshot.SessionID != "s1" {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
	if snapshot.SendUs != DefaultSendUs() {
		t.Fatalf("snapshot send-us = %q, want default %q", snapshot.SendUs, DefaultSendUs())
	}
	if len(snapshot.OnlineUsers) != 1 || snapshot.OnlineUsers[0] != "🐶" {
		t.Fatalf("snapshot online users = %v", snapshot.OnlineUsers)
	}
	if len(snapshot.RecentMessages) != 0 {
		t.Fatalf("fresh server replayed messages: %v", snapshot.RecentMessages)
	}

	// A second identity joining is broadcast to everyone already online.
	connect(t, hub, "s2", "🐱")

	ev := mustEvent(t, dog.Events, EventOnlineUsers)
	for {
		if len(ev.Users) == 2 {
			break
		}
		ev = mustEvent(t, dog.Events, EventOnlineUsers)
	}
	if ev.Users[0] != "🐶" || ev.Users[1] != "🐱" {
		t.Fatalf("presence ordering = %v, want first-bind order", ev.Users)
	}
}

func TestHubBroadcastReachesEveryoneIncludingSender(t *testing.T) {
	hub := startHub(t, Options{})

	dog, _ := connect(t, hub, "s1", "🐶")
	cat, _ := connect(t, hub, "s2", "🐱")

	dog.Commands <- &Command{Kind: CommandSendMessage, Target: TargetEveryone, Content: "🍕"}

	for _, c := range []*Client{dog, cat} {
		ev := mustEvent(t, c.Events, EventMessage)
		if ev.Message.Sender != "🐶" || ev.Message.Content != "🍕" {
			t.Fatalf("unexpected message: %+v", ev.Message)
		}
		if ev.Message.Audience != AudienceEveryone {
			t.Fatalf("audience = %v, want EVERYONE", ev.Message.Audience)
		}
		if ev.Message.ID == "" {
			t.Fatal("message delivered without id")
		}
	}
}

func TestHubUserTargetedMessageScoping(t *testing.T) {
	hub := startHub(t, Options{})

	dog, _ := connect(t, hub, "s1", "🐶")
	cat, _ := connect(t, hub, "s2", "🐱")
	fox, _ := connect(t, hub, "s3", "🦊")

	dog.Commands <- &Command{Kind: CommandSendMessage, Target: "🐱", Content: "🍣"}

	catEv := mustEvent(t, cat.Events, EventMessage)
	if catEv.UserScope != "🐱" || catEv.Message.TargetUser != "🐱" {
		t.Fatalf("cat delivery scope wrong: %+v", catEv)
	}

	// The sender sees the message mirrored onto its own user topic.
	dogEv := mustEvent(t, dog.Events, EventMessage)
	if dogEv.UserScope != "🐶" || dogEv.Message.ID != catEv.Message.ID {
		t.Fatalf("sender mirror wrong: %+v", dogEv)
	}

	// Bystanders see nothing.
	mustNoEvent(t, fox.Events, EventMessage, 150*time.Millisecond)
}

func TestHubDeviceTargetedMessage(t *testing.T) {
	hub := startHub(t, Options{})

	dog, _ := connect(t, hub, "s1", "🐶")
	cat, catSnap := connect(t, hub, "s2", "🐱")
	cat2, _ := connect(t, hub, "s3", "🐱")

	dog.Commands <- &Command{Kind: CommandSendMessage, Target: catSnap.SessionID, Content: "🍔"}

	ev := mustEvent(t, cat.Events, EventMessage)
	if ev.Message.Audience != AudienceDevice || ev.SessionScope != "s2" {
		t.Fatalf("device delivery wrong: %+v", ev)
	}
	// The identity's other session is a different device; it sees nothing.
	mustNoEvent(t, cat2.Events, EventMessage, 150*time.Millisecond)
}

func TestHubUnknownTargetErrorOnlyToSender(t *testing.T) {
	hub := startHub(t, Options{})

	dog, _ := connect(t, hub, "s1", "🐶")
	cat, _ := connect(t, hub, "s2", "🐱")

	dog.Commands <- &Command{Kind: CommandSendMessage, Target: "🐼", Content: "🍎"}

	ev := mustEvent(t, dog.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeUnknownTarget {
		t.Fatalf("expected unknown_target error, got %+v", ev)
	}
	mustNoEvent(t, cat.Events, EventMessage, 150*time.Millisecond)

	// The failed message was never persisted: a fresh session's replay
	// stays empty.
	_, snap := connect(t, hub, "s3", "🦊")
	if len(snap.RecentMessages) != 0 {
		t.Fatalf("failed message reached history: %v", snap.RecentMessages)
	}
}

func TestHubSendWithoutIdentityRejected(t *testing.T) {
	hub := startHub(t, Options{})

	c := NewClient("s1", "")
	hub.RegisterClient(c)
	c.Commands <- &Command{Kind: CommandSendMessage, Target: TargetEveryone, Content: "🍎"}

	ev := mustEvent(t, c.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeNotRegistered {
		t.Fatalf("expected not_registered error, got %+v", ev)
	}
}

func TestHubDuplicateSessionRejected(t *testing.T) {
	hub := startHub(t, Options{})

	connect(t, hub, "same", "🐶")

	dup := NewClient("same", "")
	hub.RegisterClient(dup)

	ev := mustEvent(t, dup.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeDuplicateSession {
		t.Fatalf("expected duplicate_session error, got %+v", ev)
	}
}

func TestHubRejectedDuplicateDisconnectKeepsOriginal(t *testing.T) {
	hub := startHub(t, Options{})

	dog, _ := connect(t, hub, "same", "🐶")

	dup := NewClient("same", "")
	hub.RegisterClient(dup)
	ev := mustEvent(t, dup.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeDuplicateSession {
		t.Fatalf("expected duplicate_session error, got %+v", ev)
	}

	// Tearing down the rejected connection must not evict the admitted
	// session that owns the id.
	hub.UnregisterClient(dup)
	close(dup.Commands)

	dog.Commands <- &Command{Kind: CommandSendMessage, Target: TargetEveryone, Content: "🍕"}
	msg := mustEvent(t, dog.Events, EventMessage)
	if msg.Message.Sender != "🐶" || msg.Message.Content != "🍕" {
		t.Fatalf("original session broken after duplicate disconnect: %+v", msg.Message)
	}
}

func TestHubSendUsLastWriteWins(t *testing.T) {
	hub := startHub(t, Options{})

	dog, _ := connect(t, hub, "s1", "🐶")
	cat, _ := connect(t, hub, "s2", "🐱")

	dog.Commands <- &Command{Kind: CommandSetSendUs, Value: "🍰"}
	cat.Commands <- &Command{Kind: CommandSetSendUs, Value: "🥐"}

	// Both subscribers converge on the last written value.
	for _, c := range []*Client{dog, cat} {
		ev := mustEvent(t, c.Events, EventSendUs)
		for ev.Value != "🥐" {
			ev = mustEvent(t, c.Events, EventSendUs)
		}
	}
}

func TestHubSendMeSharedAcrossIdentitySessions(t *testing.T) {
	hub := startHub(t, Options{})

	first, _ := connect(t, hub, "s1", "🐶")
	second, _ := connect(t, hub, "s2", "🐶")
	other, _ := connect(t, hub, "s3", "🐱")
	drain(other.Events)

	first.Commands <- &Command{Kind: CommandSetSendMe, Value: "🍇"}

	for _, c := range []*Client{first, second} {
		ev := mustEvent(t, c.Events, EventSendMe)
		for ev.Value != "🍇" {
			ev = mustEvent(t, c.Events, EventSendMe)
		}
		if ev.Identity != "🐶" {
			t.Fatalf("send-me echo scoped to %q, want 🐶", ev.Identity)
		}
	}
	// Distinct identities never see it.
	mustNoEvent(t, other.Events, EventSendMe, 150*time.Millisecond)
}

func TestHubSendHerePrivateToSession(t *testing.T) {
	hub := startHub(t, Options{})

	first, _ := connect(t, hub, "s1", "🐶")
	second, _ := connect(t, hub, "s2", "🐶")

	first.Commands <- &Command{Kind: CommandSetSendHere, Value: "🍪"}

	ev := mustEvent(t, first.Events, EventSendHere)
	if ev.SessionScope != "s1" || ev.Value != "🍪" {
		t.Fatalf("send-here echo wrong: %+v", ev)
	}
	// Even a session of the same identity never sees it.
	mustNoEvent(t, second.Events, EventSendHere, 150*time.Millisecond)
}

func TestHubIdentityChangeRebindsScopes(t *testing.T) {
	hub := startHub(t, Options{})

	c, _ := connect(t, hub, "s1", "🐶")
	c.Commands <- &Command{Kind: CommandSetSendMe, Value: "🍕"}
	mustEvent(t, c.Events, EventSendMe)

	// Re-register under a new identity.
	c.Commands <- &Command{Kind: CommandRegister, Identity: "🦊"}
	ev := mustEvent(t, c.Events, EventSnapshot)

	if ev.Snapshot.Me != "🦊" {
		t.Fatalf("snapshot me = %q, want 🦊", ev.Snapshot.Me)
	}
	if ev.Snapshot.SendMe != DefaultSendMe() {
		t.Fatalf("fox inherited dog's send-me: %q", ev.Snapshot.SendMe)
	}
	for _, u := range ev.Snapshot.OnlineUsers {
		if u == "🐶" {
			t.Fatal("dog still online after rebind")
		}
	}
}

func TestHubReplayInSnapshotAfterReconnect(t *testing.T) {
	hub := startHub(t, Options{})

	dog, _ := connect(t, hub, "s1", "🐶")
	cat, _ := connect(t, hub, "s2", "🐱")

	dog.Commands <- &Command{Kind: CommandSendMessage, Target: TargetEveryone, Content: "🍎"}
	dog.Commands <- &Command{Kind: CommandSendMessage, Target: "🐱", Content: "🍕"}
	mustEvent(t, cat.Events, EventMessage)

	// The cat's device drops and reconnects under a new session id.
	hub.UnregisterClient(cat)
	close(cat.Commands)

	_, snap := connect(t, hub, "s9", "🐱")
	if len(snap.RecentMessages) != 2 {
		t.Fatalf("replayed %d messages, want 2: %+v", len(snap.RecentMessages), snap.RecentMessages)
	}
	if snap.RecentMessages[0].Content != "🍎" || snap.RecentMessages[1].Content != "🍕" {
		t.Fatalf("replay out of order: %+v", snap.RecentMessages)
	}
}

func TestHubScheduledBroadcastEmission(t *testing.T) {
	hub := startHub(t, Options{BroadcastInterval: 30 * time.Millisecond})

	dog, _ := connect(t, hub, "s1", "🐶")

	ev := mustEvent(t, dog.Events, EventMessage)
	for ev.Message.Source != SourceSystemBroadcast {
		ev = mustEvent(t, dog.Events, EventMessage)
	}
	if ev.Message.Sender != SystemSender {
		t.Fatalf("scheduled broadcast sender = %q", ev.Message.Sender)
	}
	if ev.Message.Content != DefaultSendUs() {
		t.Fatalf("scheduled broadcast carries %q, want current send-us %q", ev.Message.Content, DefaultSendUs())
	}

	// The emission goes through history, so later sessions replay it.
	_, snap := connect(t, hub, "s2", "🐱")
	found := false
	for _, m := range snap.RecentMessages {
		if m.Source == SourceSystemBroadcast {
			found = true
		}
	}
	if !found {
		t.Fatalf("scheduled broadcast missing from replay: %+v", snap.RecentMessages)
	}
}

func TestHubScheduledUserEmission(t *testing.T) {
	hub := startHub(t, Options{UserInterval: 30 * time.Millisecond})

	dog, _ := connect(t, hub, "s1", "🐶")
	cat, _ := connect(t, hub, "s2", "🐱")

	// Each identity receives its own SEND ME schedule, nobody else's.
	ev := mustEvent(t, dog.Events, EventMessage)
	if ev.Message.Source != SourceSystemUserSched || ev.Message.TargetUser != "🐶" {
		t.Fatalf("unexpected scheduled user message for dog: %+v", ev.Message)
	}
	if ev.Message.Sender != SystemSender || ev.Message.Content != DefaultSendMe() {
		t.Fatalf("scheduled user message = %+v, want SYSTEM %q", ev.Message, DefaultSendMe())
	}
	ev = mustEvent(t, cat.Events, EventMessage)
	if ev.Message.TargetUser != "🐱" {
		t.Fatalf("scheduled user message for %q delivered to cat", ev.Message.TargetUser)
	}

	// A second session of the same identity replays them from history.
	_, snap := connect(t, hub, "s3", "🐶")
	found := false
	for _, m := range snap.RecentMessages {
		if m.Source == SourceSystemUserSched && m.TargetUser == "🐶" {
			found = true
		}
	}
	if !found {
		t.Fatalf("scheduled user message missing from replay: %+v", snap.RecentMessages)
	}
}

func TestHubScheduledDeviceEmission(t *testing.T) {
	hub := startHub(t, Options{DeviceInterval: 30 * time.Millisecond})

	dog, _ := connect(t, hub, "s1", "🐶")
	cat, _ := connect(t, hub, "s2", "🐱")

	ev := mustEvent(t, dog.Events, EventMessage)
	if ev.Message.Source != SourceSystemDeviceSched || ev.Message.TargetSession != "s1" {
		t.Fatalf("unexpected scheduled device message for s1: %+v", ev.Message)
	}
	if ev.Message.Sender != SystemSender || ev.Message.Content != DefaultSendHere() {
		t.Fatalf("scheduled device message = %+v, want SYSTEM %q", ev.Message, DefaultSendHere())
	}

	// Every device copy the dog sees carries its own session id.
	for i := 0; i < 3; i++ {
		ev = mustEvent(t, dog.Events, EventMessage)
		if ev.Message.TargetSession != "s1" {
			t.Fatalf("device copy for %q leaked to s1", ev.Message.TargetSession)
		}
	}
	ev = mustEvent(t, cat.Events, EventMessage)
	if ev.Message.TargetSession != "s2" {
		t.Fatalf("device copy for %q delivered to s2", ev.Message.TargetSession)
	}

	// Reconnecting under the same session id replays the device copies.
	hub.UnregisterClient(dog)
	close(dog.Commands)
	_, snap := connect(t, hub, "s1", "🐶")
	found := false
	for _, m := range snap.RecentMessages {
		if m.Source == SourceSystemDeviceSched && m.TargetSession == "s1" {
			found = true
		}
	}
	if !found {
		t.Fatalf("scheduled device message missing from replay: %+v", snap.RecentMessages)
	}
}

func TestHubValidationRejectsUnknownOptions(t *testing.T) {
	hub := startHub(t, Options{ValidateOptions: true})

	dog, _ := connect(t, hub, "s1", "🐶")

	dog.Commands <- &Command{Kind: CommandSetSendUs, Value: "not-a-food"}
	ev := mustEvent(t, dog.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeInvalidPreference {
		t.Fatalf("expected invalid_preference_value, got %+v", ev)
	}

	c := NewClient("s2", "")
	hub.RegisterClient(c)
	c.Commands <- &Command{Kind: CommandRegister, Identity: "🚀"}
	ev = mustEvent(t, c.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeInvalidPreference {
		t.Fatalf("expected invalid_preference_value for identity, got %+v", ev)
	}
}

// drain discards whatever is currently buffered on an event channel.
func drain(ch <-chan *Event) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}
