package core

import (
	"context"
	"testing"
	"time"
)

func startHub(t *testing.T, opts Options) *Hub {
	t.Helper()

	hub := NewHub(nil, nil, opts)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

// connect admits a client and registers its identity, returning the
// snapshot the hub answers with.
func connect(t *testing.T, hub *Hub, sessionID, identity string) (*Client, *Snapshot) {
	t.Helper()

	c := NewClient(sessionID, "")
	hub.RegisterClient(c)
	c.Commands <- &Command{Kind: CommandRegister, Identity: identity}
	ev := mustEvent(t, c.Events, EventSnapshot)
	if ev.Snapshot == nil {
		t.Fatalf("snapshot event without snapshot payload: %+v", ev)
	}
	return c, ev.Snapshot
}

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

func mustNoEvent(t *testing.T, ch <-chan *Event, kind EventKind, wait time.Duration) {
	t.Helper()

	deadline := time.After(wait)
	for {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event kind %v received: %+v", kind, ev)
			}
		case <-deadline:
			return
		}
	}
}
