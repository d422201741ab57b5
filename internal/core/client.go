package core

// Client is one live connection as seen by the core layer. SessionID is
// assigned by the transport at upgrade time; DeviceID is an optional
// external identifier the client may carry across reconnects.
type Client struct {
	SessionID string
	DeviceID  string
	Commands  chan *Command
	Events    chan *Event
}

// NewClient constructs a client with initialized channels.
func NewClient(sessionID, deviceID string) *Client {
	return &Client{
		SessionID: sessionID,
		DeviceID:  deviceID,
		Commands:  make(chan *Command, 8),
		Events:    make(chan *Event, 32),
	}
}
