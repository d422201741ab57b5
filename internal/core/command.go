package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandRegister binds the session to an identity and requests a snapshot.
	CommandRegister CommandKind = iota
	// CommandSendMessage publishes a chat message to a resolved scope.
	CommandSendMessage
	// CommandSetSendMe updates the identity-scoped preference.
	CommandSetSendMe
	// CommandSetSendHere updates the session-scoped preference.
	CommandSetSendHere
	// CommandSetSendUs updates the single global preference.
	CommandSetSendUs
)

// Command represents an action requested by a client.
type Command struct {
	Kind CommandKind

	// Register fields. SendMe and SendHere seed the preference scopes
	// when non-empty.
	Identity string
	SendMe   string
	SendHere string

	// Message fields.
	Target  string
	Content string

	// Settings field.
	Value string
}
