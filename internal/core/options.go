package core

// IdentityOptions is the advisory list of identities a client may pick.
// The wire contract carries it inside the registration snapshot so the
// client can render its pickers without hardcoding.
var IdentityOptions = []string{
	"🐶", "🐱", "🐭", "🐹", "🐰",
	"🦊", "🐻", "🐼", "🐨", "🐯",
}

// ValueOptions is the advisory list of preference/message values.
var ValueOptions = []string{
	"🍎", "🍌", "🍇", "🍕", "🍔",
	"🍣", "🍩", "🍰", "🥐", "🍪",
}

// TargetEveryone addresses a message to every connected session.
const TargetEveryone = "EVERYONE"

// Defaults for the three preference scopes.
func DefaultSendMe() string   { return ValueOptions[0] }
func DefaultSendHere() string { return ValueOptions[1] }
func DefaultSendUs() string   { return ValueOptions[2] }

func isIdentityOption(v string) bool { return contains(IdentityOptions, v) }
func isValueOption(v string) bool    { return contains(ValueOptions, v) }

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
