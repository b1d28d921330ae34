package ai

// Role tags a message in a completion request.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged entry sent to the provider.
type Message struct {
	Role    Role
	Content string
}

// Candidate is one completion returned by the provider.
type Candidate struct {
	Role    Role
	Content string
}
