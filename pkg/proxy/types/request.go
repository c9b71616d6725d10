package types

// Endpoint classifies an admitted request. Each class has its own rate
// limiter, quota and system prompt.
type Endpoint string

const (
	// EndpointChat is one conversational turn.
	EndpointChat Endpoint = "chat"

	// EndpointReport is a one-shot report over a finished conversation.
	EndpointReport Endpoint = "report"
)

// Valid reports whether e is a known endpoint class.
func (e Endpoint) Valid() bool {
	return e == EndpointChat || e == EndpointReport
}

// Role identifies the author of a conversation message.
type Role string

const (
	// RoleUser is a message typed by the person taking the assessment.
	RoleUser Role = "user"

	// RoleAssistant is a message produced by the model.
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the accepted roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message represents a single message in a conversation.
type Message struct {
	// ID is a caller-supplied identifier, unique within one request.
	// At most 50 characters.
	ID string `json:"id"`

	// Role is the author of the message ("user" or "assistant").
	Role Role `json:"role"`

	// Content is the text content of the message. Never empty.
	Content string `json:"content"`
}

// ChatRequest is the body of a chat turn request.
type ChatRequest struct {
	// Messages is the full conversation so far, oldest first.
	Messages []Message `json:"messages"`

	// Phase selects the assessment phase whose system prompt is used.
	// Optional; the default chat prompt is used when empty.
	Phase string `json:"phase,omitempty"`
}

// ReportRequest is the body of a report generation request.
type ReportRequest struct {
	// Messages is the complete assessment conversation, oldest first.
	Messages []Message `json:"messages"`
}
