package anthropic

import (
	"encoding/json"
	"errors"
	"strings"

	"pathfinder-hq/waypoint/pkg/providers"
	"pathfinder-hq/waypoint/pkg/proxy/types"
)

// OmittedPlaceholder opens a conversation whose oldest kept message is from
// the assistant, since the Messages API requires a user turn first.
const OmittedPlaceholder = "[Earlier conversation omitted]"

// MessagesRequest is the body of POST /v1/messages.
type MessagesRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	System    string    `json:"system,omitempty"`
	MaxTokens int       `json:"max_tokens"`
}

// Message is one turn in Messages API format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ContentBlock is one block of a response.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// MessagesResponse is a successful Messages API response.
type MessagesResponse struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Role         string         `json:"role"`
	Content      []ContentBlock `json:"content"`
	Model        string         `json:"model"`
	StopReason   string         `json:"stop_reason"`
	StopSequence string         `json:"stop_sequence,omitempty"`
	Usage        Usage          `json:"usage"`
}

// Usage is token usage in Messages API format.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// errorEnvelope is the body of a failed request:
// {"type":"error","error":{"type":"overloaded_error","message":"..."}}.
type errorEnvelope struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

var errEmptyConversation = errors.New("conversation has no messages")

// transformRequest converts a provider-neutral request. Consecutive messages
// of the same role are merged, and a leading assistant message gets a user
// placeholder in front of it so the result always alternates starting with
// the user.
func transformRequest(req *providers.CompletionRequest, defaultModel string, defaultMaxTokens int) (*MessagesRequest, error) {
	if len(req.Messages) == 0 {
		return nil, errEmptyConversation
	}

	out := &MessagesRequest{
		Model:     req.Model,
		System:    req.System,
		MaxTokens: req.MaxTokens,
		Messages:  make([]Message, 0, len(req.Messages)+1),
	}
	if out.Model == "" {
		out.Model = defaultModel
	}
	if out.MaxTokens <= 0 {
		out.MaxTokens = defaultMaxTokens
	}

	if req.Messages[0].Role == types.RoleAssistant {
		out.Messages = append(out.Messages, Message{Role: string(types.RoleUser), Content: OmittedPlaceholder})
	}

	for _, m := range req.Messages {
		role := string(m.Role)
		if n := len(out.Messages); n > 0 && out.Messages[n-1].Role == role {
			out.Messages[n-1].Content += "\n\n" + m.Content
			continue
		}
		out.Messages = append(out.Messages, Message{Role: role, Content: m.Content})
	}

	return out, nil
}

// transformResponse concatenates the text blocks of resp.
func transformResponse(resp *MessagesResponse) (*providers.Completion, error) {
	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return nil, errors.New("response has no text content")
	}

	return &providers.Completion{
		Content:    sb.String(),
		Model:      resp.Model,
		StopReason: resp.StopReason,
		Usage: types.Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		},
	}, nil
}

// parseErrorBody implements providers.ErrorBodyParser for Messages API
// error envelopes.
func parseErrorBody(body []byte) (string, string, bool) {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil || env.Error.Type == "" {
		return "", "", false
	}
	return env.Error.Type, env.Error.Message, true
}
