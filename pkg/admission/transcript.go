package admission

import (
	"strings"

	"pathfinder-hq/waypoint/pkg/proxy/types"
)

// Speaker labels used in report transcripts.
const (
	transcriptUser      = "User"
	transcriptAssistant = "Guide"
)

// Transcript folds a conversation into one user message, so a report
// request never ends on an assistant turn the model would continue.
func Transcript(messages []types.Message) types.Message {
	var sb strings.Builder
	sb.WriteString("Here is the completed self-assessment conversation.\n\n")
	for _, m := range messages {
		label := transcriptUser
		if m.Role == types.RoleAssistant {
			label = transcriptAssistant
		}
		sb.WriteString(label)
		sb.WriteString(": ")
		sb.WriteString(m.Content)
		sb.WriteString("\n\n")
	}
	sb.WriteString("Write the report now.")

	return types.Message{
		ID:      "transcript",
		Role:    types.RoleUser,
		Content: sb.String(),
	}
}
