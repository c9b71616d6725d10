package types

// Usage reports token consumption for a completed request.
type Usage struct {
	// InputTokens is the number of prompt tokens billed by the provider.
	InputTokens int `json:"inputTokens"`

	// OutputTokens is the number of completion tokens billed by the provider.
	OutputTokens int `json:"outputTokens"`
}

// Total returns the sum of input and output tokens.
func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// ChatResponse is returned for a successful chat turn.
type ChatResponse struct {
	// Message is the assistant reply.
	Message Message `json:"message"`

	// Usage is the provider-reported token usage.
	Usage Usage `json:"usage"`

	// Trimmed is the number of older messages that were not forwarded.
	Trimmed int `json:"trimmed,omitempty"`
}

// ReportResponse is returned for a successful report generation.
type ReportResponse struct {
	// Report is the generated report text (markdown).
	Report string `json:"report"`

	// Usage is the provider-reported token usage.
	Usage Usage `json:"usage"`

	// Trimmed is the number of older messages that were not forwarded.
	Trimmed int `json:"trimmed,omitempty"`
}
