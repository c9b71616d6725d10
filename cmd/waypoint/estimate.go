package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"pathfinder-hq/waypoint/pkg/cli"
	"pathfinder-hq/waypoint/pkg/config"
	"pathfinder-hq/waypoint/pkg/limits/budget"
	"pathfinder-hq/waypoint/pkg/processing/conversation"
	"pathfinder-hq/waypoint/pkg/processing/tokens"
	"pathfinder-hq/waypoint/pkg/prompts"
	"pathfinder-hq/waypoint/pkg/proxy"
	"pathfinder-hq/waypoint/pkg/proxy/types"
)

var estimateFlags struct {
	endpoint string
	phase    string
	output   string
}

var estimateCmd = &cobra.Command{
	Use:   "estimate <conversation.json|->",
	Short: "Estimate tokens and the budget verdict for a conversation",
	Long: `Estimate the context tokens of a saved request body and report whether
the gateway would accept it, using the session limits and system prompts from
the configuration.

The file holds a chat or report request body:
  {"messages":[{"id":"m1","role":"user","content":"..."}],"phase":"values"}

The exit status is 0 when the request fits, 3 when it would be rejected.

Examples:
  waypoint estimate conversation.json
  waypoint estimate --endpoint report --output json conversation.json
  cat body.json | waypoint estimate -`,
	Args: cobra.ExactArgs(1),
	RunE: runEstimate,
}

func init() {
	rootCmd.AddCommand(estimateCmd)

	estimateCmd.Flags().StringVarP(&estimateFlags.endpoint, "endpoint", "e", string(types.EndpointChat), "endpoint class (chat, report)")
	estimateCmd.Flags().StringVar(&estimateFlags.phase, "phase", "", "override the phase in the request body")
	estimateCmd.Flags().StringVarP(&estimateFlags.output, "output", "o", "text", "output format (text, json)")
}

// Estimate is the result of the estimate command.
type Estimate struct {
	Endpoint       string `json:"endpoint"`
	Messages       int    `json:"messages"`
	MessageTokens  int    `json:"messageTokens"`
	PromptTokens   int    `json:"systemPromptTokens"`
	TotalTokens    int    `json:"totalTokens"`
	Limit          int    `json:"limit"`
	Allowed        bool   `json:"allowed"`
	Reason         string `json:"reason,omitempty"`
	KeptMessages   int    `json:"keptMessages"`
	DroppedOnTrim  int    `json:"droppedOnTrim"`
	OutboundTokens int    `json:"outboundTokens"`
}

// Fields renders the estimate as text.
func (e Estimate) Fields() []cli.Field {
	verdict := "accepted"
	if !e.Allowed {
		verdict = "rejected"
	}
	fields := []cli.Field{
		{Label: "Endpoint", Value: e.Endpoint},
		{Label: "Messages", Value: e.Messages},
		{Label: "Message tokens", Value: e.MessageTokens},
		{Label: "System prompt tokens", Value: e.PromptTokens},
		{Label: "Total", Value: fmt.Sprintf("%d / %d", e.TotalTokens, e.Limit)},
		{Label: "Verdict", Value: verdict},
	}
	if !e.Allowed {
		return append(fields, cli.Field{Label: "Reason", Value: e.Reason})
	}
	return append(fields,
		cli.Field{Label: "Kept after trim", Value: e.KeptMessages},
		cli.Field{Label: "Dropped on trim", Value: e.DroppedOnTrim},
		cli.Field{Label: "Outbound tokens", Value: e.OutboundTokens},
	)
}

func runEstimate(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(estimateFlags.output)
	if err != nil {
		return err
	}
	endpoint := types.Endpoint(estimateFlags.endpoint)
	if !endpoint.Valid() {
		return fmt.Errorf("unknown endpoint %q (supported: chat, report)", estimateFlags.endpoint)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	body, err := readInput(cmd, args[0])
	if err != nil {
		return cli.NewCommandError("estimate", err)
	}

	result, err := estimate(cfg, endpoint, body, estimateFlags.phase)
	if err != nil {
		return err
	}
	if err := cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), result); err != nil {
		return err
	}
	if !result.Allowed {
		return &cli.RejectedError{Reason: "context budget exceeded"}
	}
	return nil
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

// estimate runs the offline part of admission: validation, the context
// budget and trimming.
func estimate(cfg *config.Config, endpoint types.Endpoint, body []byte, phase string) (*Estimate, error) {
	validator := proxy.NewValidator(cfg.Session, prompts.ValidPhase)

	var messages []types.Message
	switch endpoint {
	case types.EndpointChat:
		req, err := validator.ParseChatRequest(body)
		if err != nil {
			return nil, &cli.RejectedError{Reason: err.Error()}
		}
		messages = req.Messages
		if phase == "" {
			phase = req.Phase
		}
	default:
		req, err := validator.ParseReportRequest(body)
		if err != nil {
			return nil, &cli.RejectedError{Reason: err.Error()}
		}
		messages = req.Messages
	}

	library, err := prompts.NewLibrary(cfg.Prompts, slog.New(slog.DiscardHandler))
	if err != nil {
		return nil, cli.NewConfigError("prompts", err)
	}
	systemPrompt, err := library.SystemPrompt(endpoint, phase)
	if err != nil {
		return nil, &cli.RejectedError{Reason: err.Error()}
	}

	estimator := tokens.NewEstimator(cfg.Session.CharsPerToken)
	verdict := budget.NewChecker(cfg.Session.MaxContextTokens, budget.WithEstimator(estimator)).Check(messages, systemPrompt)

	result := &Estimate{
		Endpoint:      string(endpoint),
		Messages:      len(messages),
		MessageTokens: estimator.EstimateMessages(messages),
		PromptTokens:  estimator.EstimateText(systemPrompt),
		TotalTokens:   verdict.Tokens,
		Limit:         verdict.Limit,
		Allowed:       verdict.Allowed,
		Reason:        verdict.Reason,
	}
	if !verdict.Allowed {
		return result, nil
	}

	trimmed := conversation.NewTrimmer(estimator, cfg.Session.TrimTokens).Trim(messages)
	result.KeptMessages = len(trimmed.Messages)
	result.DroppedOnTrim = trimmed.Dropped
	result.OutboundTokens = trimmed.Tokens
	return result, nil
}
