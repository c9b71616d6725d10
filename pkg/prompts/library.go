package prompts

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"pathfinder-hq/waypoint/pkg/config"
	"pathfinder-hq/waypoint/pkg/proxy/types"
)

// ErrUnknownPhase is returned for a chat phase with no guidance.
var ErrUnknownPhase = errors.New("unknown phase")

// ErrUnknownEndpoint is returned for an endpoint class with no prompt.
var ErrUnknownEndpoint = errors.New("unknown endpoint")

// Library holds the system prompts of each endpoint class. Prompts come
// from the configured files when set and from built-in defaults otherwise.
// Reload swaps them atomically, so SystemPrompt never sees a half-loaded set.
type Library struct {
	chatFile   string
	reportFile string
	logger     *slog.Logger

	mu     sync.RWMutex
	chat   string
	report string
}

// NewLibrary creates a Library and loads the configured prompt files.
func NewLibrary(cfg config.PromptsConfig, logger *slog.Logger) (*Library, error) {
	if logger == nil {
		logger = slog.Default()
	}

	l := &Library{
		chatFile:   cfg.ChatFile,
		reportFile: cfg.ReportFile,
		logger:     logger.With("component", "prompts"),
	}
	if err := l.Reload(); err != nil {
		return nil, err
	}
	return l, nil
}

// Reload re-reads the prompt files. On error the previous prompts stay in use.
func (l *Library) Reload() error {
	chat, err := loadPrompt(l.chatFile, DefaultChatPrompt)
	if err != nil {
		return err
	}
	report, err := loadPrompt(l.reportFile, DefaultReportPrompt)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.chat = chat
	l.report = report
	l.mu.Unlock()

	l.logger.Info("system prompts loaded",
		"chat_source", sourceName(l.chatFile),
		"chat_chars", len([]rune(chat)),
		"report_source", sourceName(l.reportFile),
		"report_chars", len([]rune(report)),
	)
	return nil
}

// SystemPrompt returns the system prompt for endpoint. For chat, phase
// selects additional guidance; an empty phase uses the base prompt alone.
// phase is ignored for reports.
func (l *Library) SystemPrompt(endpoint types.Endpoint, phase string) (string, error) {
	l.mu.RLock()
	chat, report := l.chat, l.report
	l.mu.RUnlock()

	switch endpoint {
	case types.EndpointChat:
		if phase == "" {
			return chat, nil
		}
		guidance, ok := phaseGuidance[phase]
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrUnknownPhase, phase)
		}
		return chat + "\n\n" + guidance, nil
	case types.EndpointReport:
		return report, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEndpoint, endpoint)
	}
}

// Files returns the configured prompt files, skipping unset ones.
func (l *Library) Files() []string {
	var files []string
	for _, f := range []string{l.chatFile, l.reportFile} {
		if f != "" {
			files = append(files, f)
		}
	}
	return files
}

// Phases returns the known chat phases in sorted order.
func Phases() []string {
	phases := make([]string, 0, len(phaseGuidance))
	for p := range phaseGuidance {
		phases = append(phases, p)
	}
	sort.Strings(phases)
	return phases
}

// ValidPhase reports whether phase is empty or a known chat phase.
func ValidPhase(phase string) bool {
	if phase == "" {
		return true
	}
	_, ok := phaseGuidance[phase]
	return ok
}

func loadPrompt(path, fallback string) (string, error) {
	if path == "" {
		return fallback, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt file %q: %w", path, err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("prompt file %q is empty", path)
	}
	return text, nil
}

func sourceName(path string) string {
	if path == "" {
		return "builtin"
	}
	return path
}
