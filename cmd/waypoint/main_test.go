package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"pathfinder-hq/waypoint/pkg/cli"
	"pathfinder-hq/waypoint/pkg/security/fingerprint"
)

// execute runs the root command with fresh flag state.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cfgFile, envFile, verbose = defaultConfigFile, "", false
	runFlags.listenAddress, runFlags.logLevel, runFlags.dryRun = "", "", false
	estimateFlags.endpoint, estimateFlags.phase, estimateFlags.output = "chat", "", "text"
	fingerprintFlags.platformIP, fingerprintFlags.realIP = "", ""
	fingerprintFlags.forwardedFor, fingerprintFlags.userAgent, fingerprintFlags.output = "", "", "text"

	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append([]string{"--env-file", ""}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestVersionCommand(t *testing.T) {
	origVersion, origCommit := Version, GitCommit
	defer func() { Version, GitCommit = origVersion, origCommit }()
	Version, GitCommit = "1.2.3-test", "abc123"

	out, err := execute(t, "", "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	for _, want := range []string{"Waypoint 1.2.3-test", "Git Commit: abc123", runtime.Version()} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
}

func TestRunDryRun(t *testing.T) {
	out, err := execute(t, "", "run", "--dry-run", "--listen", "127.0.0.1:9999")
	if err != nil {
		t.Fatalf("run --dry-run failed: %v", err)
	}
	if !strings.Contains(out, "Configuration valid") {
		t.Errorf("Unexpected output %q", out)
	}
}

func TestRunInvalidConfig(t *testing.T) {
	path := writeFile(t, "config.yaml", "usage:\n  backend: postgres\n")

	_, err := execute(t, "", "run", "--dry-run", "--config", path)
	if err == nil {
		t.Fatal("Expected invalid config to fail")
	}
	if code := cli.ExitCode(err); code != cli.ExitConfig {
		t.Errorf("ExitCode = %d, want %d", code, cli.ExitConfig)
	}
}

func TestRunMissingExplicitConfig(t *testing.T) {
	_, err := execute(t, "", "run", "--dry-run", "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	if cli.ExitCode(err) != cli.ExitConfig {
		t.Errorf("Expected config error for an explicit missing file, got %v", err)
	}
}

func TestEnvFileLoaded(t *testing.T) {
	// godotenv never overrides variables that are already set, so the key
	// must be absent before the command runs.
	const key = "WAYPOINT_SERVER_LISTEN_ADDRESS"
	if _, set := os.LookupEnv(key); set {
		t.Skipf("%s is set in the environment", key)
	}
	t.Cleanup(func() { os.Unsetenv(key) })

	path := writeFile(t, ".env", key+"=127.0.0.1:7777\n")
	out := &bytes.Buffer{}
	cfgFile, verbose = defaultConfigFile, false
	runFlags.dryRun = false
	rootCmd.SetOut(out)
	rootCmd.SetArgs([]string{"--env-file", path, "run", "--dry-run"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if got := os.Getenv(key); got != "127.0.0.1:7777" {
		t.Errorf("%s = %q after loading .env", key, got)
	}
}

const conversationBody = `{"messages":[
  {"id":"m1","role":"user","content":"I want to change careers."},
  {"id":"m2","role":"assistant","content":"What do you enjoy most about your current work?"},
  {"id":"m3","role":"user","content":"Mentoring people."}
],"phase":"values"}`

func TestEstimate_Text(t *testing.T) {
	path := writeFile(t, "conversation.json", conversationBody)

	out, err := execute(t, "", "estimate", path)
	if err != nil {
		t.Fatalf("estimate failed: %v\n%s", err, out)
	}
	for _, want := range []string{"Endpoint:", "chat", "Verdict:", "accepted", "Kept after trim:", "3"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
}

func TestEstimate_JSONFromStdin(t *testing.T) {
	out, err := execute(t, conversationBody, "estimate", "--output", "json", "-")
	if err != nil {
		t.Fatalf("estimate failed: %v", err)
	}

	var got Estimate
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("Invalid JSON %q: %v", out, err)
	}
	if got.Messages != 3 || !got.Allowed || got.KeptMessages != 3 || got.DroppedOnTrim != 0 {
		t.Errorf("Unexpected estimate %+v", got)
	}
	if got.TotalTokens != got.MessageTokens+got.PromptTokens {
		t.Errorf("Total %d != messages %d + prompt %d", got.TotalTokens, got.MessageTokens, got.PromptTokens)
	}
	if got.Limit != 15000 {
		t.Errorf("Limit = %d, want default 15000", got.Limit)
	}
}

func TestEstimate_OverBudget(t *testing.T) {
	var msgs []string
	for i := 0; i < 7; i++ {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		msgs = append(msgs, `{"id":"m`+string(rune('0'+i))+`","role":"`+role+`","content":"`+strings.Repeat("a", 9000)+`"}`)
	}
	path := writeFile(t, "long.json", `{"messages":[`+strings.Join(msgs, ",")+`]}`)

	out, err := execute(t, "", "estimate", path)
	var rejected *cli.RejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("Expected RejectedError, got %v", err)
	}
	if cli.ExitCode(err) != cli.ExitRejected {
		t.Errorf("ExitCode = %d, want %d", cli.ExitCode(err), cli.ExitRejected)
	}
	if !strings.Contains(out, "rejected") || !strings.Contains(out, "Conversation is too long") {
		t.Errorf("Unexpected output:\n%s", out)
	}
}

func TestEstimate_ReportTrims(t *testing.T) {
	// 6 x 9000 chars = 13500 tokens: under the 15000 budget with the report
	// prompt, over the 12000 trim budget by one message.
	var msgs []string
	for i := 0; i < 6; i++ {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		msgs = append(msgs, `{"id":"m`+string(rune('0'+i))+`","role":"`+role+`","content":"`+strings.Repeat("b", 9000)+`"}`)
	}
	path := writeFile(t, "report.json", `{"messages":[`+strings.Join(msgs, ",")+`]}`)

	out, err := execute(t, "", "estimate", "--endpoint", "report", "-o", "json", path)
	if err != nil {
		t.Fatalf("estimate failed: %v\n%s", err, out)
	}
	var got Estimate
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if got.Endpoint != "report" || got.DroppedOnTrim != 1 || got.KeptMessages != 5 {
		t.Errorf("Unexpected estimate %+v", got)
	}
}

func TestEstimate_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
		body string
		code int
	}{
		{"bad role", []string{"estimate", "-"}, `{"messages":[{"id":"1","role":"system","content":"x"}]}`, cli.ExitRejected},
		{"unknown phase", []string{"estimate", "-"}, `{"messages":[{"id":"1","role":"user","content":"x"}],"phase":"nope"}`, cli.ExitRejected},
		{"unknown endpoint", []string{"estimate", "--endpoint", "admin", "-"}, conversationBody, cli.ExitFailure},
		{"bad output", []string{"estimate", "-o", "xml", "-"}, conversationBody, cli.ExitFailure},
		{"missing file", []string{"estimate", "/nonexistent/conversation.json"}, "", cli.ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.body, tt.args...)
			if err == nil {
				t.Fatal("Expected an error")
			}
			if code := cli.ExitCode(err); code != tt.code {
				t.Errorf("ExitCode = %d, want %d (%v)", code, tt.code, err)
			}
		})
	}
}

func TestFingerprintCommand(t *testing.T) {
	out, err := execute(t, "", "fingerprint", "--ip", "203.0.113.7", "--user-agent", "Mozilla/5.0", "-o", "json")
	if err != nil {
		t.Fatalf("fingerprint failed: %v", err)
	}

	var got FingerprintResult
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	want := fingerprint.Compute(fingerprint.Metadata{PlatformIP: "203.0.113.7", UserAgent: "Mozilla/5.0"})
	if got.Fingerprint != want || got.Origin != "203.0.113.7" {
		t.Errorf("Got %+v, want fingerprint %s", got, want)
	}
	if len(got.Fingerprint) != fingerprint.Length {
		t.Errorf("Fingerprint length = %d", len(got.Fingerprint))
	}
}

func TestFingerprintCommand_ForwardedFor(t *testing.T) {
	out, err := execute(t, "", "fingerprint", "--forwarded-for", "198.51.100.2, 10.0.0.1")
	if err != nil {
		t.Fatalf("fingerprint failed: %v", err)
	}
	if !strings.Contains(out, "198.51.100.2") || strings.Contains(out, "10.0.0.1") {
		t.Errorf("Expected first hop as origin:\n%s", out)
	}
}

func TestCompletionCommand(t *testing.T) {
	out, err := execute(t, "", "completion", "bash")
	if err != nil {
		t.Fatalf("completion failed: %v", err)
	}
	if !strings.Contains(out, "waypoint") {
		t.Error("Expected bash completion script for waypoint")
	}
}
