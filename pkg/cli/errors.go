package cli

import (
	"errors"
	"fmt"
)

// Process exit codes used by the waypoint command.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitConfig  = 2
	// ExitRejected is returned by commands that evaluate a request and find
	// it would be rejected, such as estimate on an over-budget conversation.
	ExitRejected = 3
)

// ConfigError represents an error in configuration.
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "config error: " + e.Message
	}
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// CommandError represents an error from a command execution.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// RejectedError reports a negative verdict. It is not a failure of the
// command itself and carries its own exit code.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return "rejected: " + e.Reason
}

// NewConfigError creates a new ConfigError wrapping err, which may be nil.
func NewConfigError(field string, err error) *ConfigError {
	ce := &ConfigError{Field: field, Err: err}
	if err != nil {
		ce.Message = err.Error()
	}
	return ce
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return ExitRejected
	}
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return ExitConfig
	}
	return ExitFailure
}
