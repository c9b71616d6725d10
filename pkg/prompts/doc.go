// Package prompts provides the system prompts sent with each LLM call.
//
// A Library serves one prompt per endpoint class. Chat prompts can be
// extended with guidance for the current assessment phase:
//
//	lib, err := prompts.NewLibrary(cfg.Prompts, logger)
//	prompt, err := lib.SystemPrompt(types.EndpointChat, "values")
//
// Prompt files replace the built-in defaults. With prompts.watch enabled a
// Watcher reloads them after edits; a failed reload keeps the previous
// prompts.
package prompts
