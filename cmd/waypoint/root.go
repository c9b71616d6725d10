package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"pathfinder-hq/waypoint/pkg/cli"
	"pathfinder-hq/waypoint/pkg/config"
)

const defaultConfigFile = "config.yaml"

var (
	// Global flags
	cfgFile string
	envFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "waypoint",
	Short: "Waypoint - admission-controlled API gateway for an LLM planning assistant",
	Long: `Waypoint serves the chat and report endpoints of the career and
life-planning assistant. Every request is admitted through:
  - Identity resolution (trusted header or JWT bearer token)
  - Per-user daily quotas
  - Per-user, per-client sliding window rate limits (Redis or in-process)
  - Request validation and a context-token budget
  - Conversation history trimming

Configuration is read from a YAML file, a .env file and WAYPOINT_*
environment variables, in increasing order of precedence.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if envFile == "" {
			return nil
		}
		if err := config.LoadDotEnv(envFile); err != nil {
			return cli.NewConfigError("", err)
		}
		return nil
	},
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return cli.ExitCode(err)
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", defaultConfigFile, "config file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before WAYPOINT_* overrides (empty to skip)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig reads the configuration named by --config with environment
// overrides applied. A missing default config file is not an error: the
// result is defaults plus environment.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == defaultConfigFile {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}

	cfg, err := config.LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, cli.NewConfigError("", err)
	}
	return cfg, nil
}
