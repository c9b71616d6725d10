package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"pathfinder-hq/waypoint/pkg/cli"
	"pathfinder-hq/waypoint/pkg/config"
	"pathfinder-hq/waypoint/pkg/server"
	"pathfinder-hq/waypoint/pkg/telemetry/logging"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Waypoint API server",
	Long: `Start the Waypoint API server with the specified configuration.

The server listens on the configured address and serves /api/chat,
/api/report, /health, /ready, /version and the metrics endpoint. SIGINT or
SIGTERM triggers a graceful shutdown.

Examples:
  # Start with config.yaml, or defaults when it does not exist
  waypoint run

  # Start with custom config
  waypoint run --config /etc/waypoint/config.yaml

  # Override listen address
  waypoint run --listen 0.0.0.0:8080

  # Validate config without starting server
  waypoint run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	if err := config.Validate(cfg); err != nil {
		return cli.NewConfigError("", err)
	}

	out := cmd.OutOrStdout()
	if runFlags.dryRun {
		fmt.Fprintln(out, "✓ Configuration valid")
		return nil
	}

	logger, err := logging.FromConfig(cfg.Telemetry.Logging, os.Stderr)
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err)
	}

	srv, err := server.New(cfg, server.Options{
		Logger:    logger,
		Version:   Version,
		Commit:    GitCommit,
		BuildTime: BuildDate,
	})
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	printBanner(cmd, cfg)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	if err := srv.Run(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}
	fmt.Fprintln(out, "✓ Server stopped")
	return nil
}

func printBanner(cmd *cobra.Command, cfg *config.Config) {
	out := cmd.OutOrStdout()
	addr := cfg.Server.ListenAddress

	fmt.Fprintf(out, "Waypoint %s\n", Version)
	fmt.Fprintf(out, "✓ Model: %s\n", cfg.LLM.Model)
	if cfg.Redis.URL != "" {
		fmt.Fprintln(out, "✓ Rate limits: redis")
	} else {
		fmt.Fprintln(out, "✓ Rate limits: in-process (not shared between replicas)")
	}
	fmt.Fprintf(out, "✓ Usage store: %s\n", cfg.Usage.Backend)
	fmt.Fprintf(out, "✓ Listening on %s\n", addr)
	fmt.Fprintf(out, "✓ Health endpoint: http://%s/health\n", addr)
	if cfg.Telemetry.Metrics.IsEnabled() {
		fmt.Fprintf(out, "✓ Metrics endpoint: http://%s%s\n", addr, cfg.Telemetry.Metrics.Path)
	}
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")
}
