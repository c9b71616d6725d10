/*
Package cli provides helpers shared by the waypoint command.

Output Formatting:

Commands print results as text or JSON selected by --output:

	format, err := cli.ParseFormat(outputFlag)
	if err != nil {
		return err
	}
	if err := cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), result); err != nil {
		return err
	}

Results implementing Fielder get aligned "label: value" lines in text mode.

Exit Codes:

ExitCode maps a command error to the process exit status: 2 for
configuration errors, 3 for a RejectedError verdict, 1 otherwise.

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()
*/
package cli
