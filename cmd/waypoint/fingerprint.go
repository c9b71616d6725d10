package main

import (
	"github.com/spf13/cobra"
	"pathfinder-hq/waypoint/pkg/cli"
	"pathfinder-hq/waypoint/pkg/security/fingerprint"
)

var fingerprintFlags struct {
	platformIP   string
	realIP       string
	forwardedFor string
	userAgent    string
	output       string
}

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint",
	Short: "Compute the client fingerprint for the given request metadata",
	Long: `Compute the client fingerprint the rate limiter pairs with the user ID.

Origin priority matches the server: --ip (the platform-verified address),
then --real-ip, then the first hop of --forwarded-for, then "unknown".

Examples:
  waypoint fingerprint --ip 203.0.113.7 --user-agent "Mozilla/5.0"
  waypoint fingerprint --forwarded-for "198.51.100.2, 10.0.0.1"`,
	Args: cobra.NoArgs,
	RunE: runFingerprint,
}

func init() {
	rootCmd.AddCommand(fingerprintCmd)

	fingerprintCmd.Flags().StringVar(&fingerprintFlags.platformIP, "ip", "", "platform-verified client address")
	fingerprintCmd.Flags().StringVar(&fingerprintFlags.realIP, "real-ip", "", "X-Real-IP value")
	fingerprintCmd.Flags().StringVar(&fingerprintFlags.forwardedFor, "forwarded-for", "", "X-Forwarded-For chain")
	fingerprintCmd.Flags().StringVarP(&fingerprintFlags.userAgent, "user-agent", "a", "", "User-Agent value")
	fingerprintCmd.Flags().StringVarP(&fingerprintFlags.output, "output", "o", "text", "output format (text, json)")
}

// FingerprintResult is the result of the fingerprint command.
type FingerprintResult struct {
	Origin      string `json:"origin"`
	UserAgent   string `json:"userAgent"`
	Fingerprint string `json:"fingerprint"`
}

// Fields renders the result as text.
func (r FingerprintResult) Fields() []cli.Field {
	return []cli.Field{
		{Label: "Origin", Value: r.Origin},
		{Label: "User-Agent", Value: r.UserAgent},
		{Label: "Fingerprint", Value: r.Fingerprint},
	}
}

func runFingerprint(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(fingerprintFlags.output)
	if err != nil {
		return err
	}

	md := fingerprint.Metadata{
		PlatformIP:   fingerprintFlags.platformIP,
		RealIP:       fingerprintFlags.realIP,
		ForwardedFor: fingerprintFlags.forwardedFor,
		UserAgent:    fingerprintFlags.userAgent,
	}
	result := FingerprintResult{
		Origin:      md.Origin(),
		UserAgent:   md.UserAgent,
		Fingerprint: fingerprint.Compute(md),
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), result)
}
