// Waypoint is the API gateway for the career and life-planning assistant.
//
// It sits between browser clients and the LLM provider and admits each chat
// or report request through identity, daily quota, rate limiting,
// validation, a context-token budget and history trimming before the
// provider is called.
//
// Usage:
//
//	# Start the server with config.yaml (or defaults and WAYPOINT_* variables)
//	waypoint run
//
//	# Start with a custom configuration file
//	waypoint run --config /etc/waypoint/config.yaml
//
//	# Estimate tokens and the budget verdict for a saved conversation
//	waypoint estimate conversation.json
//
//	# Compute the client fingerprint the rate limiter would use
//	waypoint fingerprint --ip 203.0.113.7 --user-agent "Mozilla/5.0"
//
//	# Show version information
//	waypoint version
package main

import "os"

func main() {
	os.Exit(Execute())
}
