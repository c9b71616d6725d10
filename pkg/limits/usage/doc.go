// Package usage records per-user LLM usage and enforces daily request
// quotas.
//
// # Overview
//
// A Tracker sits in front of a Store:
//
//	tracker := usage.NewTracker(usage.NewMemoryStore(), usage.Quotas{
//	    types.EndpointChat:   200,
//	    types.EndpointReport: 10,
//	}, logger)
//
//	result, err := tracker.CheckQuota(ctx, userID, types.EndpointChat)
//	if err == nil && !result.Allowed {
//	    // reject: daily quota used up
//	}
//
//	// after a successful completion
//	_ = tracker.RecordUsage(ctx, usage.Record{UserID: userID, ...})
//
// Quotas count completed requests per UTC day. Requests rejected earlier in
// admission are never recorded.
//
// # Backends
//
//   - MemoryStore: in-process, lost on restart
//   - SQLiteStore: file-backed (modernc.org/sqlite, no cgo)
//
// # Retention
//
// Scheduler runs a Pruner on a cron expression and deletes records older
// than the retention period.
package usage
