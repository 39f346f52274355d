package server

import "sync/atomic"

// Metrics holds the process-wide counters INFO reports. Every field
// is updated with atomic ops from arbitrary goroutines (one per
// connection) and read the same way, so there is no separate lock.
type Metrics struct {
	TotalConnections  atomic.Uint64
	ActiveConnections atomic.Int64
	TotalCommands     atomic.Uint64
	TotalErrors       atomic.Uint64
}
