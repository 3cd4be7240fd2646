package opt

import "sync"

// Stats aggregates optimizer-internal counters across a run. Higher layers
// read them out to export; the core stays free of metrics dependencies.
type Stats struct {
	AssignmentSolves    int
	AssignmentFallbacks int
}

var (
	statsMu sync.Mutex
	stats   Stats
)

func recordAssignment(fellBack bool) {
	statsMu.Lock()
	stats.AssignmentSolves++
	if fellBack {
		stats.AssignmentFallbacks++
	}
	statsMu.Unlock()
}

// ReadStats returns a snapshot of the accumulated counters.
func ReadStats() Stats {
	statsMu.Lock()
	defer statsMu.Unlock()
	return stats
}

// ResetStats clears the counters; tests use this between runs.
func ResetStats() {
	statsMu.Lock()
	stats = Stats{}
	statsMu.Unlock()
}
