package store

import "time"

// Run is one extraction of a UserAssist source.
type Run struct {
	ID            string
	Source        string
	StartedAt     time.Time
	RecordCount   int
	ExcludedCount int
	SkippedCount  int
	OutputPath    string
}
