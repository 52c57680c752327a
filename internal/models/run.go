package models

import "time"

// Batch is what the dispatcher sends in a single webhook call
type Batch struct {
	Mode           HarvestMode
	DateFilter     string
	PreviousCursor string
	Records        []CanonicalRecord
	FetchedAt      time.Time
}

// RunResult summarises one pipeline run for logs and the CLI
type RunResult struct {
	RunID          string
	Mode           HarvestMode
	PreviousCursor string
	NewCursor      string
	Pages          int
	RowsScanned    int
	Records        int
	Delivered      bool
	Duration       time.Duration
}
