package models

import "time"

// IngestRun summarises one pass over the active sources.
type IngestRun struct {
	RunID         string    `json:"run_id"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	Sources       int       `json:"sources"`
	Inserted      int       `json:"inserted"`
	Skipped       int       `json:"skipped"`
	Failed        int       `json:"failed"`
	FailedSources int       `json:"failed_sources"`
	Cancelled     bool      `json:"cancelled"`
}
