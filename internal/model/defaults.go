package model

import "time"

// Shared defaults used by both the CLI and the execution engine.
const (
	DefaultMaxWorkers    = 4
	DefaultFetchAttempts = 3
	DefaultFetchBackoff  = 1 * time.Second
	DefaultScheduleAt    = "22:00"
	DefaultTargetDir     = "/home/psyger/ftp/new"
)
