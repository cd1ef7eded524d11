package model

import "time"

// SourceSpec describes one named HTTP dataset: the URL to fetch and the
// query parameters sent with it. Specs are loaded once per run and never
// mutated afterwards.
type SourceSpec struct {
	URL    string            `json:"url" yaml:"url"`
	Params map[string]string `json:"params" yaml:"params"`
}

// RemoteConfig holds the FTP endpoint and credentials for the whole
// process lifetime.
type RemoteConfig struct {
	Host      string
	User      string
	Password  string
	TargetDir string
}

// Outcome is the result of processing a single source. Exactly one is
// produced per source per run and it is never modified after creation.
type Outcome struct {
	Source   string
	Success  bool
	Message  string
	ByteSize int64 // staged artifact size; zero when staging never happened
	Elapsed  time.Duration
}

// Summary aggregates one run's outcomes. Derived on demand, never stored.
type Summary struct {
	Total      int
	Succeeded  int
	Failed     int
	TotalBytes int64         // over succeeded outcomes only
	TotalTime  time.Duration // over all outcomes
}
