package main

import (
	"time"

	"github.com/psyger-labs/ftpferry/internal/model"
)

const (
	defaultMaxWorkers    = model.DefaultMaxWorkers
	defaultFetchAttempts = model.DefaultFetchAttempts
	defaultFetchBackoff  = model.DefaultFetchBackoff
	defaultScheduleAt    = model.DefaultScheduleAt
	defaultTargetDir     = model.DefaultTargetDir
	defaultSourcesPath   = "config.json"
	defaultBindHost      = "127.0.0.1"
	defaultAPIPort       = 3000
)

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the CLI entrypoint.
type appConfig struct {
	FTPHost   string `mapstructure:"ftp-host"`
	FTPUser   string `mapstructure:"ftp-user"`
	FTPPass   string `mapstructure:"ftp-pass"`
	TargetDir string `mapstructure:"target-dir"`

	SourcesPath   string        `mapstructure:"sources"`
	StageDir      string        `mapstructure:"stage-dir"`
	MaxWorkers    int           `mapstructure:"max-workers"`
	FetchAttempts int           `mapstructure:"fetch-attempts"`
	FetchBackoff  time.Duration `mapstructure:"fetch-backoff"`
	ScheduleAt    string        `mapstructure:"schedule-at"`

	HistoryPath string `mapstructure:"history-path"`
	APIEnabled  bool   `mapstructure:"api-enabled"`
	APIPort     int    `mapstructure:"api-port"`
	APIAddr     string `mapstructure:"api-addr"`

	ConfigPath string `mapstructure:"-"` // not from config file
}

func (c appConfig) remote() model.RemoteConfig {
	return model.RemoteConfig{
		Host:      c.FTPHost,
		User:      c.FTPUser,
		Password:  c.FTPPass,
		TargetDir: c.TargetDir,
	}
}
