package main

import (
	"path/filepath"
	"testing"
)

func TestParseModes(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		runMode  string
		procMode string
		wantErr  bool
	}{
		{"manual default", []string{"manual"}, runManual, procSequential, false},
		{"manual parallel", []string{"manual", "parallel"}, runManual, procParallel, false},
		{"schedule sequential", []string{"schedule", "sequential"}, runSchedule, procSequential, false},
		{"no args", nil, "", "", true},
		{"bad run mode", []string{"daily"}, "", "", true},
		{"bad proc mode", []string{"manual", "threads"}, "", "", true},
		{"extra arg", []string{"manual", "parallel", "now"}, "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runMode, procMode, err := parseModes(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseModes(%v) accepted", tt.args)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseModes(%v): %v", tt.args, err)
			}
			if runMode != tt.runMode || procMode != tt.procMode {
				t.Errorf("parseModes(%v) = %s, %s; want %s, %s", tt.args, runMode, procMode, tt.runMode, tt.procMode)
			}
		})
	}
}

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("FTPHOST", "ftp.example.com")
	t.Setenv("FTPUSER", "psyger")
	t.Setenv("FTPPASS", "secret")
}

func TestLoadConfigFromEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("FTPTARGET", "/srv/drop")

	cfg, err := loadConfig(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.FTPHost != "ftp.example.com" || cfg.FTPUser != "psyger" || cfg.FTPPass != "secret" {
		t.Errorf("remote config = %+v", cfg.remote())
	}
	if cfg.TargetDir != "/srv/drop" {
		t.Errorf("TargetDir = %q, want /srv/drop", cfg.TargetDir)
	}
	if cfg.MaxWorkers != defaultMaxWorkers {
		t.Errorf("MaxWorkers = %d, want default %d", cfg.MaxWorkers, defaultMaxWorkers)
	}
	if cfg.APIAddr == "" {
		t.Error("APIAddr not derived from api-port")
	}
}

func TestLoadConfigDefaultTargetDir(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := loadConfig(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.TargetDir != defaultTargetDir {
		t.Errorf("TargetDir = %q, want default %q", cfg.TargetDir, defaultTargetDir)
	}
}

func TestLoadConfigMissingEnvIsFatal(t *testing.T) {
	t.Setenv("FTPHOST", "ftp.example.com")
	t.Setenv("FTPUSER", "psyger")
	t.Setenv("FTPPASS", "")

	if _, err := loadConfig(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Fatal("loadConfig accepted a missing FTPPASS")
	}
}
