package main

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Build variables - set by ldflags during build.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Run trigger and processing mode selectors.
const (
	runManual   = "manual"
	runSchedule = "schedule"

	procSequential = "sequential"
	procParallel   = "parallel"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags] <manual|schedule> [sequential|parallel]\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	var configPath string
	var showVersion bool

	flag.Usage = usage
	flag.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/ftpferry/config.yml)")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("ftpferry - Web to FTP Transfer Pipeline\n")
		fmt.Printf("  Version: %s\n", version)
		fmt.Printf("  Commit:  %s\n", commit)
		fmt.Printf("  Built:   %s\n", buildTime)
		return
	}

	runMode, procMode, err := parseModes(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := runApp(cfg, runMode, procMode); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// parseModes validates the two positional selectors. Invalid values abort
// before any source is touched.
func parseModes(args []string) (runMode, procMode string, err error) {
	if len(args) < 1 {
		return "", "", errors.New("missing run mode (manual or schedule)")
	}
	runMode = args[0]
	if runMode != runManual && runMode != runSchedule {
		return "", "", fmt.Errorf("invalid run mode %q (want manual or schedule)", runMode)
	}

	procMode = procSequential
	if len(args) > 1 {
		procMode = args[1]
	}
	if procMode != procSequential && procMode != procParallel {
		return "", "", fmt.Errorf("invalid processing mode %q (want sequential or parallel)", procMode)
	}

	if len(args) > 2 {
		return "", "", fmt.Errorf("unexpected argument %q", args[2])
	}
	return runMode, procMode, nil
}

func loadConfig(configPath string) (appConfig, error) {
	var cfg appConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("FTPFERRY")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	// The FTP endpoint is taken from the environment under its historical
	// names; FTPHOST/FTPUSER/FTPPASS are required, FTPTARGET optional.
	_ = v.BindEnv("ftp-host", "FTPHOST")
	_ = v.BindEnv("ftp-user", "FTPUSER")
	_ = v.BindEnv("ftp-pass", "FTPPASS")
	_ = v.BindEnv("target-dir", "FTPTARGET")

	v.SetDefault("target-dir", defaultTargetDir)
	v.SetDefault("sources", defaultSourcesPath)
	v.SetDefault("stage-dir", ".")
	v.SetDefault("max-workers", defaultMaxWorkers)
	v.SetDefault("fetch-attempts", defaultFetchAttempts)
	v.SetDefault("fetch-backoff", defaultFetchBackoff)
	v.SetDefault("schedule-at", defaultScheduleAt)
	v.SetDefault("history-path", "")
	v.SetDefault("api-enabled", false)
	v.SetDefault("api-port", defaultAPIPort)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "ftpferry", "config.yml"))
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	cfg.ConfigPath = v.ConfigFileUsed()

	for env, val := range map[string]string{
		"FTPHOST": cfg.FTPHost,
		"FTPUSER": cfg.FTPUser,
		"FTPPASS": cfg.FTPPass,
	} {
		if strings.TrimSpace(val) == "" {
			return cfg, fmt.Errorf("missing required environment variable %s", env)
		}
	}
	if cfg.MaxWorkers <= 0 {
		return cfg, fmt.Errorf("invalid max-workers: %d", cfg.MaxWorkers)
	}
	if cfg.FetchAttempts <= 0 {
		return cfg, fmt.Errorf("invalid fetch-attempts: %d", cfg.FetchAttempts)
	}
	if cfg.APIPort <= 0 || cfg.APIPort > 65535 {
		return cfg, fmt.Errorf("invalid api-port: %d", cfg.APIPort)
	}
	if cfg.APIAddr == "" {
		cfg.APIAddr = net.JoinHostPort(defaultBindHost, strconv.Itoa(cfg.APIPort))
	}

	return cfg, nil
}
