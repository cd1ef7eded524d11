package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/psyger-labs/ftpferry/internal/engine"
	"github.com/psyger-labs/ftpferry/internal/fetch"
	"github.com/psyger-labs/ftpferry/internal/history"
	"github.com/psyger-labs/ftpferry/internal/httpserver"
	"github.com/psyger-labs/ftpferry/internal/model"
	"github.com/psyger-labs/ftpferry/internal/pipeline"
	"github.com/psyger-labs/ftpferry/internal/remote"
	"github.com/psyger-labs/ftpferry/internal/report"
	"github.com/psyger-labs/ftpferry/internal/sched"
	"github.com/psyger-labs/ftpferry/internal/sources"
	"github.com/psyger-labs/ftpferry/internal/stage"
)

// runApp wires the pipeline and drives it once or on the daily schedule.
func runApp(cfg appConfig, runMode, procMode string) error {
	cleanupLogger := configureRuntimeLogger()
	defer cleanupLogger()

	hist, err := history.Open(cfg.HistoryPath)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer hist.Close()

	proc := &pipeline.Processor{
		Fetcher: fetch.New(cfg.FetchAttempts, cfg.FetchBackoff),
		Stager:  &stage.Stager{Dir: cfg.StageDir},
		Dial: func(ctx context.Context) (pipeline.Uploader, error) {
			return remote.Dial(ctx, cfg.remote())
		},
		TargetDir: cfg.TargetDir,
	}
	eng := &engine.Engine{Proc: proc, MaxWorkers: cfg.MaxWorkers}

	// ctx governs only the scheduler loop and the status API. A run in
	// progress always completes its submitted work: cancellation must
	// never reach a source mid-flight, so runPipeline takes no context.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		log.Print("shutting down, letting the current run finish")
		cancel()
	}()

	if cfg.APIEnabled {
		api := httpserver.NewServer(cfg.APIAddr, hist)
		if err := api.Start(); err != nil {
			return fmt.Errorf("start status API: %w", err)
		}
		defer api.Stop()
		log.Printf("status API listening on %s", cfg.APIAddr)
	}

	if runMode == runManual {
		log.Print("running pipeline manually")
		return runPipeline(eng, hist, cfg.SourcesPath, procMode)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sched.Daily(gctx, cfg.ScheduleAt, func() {
			// A failed scheduled run is reported and the loop keeps going;
			// only startup configuration problems are fatal.
			if err := runPipeline(eng, hist, cfg.SourcesPath, procMode); err != nil {
				log.Printf("scheduled run failed: %v", err)
			}
		})
	})
	return g.Wait()
}

// runPipeline executes one full run over freshly loaded sources and records
// it. It deliberately takes no caller context: work submitted to a run is
// never cancelled mid-flight, so every source processes against a
// background context regardless of shutdown state.
func runPipeline(eng *engine.Engine, hist *history.Store, sourcesPath, procMode string) error {
	specs, err := sources.Load(sourcesPath)
	if err != nil {
		return fmt.Errorf("load sources: %w", err)
	}
	log.Printf("loaded %d sources from %s", len(specs), sourcesPath)

	started := time.Now()
	ctx := context.Background()
	var outcomes map[string]model.Outcome
	if procMode == procParallel {
		outcomes = eng.RunParallel(ctx, specs)
	} else {
		outcomes = eng.RunSequential(ctx, specs)
	}

	report.Log(report.Summarize(outcomes))
	if err := hist.RecordRun(started, procMode, outcomes); err != nil {
		log.Printf("history: record run: %v", err)
	}
	return nil
}

// configureRuntimeLogger mirrors console output into an append-mode log
// file in the working directory. Returns a cleanup func for the file.
func configureRuntimeLogger() func() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	f, err := os.OpenFile("ftpferry.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	log.SetOutput(io.MultiWriter(os.Stderr, f))
	return func() {
		log.SetOutput(os.Stderr)
		_ = f.Close()
	}
}
