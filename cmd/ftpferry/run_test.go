package main

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/psyger-labs/ftpferry/internal/engine"
	"github.com/psyger-labs/ftpferry/internal/model"
)

// cancelAwareProcessor records the liveness of the context each source is
// processed with and fails any source whose context is already dead.
type cancelAwareProcessor struct {
	mu       sync.Mutex
	ctxErrs  []error
	observed []string
}

func (p *cancelAwareProcessor) Process(ctx context.Context, name string, _ model.SourceSpec) model.Outcome {
	p.mu.Lock()
	p.ctxErrs = append(p.ctxErrs, ctx.Err())
	p.observed = append(p.observed, name)
	p.mu.Unlock()

	if ctx.Err() != nil {
		return model.Outcome{Source: name, Message: "context dead: " + ctx.Err().Error()}
	}
	return model.Outcome{Source: name, Success: true, ByteSize: 1}
}

func writeSourcesFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"alpha": {"url": "http://example.com/alpha.csv"},
		"beta":  {"url": "http://example.com/beta.csv"}
	}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write sources file: %v", err)
	}
	return path
}

func TestRunPipelineUnaffectedByShutdown(t *testing.T) {
	// Shutdown has already been requested before the run starts; the
	// sources must still be processed with a live context and succeed.
	shutdownCtx, cancel := context.WithCancel(context.Background())
	cancel()
	<-shutdownCtx.Done()

	p := &cancelAwareProcessor{}
	eng := &engine.Engine{Proc: p, MaxWorkers: 2}

	if err := runPipeline(eng, nil, writeSourcesFile(t), procParallel); err != nil {
		t.Fatalf("runPipeline: %v", err)
	}

	if len(p.observed) != 2 {
		t.Fatalf("processed %d sources, want 2", len(p.observed))
	}
	for i, err := range p.ctxErrs {
		if err != nil {
			t.Errorf("source %s processed with a cancelled context: %v", p.observed[i], err)
		}
	}
}

func TestRunPipelineSequentialMode(t *testing.T) {
	p := &cancelAwareProcessor{}
	eng := &engine.Engine{Proc: p}

	if err := runPipeline(eng, nil, writeSourcesFile(t), procSequential); err != nil {
		t.Fatalf("runPipeline: %v", err)
	}
	if len(p.observed) != 2 {
		t.Fatalf("processed %d sources, want 2", len(p.observed))
	}
}

func TestRunPipelineMissingSourcesFile(t *testing.T) {
	eng := &engine.Engine{Proc: &cancelAwareProcessor{}}

	err := runPipeline(eng, nil, filepath.Join(t.TempDir(), "absent.json"), procSequential)
	if err == nil {
		t.Fatal("runPipeline accepted a missing sources file")
	}
}
