// Package pipeline composes fetch → stage → upload → cleanup for a single
// source and converts every failure mode into a uniform outcome.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/psyger-labs/ftpferry/internal/model"
	"github.com/psyger-labs/ftpferry/internal/stage"
)

// Fetcher retrieves one source's dataset.
type Fetcher interface {
	Fetch(ctx context.Context, name string, spec model.SourceSpec) ([]byte, error)
}

// Stager stages fetched bytes on the local filesystem.
type Stager interface {
	Write(name string, data []byte) (stage.Artifact, error)
	Remove(a stage.Artifact)
}

// Uploader is one open remote session.
type Uploader interface {
	EnsureDir(path string) error
	Upload(name string, r io.Reader) error
	Close()
}

// DialFunc opens a fresh remote session. Every upload attempt gets its own
// session; sessions are never shared across sources.
type DialFunc func(ctx context.Context) (Uploader, error)

// Processor runs the per-source pipeline. Safe for concurrent use: all
// per-source state lives in the Process call frame.
type Processor struct {
	Fetcher   Fetcher
	Stager    Stager
	Dial      DialFunc
	TargetDir string
}

// Process turns one named source into exactly one outcome. The staged
// artifact is gone by the time the outcome is returned, whichever step
// failed; cleanup only logs its own result and never changes the outcome.
func (p *Processor) Process(ctx context.Context, name string, spec model.SourceSpec) model.Outcome {
	start := time.Now()
	fail := func(size int64, format string, args ...any) model.Outcome {
		return model.Outcome{
			Source:   name,
			Message:  fmt.Sprintf(format, args...),
			ByteSize: size,
			Elapsed:  time.Since(start),
		}
	}

	data, err := p.Fetcher.Fetch(ctx, name, spec)
	if err != nil {
		return fail(0, "fetch: %v", err)
	}

	art, err := p.Stager.Write(name, data)
	if err != nil {
		return fail(0, "stage: %v", err)
	}
	defer p.Stager.Remove(art)

	if err := p.upload(ctx, art); err != nil {
		// The artifact was staged successfully even though the transfer
		// was not, so its size still travels with the outcome.
		return fail(art.Size, "%v", err)
	}

	return model.Outcome{
		Source:   name,
		Success:  true,
		Message:  "uploaded",
		ByteSize: art.Size,
		Elapsed:  time.Since(start),
	}
}

func (p *Processor) upload(ctx context.Context, art stage.Artifact) error {
	sess, err := p.Dial(ctx)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer sess.Close()

	if err := sess.EnsureDir(p.TargetDir); err != nil {
		return fmt.Errorf("ensure dir %s: %w", p.TargetDir, err)
	}

	f, err := os.Open(art.Path)
	if err != nil {
		return fmt.Errorf("open staged file: %w", err)
	}
	defer f.Close()

	name := filepath.Base(art.Path)
	log.Printf("pipeline: uploading %s (%d bytes)", name, art.Size)
	if err := sess.Upload(name, f); err != nil {
		return fmt.Errorf("upload %s: %w", name, err)
	}
	return nil
}
