package pipeline

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/psyger-labs/ftpferry/internal/model"
	"github.com/psyger-labs/ftpferry/internal/stage"
)

type fakeFetcher struct {
	data []byte
	err  error
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string, _ model.SourceSpec) ([]byte, error) {
	return f.data, f.err
}

type fakeSession struct {
	ensureErr error
	uploadErr error
	uploaded  map[string]string
	closed    int
}

func (s *fakeSession) EnsureDir(string) error { return s.ensureErr }

func (s *fakeSession) Upload(name string, r io.Reader) error {
	if s.uploadErr != nil {
		return s.uploadErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if s.uploaded == nil {
		s.uploaded = make(map[string]string)
	}
	s.uploaded[name] = string(data)
	return nil
}

func (s *fakeSession) Close() { s.closed++ }

func newProcessor(t *testing.T, fetcher Fetcher, sess *fakeSession, dialErr error) (*Processor, *stage.Stager) {
	t.Helper()
	stager := &stage.Stager{Dir: t.TempDir()}
	return &Processor{
		Fetcher: fetcher,
		Stager:  stager,
		Dial: func(context.Context) (Uploader, error) {
			if dialErr != nil {
				return nil, dialErr
			}
			return sess, nil
		},
		TargetDir: "/out",
	}, stager
}

func assertNoArtifact(t *testing.T, stager *stage.Stager, name string) {
	t.Helper()
	if _, err := os.Stat(filepath.Join(stager.Dir, name+".csv")); !os.IsNotExist(err) {
		t.Fatalf("artifact %s.csv still exists after processing: %v", name, err)
	}
}

func TestProcessSuccess(t *testing.T) {
	sess := &fakeSession{}
	p, stager := newProcessor(t, &fakeFetcher{data: []byte("a,b\n1,2\n")}, sess, nil)

	out := p.Process(context.Background(), "covid", model.SourceSpec{URL: "http://x"})
	if !out.Success {
		t.Fatalf("outcome failed: %s", out.Message)
	}
	if out.ByteSize != 8 {
		t.Errorf("ByteSize = %d, want 8", out.ByteSize)
	}
	if out.Elapsed <= 0 {
		t.Errorf("Elapsed = %v, want > 0", out.Elapsed)
	}
	if sess.uploaded["covid.csv"] != "a,b\n1,2\n" {
		t.Errorf("uploaded = %v", sess.uploaded)
	}
	if sess.closed != 1 {
		t.Errorf("session closed %d times, want 1", sess.closed)
	}
	assertNoArtifact(t, stager, "covid")
}

func TestProcessFetchFailure(t *testing.T) {
	p, stager := newProcessor(t, &fakeFetcher{err: errors.New("boom")}, &fakeSession{}, nil)

	out := p.Process(context.Background(), "covid", model.SourceSpec{})
	if out.Success {
		t.Fatal("outcome succeeded despite fetch failure")
	}
	if !strings.Contains(out.Message, "fetch") {
		t.Errorf("message = %q, want fetch error", out.Message)
	}
	if out.ByteSize != 0 {
		t.Errorf("ByteSize = %d, want 0 (nothing staged)", out.ByteSize)
	}
	assertNoArtifact(t, stager, "covid")
}

func TestProcessDialFailureCleansArtifact(t *testing.T) {
	p, stager := newProcessor(t, &fakeFetcher{data: []byte("abc")}, nil, errors.New("refused"))

	out := p.Process(context.Background(), "covid", model.SourceSpec{})
	if out.Success {
		t.Fatal("outcome succeeded despite connect failure")
	}
	if !strings.Contains(out.Message, "connect") {
		t.Errorf("message = %q, want connect error", out.Message)
	}
	if out.ByteSize != 3 {
		t.Errorf("ByteSize = %d, want staged size 3", out.ByteSize)
	}
	assertNoArtifact(t, stager, "covid")
}

func TestProcessEnsureDirFailure(t *testing.T) {
	sess := &fakeSession{ensureErr: errors.New("550 denied")}
	p, stager := newProcessor(t, &fakeFetcher{data: []byte("abc")}, sess, nil)

	out := p.Process(context.Background(), "covid", model.SourceSpec{})
	if out.Success {
		t.Fatal("outcome succeeded despite directory failure")
	}
	if sess.closed != 1 {
		t.Errorf("session closed %d times, want 1", sess.closed)
	}
	assertNoArtifact(t, stager, "covid")
}

func TestProcessUploadFailureKeepsStagedSize(t *testing.T) {
	sess := &fakeSession{uploadErr: errors.New("426 broken pipe")}
	p, stager := newProcessor(t, &fakeFetcher{data: []byte("abcde")}, sess, nil)

	out := p.Process(context.Background(), "covid", model.SourceSpec{})
	if out.Success {
		t.Fatal("outcome succeeded despite upload failure")
	}
	if out.ByteSize != 5 {
		t.Errorf("ByteSize = %d, want staged size 5", out.ByteSize)
	}
	if sess.closed != 1 {
		t.Errorf("session closed %d times, want 1", sess.closed)
	}
	assertNoArtifact(t, stager, "covid")
}

type failingStager struct{}

func (failingStager) Write(string, []byte) (stage.Artifact, error) {
	return stage.Artifact{}, errors.New("disk full")
}
func (failingStager) Remove(stage.Artifact) {}

func TestProcessStageFailureSkipsRemote(t *testing.T) {
	dialed := false
	p := &Processor{
		Fetcher: &fakeFetcher{data: []byte("abc")},
		Stager:  failingStager{},
		Dial: func(context.Context) (Uploader, error) {
			dialed = true
			return nil, errors.New("unreachable")
		},
		TargetDir: "/out",
	}

	out := p.Process(context.Background(), "covid", model.SourceSpec{})
	if out.Success {
		t.Fatal("outcome succeeded despite staging failure")
	}
	if dialed {
		t.Error("remote session opened although staging failed")
	}
	if !strings.Contains(out.Message, "stage") {
		t.Errorf("message = %q, want staging error", out.Message)
	}
}
