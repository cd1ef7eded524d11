// Package stage owns the local staging directory: one <name>.csv file per
// source, written before upload and removed on every exit path.
package stage

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Artifact is the staged local copy of one fetched dataset.
type Artifact struct {
	Path string
	Size int64
}

// Stager writes and removes staged artifacts inside one directory.
type Stager struct {
	Dir string // defaults to the working directory
}

// Write stages data as <name>.csv and reports its size.
func (s *Stager) Write(name string, data []byte) (Artifact, error) {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Artifact{}, fmt.Errorf("stage: create dir %s: %w", dir, err)
	}

	path := filepath.Join(dir, name+".csv")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return Artifact{}, fmt.Errorf("stage: write %s: %w", path, err)
	}

	log.Printf("stage: wrote %s (%d bytes)", path, len(data))
	return Artifact{Path: path, Size: int64(len(data))}, nil
}

// Remove deletes a staged artifact. Best-effort: a failed delete is logged
// as a warning so it can never mask the outcome of the processing step
// that preceded it.
func (s *Stager) Remove(a Artifact) {
	if a.Path == "" {
		return
	}
	if err := os.Remove(a.Path); err != nil {
		if os.IsNotExist(err) {
			return
		}
		log.Printf("stage: warning: remove %s: %v", a.Path, err)
		return
	}
	log.Printf("stage: removed %s", a.Path)
}
