// Package sources loads the mapping of source name to fetch spec from a
// local configuration file.
package sources

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/psyger-labs/ftpferry/internal/model"
)

// Load reads the sources file at path and returns the name → spec mapping.
// YAML is selected by a .yaml/.yml extension, anything else is decoded as
// JSON (the original format). Source names must be unique because each one
// claims <name>.csv in the staging directory; uniqueness of map keys is
// enforced by the format itself, but empty names and URLs are rejected
// here before any source is touched.
func Load(path string) (map[string]model.SourceSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	specs := make(map[string]model.SourceSpec)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &specs); err != nil {
			return nil, fmt.Errorf("decode sources file %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(raw, &specs); err != nil {
			return nil, fmt.Errorf("decode sources file %s: %w", path, err)
		}
	}

	if len(specs) == 0 {
		return nil, fmt.Errorf("sources file %s defines no sources", path)
	}
	for name, spec := range specs {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("sources file %s contains an empty source name", path)
		}
		if strings.TrimSpace(spec.URL) == "" {
			return nil, fmt.Errorf("source %s: url is required", name)
		}
	}
	return specs, nil
}
