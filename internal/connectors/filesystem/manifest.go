package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// Manifest lists corpus documents with explicit IDs and metadata.
//
//	metadata:
//	  team: docs
//	documents:
//	  - id: intro
//	    path: guides/intro.md
//	    metadata:
//	      lang: en
type Manifest struct {
	// Metadata is applied to every document; entries override it.
	Metadata  map[string]string `yaml:"metadata"`
	Documents []ManifestEntry   `yaml:"documents"`
}

// ManifestEntry describes one document.
type ManifestEntry struct {
	ID       string            `yaml:"id"`
	Path     string            `yaml:"path"`
	Metadata map[string]string `yaml:"metadata"`
}

// LoadManifest reads a YAML manifest. Relative document paths are resolved
// against the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(expandPath(path))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}

	base := filepath.Dir(expandPath(path))
	for i := range m.Documents {
		p := expandPath(m.Documents[i].Path)
		if !filepath.IsAbs(p) {
			p = filepath.Join(base, p)
		}
		m.Documents[i].Path = p
	}
	return m, nil
}

// ParseManifest decodes and validates manifest YAML.
// Top-level metadata is merged into every entry.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: parse yaml: %v", domain.ErrInvalidInput, err)
	}

	ids := make(map[string]int, len(m.Documents))
	for i := range m.Documents {
		e := &m.Documents[i]
		e.ID = strings.TrimSpace(e.ID)
		e.Path = strings.TrimSpace(e.Path)
		if e.Path == "" {
			return nil, fmt.Errorf("%w: document %d has no path", domain.ErrInvalidInput, i)
		}
		if e.ID != "" {
			if prev, ok := ids[e.ID]; ok {
				return nil, fmt.Errorf("%w: id %q used by documents %d and %d", domain.ErrInvalidInput, e.ID, prev, i)
			}
			ids[e.ID] = i
		}

		merged := make(map[string]string, len(m.Metadata)+len(e.Metadata))
		for k, v := range m.Metadata {
			merged[k] = v
		}
		for k, v := range e.Metadata {
			merged[k] = v
		}
		e.Metadata = merged
	}
	return &m, nil
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
