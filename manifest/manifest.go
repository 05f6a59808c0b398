// Package manifest reads template registries from YAML files.
//
//	base_url: https://cdn.example.com/views/
//	delims: ["{{", "}}"]
//	templates:
//	  greeting: /t/greeting.html
//	  footer: https://static.example.com/footer.html
package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/skosovsky/tplmgr"
)

// ErrInvalidManifest indicates the file is malformed or misses required fields.
var ErrInvalidManifest = errors.New("manifest: registry file is malformed")

// Manifest is a parsed registry file.
type Manifest struct {
	BaseURL   string            `yaml:"base_url"`
	Delims    []string          `yaml:"delims"`
	Templates map[string]string `yaml:"templates"`
}

// ParseBytes parses a YAML registry and validates it.
func ParseBytes(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// ParseFile reads and parses a registry file.
func ParseFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is supplied by the operator
	if err != nil {
		return nil, fmt.Errorf("manifest: read file: %w", err)
	}
	return ParseBytes(data)
}

// ParseFS reads and parses a registry from fs.FS (e.g. embed.FS).
func ParseFS(fsys fs.FS, name string) (*Manifest, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("manifest: read fs: %w", err)
	}
	return ParseBytes(data)
}

func (m *Manifest) validate() error {
	if len(m.Templates) == 0 {
		return fmt.Errorf("%w: missing templates", ErrInvalidManifest)
	}
	for name, loc := range m.Templates {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: empty template name", ErrInvalidManifest)
		}
		if strings.TrimSpace(loc) == "" {
			return fmt.Errorf("%w: template %q: empty location", ErrInvalidManifest, name)
		}
	}
	if m.Delims != nil {
		if len(m.Delims) != 2 || m.Delims[0] == "" || m.Delims[1] == "" {
			return fmt.Errorf("%w: delims must be two non-empty strings", ErrInvalidManifest)
		}
	}
	return nil
}

// Options returns the manager options the file configures.
func (m *Manifest) Options() []tplmgr.Option {
	var opts []tplmgr.Option
	if len(m.Delims) == 2 {
		opts = append(opts, tplmgr.WithDelims(m.Delims[0], m.Delims[1]))
	}
	return opts
}
