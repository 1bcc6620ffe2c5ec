package discovery

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/gantry/pkg/plugin"
)

// Manifest is the on-disk description of a plugin.
//
// Dependencies are written as "name" or "name constraint", e.g.
// "storage >=1.2.0".
type Manifest struct {
	Name         string        `yaml:"name"`
	Version      string        `yaml:"version"`
	Description  string        `yaml:"description"`
	Dependencies []string      `yaml:"dependencies"`
	Config       plugin.Config `yaml:"config"`

	// Path is where the manifest was loaded from. Not part of the
	// document.
	Path string `yaml:"-"`
}

// LoadManifest reads and parses one manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	if m.Name == "" {
		return nil, fmt.Errorf("manifest %s: missing plugin name", path)
	}
	if m.Version == "" {
		return nil, fmt.Errorf("manifest %s: missing plugin version", path)
	}

	m.Path = path
	return &m, nil
}

// Descriptor converts the manifest into a plugin descriptor.
func (m *Manifest) Descriptor() (*plugin.Descriptor, error) {
	deps := make([]plugin.Dependency, 0, len(m.Dependencies))
	for _, raw := range m.Dependencies {
		fields := strings.Fields(raw)
		if len(fields) == 0 {
			return nil, fmt.Errorf("manifest %s: empty dependency", m.Path)
		}
		deps = append(deps, plugin.Dependency{
			Name:       fields[0],
			Constraint: strings.Join(fields[1:], " "),
		})
	}

	return &plugin.Descriptor{
		Name:         m.Name,
		Version:      m.Version,
		Description:  m.Description,
		Dependencies: deps,
		Config:       m.Config,
	}, nil
}
