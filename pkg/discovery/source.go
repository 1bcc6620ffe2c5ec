package discovery

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/gantry/pkg/plugin"
)

// Source produces candidate plugins for registration.
type Source interface {
	Discover(ctx context.Context) ([]plugin.Plugin, error)
}

// StaticSource yields a fixed, in-process plugin list.
type StaticSource struct {
	plugins []plugin.Plugin
}

// NewStaticSource wraps the given plugins as a Source.
func NewStaticSource(plugins ...plugin.Plugin) *StaticSource {
	return &StaticSource{plugins: plugins}
}

// Discover returns the wrapped plugins.
func (s *StaticSource) Discover(ctx context.Context) ([]plugin.Plugin, error) {
	out := make([]plugin.Plugin, len(s.plugins))
	copy(out, s.plugins)
	return out, nil
}

// Factory builds a plugin from its manifest. Factories are looked up
// by the manifest's plugin name.
type Factory func(m *Manifest) (plugin.Plugin, error)

// FileSource discovers plugins from manifest files matching glob
// patterns. Handlers cannot be loaded from disk, so a manifest either
// names a registered Factory or becomes a data-only plugin that
// carries config and dependencies but contributes no steps.
type FileSource struct {
	patterns *Patterns
	globs    []string
	log      *logrus.Logger

	mu        sync.RWMutex
	factories map[string]Factory
	excluded  map[string]bool
}

// NewFileSource creates a file source searching the given patterns.
// Patterns may contain {variable} placeholders.
func NewFileSource(patterns *Patterns, log *logrus.Logger, globPatterns ...string) *FileSource {
	if patterns == nil {
		patterns = NewPatterns()
	}
	if log == nil {
		log = logrus.New()
	}
	return &FileSource{
		patterns:  patterns,
		globs:     append([]string(nil), globPatterns...),
		log:       log,
		factories: make(map[string]Factory),
		excluded:  make(map[string]bool),
	}
}

// RegisterFactory binds a plugin name to the factory that builds it
// from its manifest.
func (s *FileSource) RegisterFactory(name string, f Factory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.factories[name] = f
}

// Exclude skips matching candidates during discovery. Each item is a
// manifest file basename, a plugin name, or "name@version".
func (s *FileSource) Exclude(items ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range items {
		s.excluded[item] = true
	}
}

func (s *FileSource) isExcluded(item string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.excluded[item]
}

func (s *FileSource) factory(name string) (Factory, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.factories[name]
	return f, ok
}

// Discover walks every pattern and builds a plugin per manifest file
// found. A malformed manifest is logged and skipped rather than
// failing the whole sweep; duplicate plugin names keep the first
// manifest found.
func (s *FileSource) Discover(ctx context.Context) ([]plugin.Plugin, error) {
	var plugins []plugin.Plugin
	seen := make(map[string]bool)

	for _, pattern := range s.globs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		files, err := s.patterns.MatchFiles(pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to match pattern %q: %w", pattern, err)
		}

		for _, file := range files {
			p, err := s.load(file, seen)
			if err != nil {
				s.log.WithError(err).WithField("file", file).Warn("Skipping plugin manifest")
				continue
			}
			if p != nil {
				plugins = append(plugins, p)
			}
		}
	}

	return plugins, nil
}

func (s *FileSource) load(file string, seen map[string]bool) (plugin.Plugin, error) {
	if s.isExcluded(filepath.Base(file)) {
		s.log.WithField("file", file).Debug("Manifest excluded by file name")
		return nil, nil
	}

	m, err := LoadManifest(file)
	if err != nil {
		return nil, err
	}

	if s.isExcluded(m.Name) || s.isExcluded(m.Name+"@"+m.Version) {
		s.log.WithFields(logrus.Fields{
			"plugin":  m.Name,
			"version": m.Version,
		}).Debug("Plugin excluded by name")
		return nil, nil
	}
	if seen[m.Name] {
		s.log.WithFields(logrus.Fields{
			"plugin": m.Name,
			"file":   file,
		}).Warn("Duplicate plugin manifest, keeping the first")
		return nil, nil
	}

	p, err := s.build(m)
	if err != nil {
		return nil, err
	}

	seen[m.Name] = true
	return p, nil
}

func (s *FileSource) build(m *Manifest) (plugin.Plugin, error) {
	if f, ok := s.factory(m.Name); ok {
		return f(m)
	}

	d, err := m.Descriptor()
	if err != nil {
		return nil, err
	}
	return plugin.NewStatic(d), nil
}
