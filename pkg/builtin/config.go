package builtin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/gantry/pkg/lifecycle"
	"github.com/platinummonkey/gantry/pkg/manager"
	"github.com/platinummonkey/gantry/pkg/plugin"
)

const builtinVersion = "1.0.0"

// ConfigPlugin loads YAML configuration files and hands every plugin
// its own top-level section through receive_config.
//
// Files are merged in argument order, later files overriding earlier
// ones key-wise. A plugin's section is additionally merged over the
// defaults declared in its descriptor. While the application runs the
// files are watched and changes are re-distributed.
type ConfigPlugin struct {
	*plugin.Static
	log   *logrus.Logger
	paths []string

	mu     sync.RWMutex
	merged plugin.Config
}

// NewConfigPlugin creates the config plugin over the given YAML files.
// Files that do not exist are skipped, which makes optional overrides
// cheap to support.
func NewConfigPlugin(log *logrus.Logger, paths ...string) *ConfigPlugin {
	if log == nil {
		log = logrus.New()
	}
	c := &ConfigPlugin{
		Static: plugin.NewStatic(&plugin.Descriptor{
			Name:        "config",
			Version:     builtinVersion,
			Description: "Loads YAML configuration and distributes per-plugin sections",
		}),
		log:   log,
		paths: append([]string(nil), paths...),
	}
	c.Contribute(lifecycle.OpInit, plugin.Step{Name: "config.distribute", Handler: c.distribute})
	c.Contribute(lifecycle.OpRun, plugin.Step{Name: "config.watch", Handler: c.watch})
	return c
}

// Config returns the currently loaded, merged configuration.
func (c *ConfigPlugin) Config() plugin.Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.merged
}

func (c *ConfigPlugin) setConfig(merged plugin.Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.merged = merged
}

// load reads and merges every configured file.
func (c *ConfigPlugin) load() (plugin.Config, error) {
	merged := plugin.Config{}
	for _, path := range c.paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				c.log.WithField("file", path).Debug("Config file absent, skipping")
				continue
			}
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		var doc plugin.Config
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		merged = plugin.MergeConfig(merged, doc)
	}
	return merged, nil
}

func (c *ConfigPlugin) distribute(ctx context.Context, args ...any) (any, error) {
	mgr, err := managerArg(args)
	if err != nil {
		return nil, err
	}

	merged, err := c.load()
	if err != nil {
		return nil, err
	}
	c.setConfig(merged)
	return nil, c.distributeTo(ctx, mgr, merged)
}

// distributeTo invokes every receive_config step with its own plugin's
// section merged over the descriptor defaults.
func (c *ConfigPlugin) distributeTo(ctx context.Context, mgr *manager.Manager, merged plugin.Config) error {
	defaults := make(map[string]plugin.Config)
	for _, p := range mgr.Plugins() {
		defaults[p.Descriptor().Name] = p.Descriptor().Config
	}

	steps, err := mgr.Steps(lifecycle.OpReceiveConfig)
	if err != nil {
		return err
	}
	for _, step := range steps {
		section := sectionFor(merged, step.Plugin)
		section = plugin.MergeConfig(defaults[step.Plugin], section)
		if _, err := step.Handler(ctx, section); err != nil {
			return fmt.Errorf("failed to deliver config to %s: %w", step.String(), err)
		}
	}
	return nil
}

func sectionFor(merged plugin.Config, name string) plugin.Config {
	switch section := merged[name].(type) {
	case plugin.Config:
		return section
	case map[string]any:
		return plugin.Config(section)
	default:
		return nil
	}
}

// watch re-loads and re-distributes the configuration whenever one of
// the files changes, until the run context is cancelled.
func (c *ConfigPlugin) watch(ctx context.Context, args ...any) (any, error) {
	mgr, err := managerArg(args)
	if err != nil {
		return nil, err
	}

	if len(c.paths) == 0 {
		<-ctx.Done()
		return nil, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer watcher.Close()

	// Watch directories rather than files so editors that replace the
	// file still trigger events.
	watched := make(map[string]bool, len(c.paths))
	dirs := make(map[string]bool)
	for _, path := range c.paths {
		watched[filepath.Clean(path)] = true
		dir := filepath.Dir(path)
		if dirs[dir] {
			continue
		}
		dirs[dir] = true
		if err := watcher.Add(dir); err != nil {
			c.log.WithError(err).WithField("dir", dir).Warn("Cannot watch config directory")
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil, nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil, nil
			}
			if !watched[filepath.Clean(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			c.reload(ctx, mgr, event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil, nil
			}
			c.log.WithError(err).Warn("Config watcher error")
		}
	}
}

func (c *ConfigPlugin) reload(ctx context.Context, mgr *manager.Manager, changed string) {
	merged, err := c.load()
	if err != nil {
		c.log.WithError(err).WithField("file", changed).Warn("Config reload failed, keeping previous configuration")
		return
	}
	c.setConfig(merged)
	if err := c.distributeTo(ctx, mgr, merged); err != nil {
		c.log.WithError(err).Warn("Config re-distribution failed")
		return
	}
	c.log.WithField("file", changed).Info("Configuration reloaded")
}

// managerArg extracts the plugin manager passed to init/run steps.
func managerArg(args []any) (*manager.Manager, error) {
	if len(args) > 0 {
		if mgr, ok := args[0].(*manager.Manager); ok {
			return mgr, nil
		}
	}
	return nil, fmt.Errorf("step expects the plugin manager as its argument")
}
