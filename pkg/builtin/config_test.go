package builtin

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/gantry/pkg/lifecycle"
	"github.com/platinummonkey/gantry/pkg/manager"
	"github.com/platinummonkey/gantry/pkg/plugin"
	"github.com/platinummonkey/gantry/pkg/registry"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func buildManager(t *testing.T, plugins ...plugin.Plugin) *manager.Manager {
	t.Helper()
	reg := registry.New(quietLogger())
	for _, p := range plugins {
		require.NoError(t, reg.Register(p))
	}
	order, err := reg.Resolve()
	require.NoError(t, err)
	m, err := manager.New(order, quietLogger())
	require.NoError(t, err)
	return m
}

// configSink records the sections a plugin receives.
type configSink struct {
	*plugin.Static
	mu       sync.Mutex
	received []plugin.Config
}

func newConfigSink(name string, defaults plugin.Config) *configSink {
	s := &configSink{
		Static: plugin.NewStatic(&plugin.Descriptor{
			Name:    name,
			Version: "1.0.0",
			Config:  defaults,
		}),
	}
	s.Contribute(lifecycle.OpReceiveConfig, plugin.Step{
		Name: name + ".receive",
		Handler: func(ctx context.Context, args ...any) (any, error) {
			section, _ := args[0].(plugin.Config)
			s.mu.Lock()
			defer s.mu.Unlock()
			s.received = append(s.received, section)
			return nil, nil
		},
	})
	return s
}

func (s *configSink) last() plugin.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.received) == 0 {
		return nil
	}
	return s.received[len(s.received)-1]
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestConfigPlugin_DistributesPerPluginSections(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.yaml")
	writeConfig(t, path, `
alpha:
  endpoint: http://localhost:9000
beta:
  workers: 4
`)

	alpha := newConfigSink("alpha", nil)
	beta := newConfigSink("beta", nil)
	cfg := NewConfigPlugin(quietLogger(), path)
	mgr := buildManager(t, cfg, alpha, beta)

	_, err := cfg.distribute(context.Background(), mgr)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000", alpha.last().GetString("endpoint", ""))
	assert.Equal(t, 4, beta.last()["workers"])
	assert.NotContains(t, alpha.last(), "workers", "sections are per plugin")
}

func TestConfigPlugin_SectionMergedOverDescriptorDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.yaml")
	writeConfig(t, path, "alpha:\n  endpoint: http://override\n")

	alpha := newConfigSink("alpha", plugin.Config{
		"endpoint": "http://default",
		"timeout":  30,
	})
	cfg := NewConfigPlugin(quietLogger(), path)
	mgr := buildManager(t, cfg, alpha)

	_, err := cfg.distribute(context.Background(), mgr)
	require.NoError(t, err)

	assert.Equal(t, "http://override", alpha.last().GetString("endpoint", ""))
	assert.Equal(t, 30, alpha.last()["timeout"], "defaults survive where not overridden")
}

func TestConfigPlugin_LaterFilesOverrideEarlier(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.yaml")
	override := filepath.Join(dir, "override.yaml")
	writeConfig(t, base, "alpha:\n  a: 1\n  b: 2\n")
	writeConfig(t, override, "alpha:\n  b: 3\n")

	alpha := newConfigSink("alpha", nil)
	cfg := NewConfigPlugin(quietLogger(), base, override)
	mgr := buildManager(t, cfg, alpha)

	_, err := cfg.distribute(context.Background(), mgr)
	require.NoError(t, err)

	assert.Equal(t, 1, alpha.last()["a"])
	assert.Equal(t, 3, alpha.last()["b"])
}

func TestConfigPlugin_MissingFileSkipped(t *testing.T) {
	alpha := newConfigSink("alpha", nil)
	cfg := NewConfigPlugin(quietLogger(), filepath.Join(t.TempDir(), "absent.yaml"))
	mgr := buildManager(t, cfg, alpha)

	_, err := cfg.distribute(context.Background(), mgr)
	require.NoError(t, err)
	require.Len(t, alpha.received, 1)
}

func TestConfigPlugin_MalformedFileFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	writeConfig(t, path, "{broken")

	cfg := NewConfigPlugin(quietLogger(), path)
	mgr := buildManager(t, cfg)

	_, err := cfg.distribute(context.Background(), mgr)
	assert.Error(t, err)
}

func TestConfigPlugin_WatchReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.yaml")
	writeConfig(t, path, "alpha:\n  value: before\n")

	alpha := newConfigSink("alpha", nil)
	cfg := NewConfigPlugin(quietLogger(), path)
	mgr := buildManager(t, cfg, alpha)

	_, err := cfg.distribute(context.Background(), mgr)
	require.NoError(t, err)
	require.Equal(t, "before", alpha.last().GetString("value", ""))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		_, _ = cfg.watch(ctx, mgr)
	}()

	// Give the watcher a moment to attach before changing the file.
	time.Sleep(50 * time.Millisecond)
	writeConfig(t, path, "alpha:\n  value: after\n")

	assert.Eventually(t, func() bool {
		return alpha.last().GetString("value", "") == "after"
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-watchDone:
	case <-time.After(time.Second):
		t.Fatal("watch did not stop on cancellation")
	}
}
