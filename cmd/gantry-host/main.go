package main

import (
	"context"
	"flag"
	"os"
	"strings"

	"github.com/platinummonkey/gantry/pkg/builtin"
	"github.com/platinummonkey/gantry/pkg/config"
	"github.com/platinummonkey/gantry/pkg/discovery"
	"github.com/platinummonkey/gantry/pkg/lifecycle"
	"github.com/platinummonkey/gantry/pkg/observability"
	"github.com/platinummonkey/gantry/pkg/plugin"
	"github.com/platinummonkey/gantry/pkg/registry"
)

func main() {
	configFiles := flag.String("config", "", "Comma-separated YAML config files (overrides GANTRY_CONFIG_FILES)")
	patterns := flag.String("plugins", "", "Comma-separated plugin manifest patterns (overrides GANTRY_PLUGIN_PATTERNS)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("gantry-host: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *configFiles != "" {
		cfg.Files = splitList(*configFiles)
	}
	if *patterns != "" {
		cfg.Discovery.Patterns = splitList(*patterns)
	}

	log := observability.NewLogger()
	log.SetLevel(observability.ParseLevel(cfg.Observability.LogLevel))

	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics()
	}

	source := discovery.NewFileSource(discovery.NewPatterns(), log, cfg.Discovery.Patterns...)
	source.Exclude(cfg.Discovery.Exclude...)

	core := []plugin.Plugin{
		builtin.NewConfigPlugin(log, cfg.Files...),
		builtin.NewLoggingPlugin(log),
		builtin.NewDiscoveryPlugin(log, source),
	}
	if cfg.Server.Enabled {
		web := builtin.NewWebServerPlugin(log, metrics)
		web.SetListenAddr(cfg.Server.Listen)
		core = append(core, web)
	}

	orchestrator := lifecycle.New(registry.New(log),
		lifecycle.WithLogger(log),
		lifecycle.WithMetrics(metrics),
		lifecycle.WithGracePeriod(cfg.Lifecycle.GracePeriod),
		lifecycle.WithTerminateTimeout(cfg.Lifecycle.TerminateTimeout),
	)
	os.Exit(orchestrator.Launch(context.Background(), core))
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
