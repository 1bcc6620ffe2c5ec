package builtin

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/gantry/pkg/discovery"
	"github.com/platinummonkey/gantry/pkg/lifecycle"
	"github.com/platinummonkey/gantry/pkg/plugin"
	"github.com/platinummonkey/gantry/pkg/registry"
)

// DiscoveryPlugin registers plugins produced by discovery sources
// during bootstrap, before the load order is resolved.
//
// Individual bad candidates are logged and skipped; a source failing
// outright aborts the launch.
type DiscoveryPlugin struct {
	*plugin.Static
	log     *logrus.Logger
	sources []discovery.Source
}

// NewDiscoveryPlugin creates the discovery plugin over the given
// sources, queried in order.
func NewDiscoveryPlugin(log *logrus.Logger, sources ...discovery.Source) *DiscoveryPlugin {
	if log == nil {
		log = logrus.New()
	}
	d := &DiscoveryPlugin{
		Static: plugin.NewStatic(&plugin.Descriptor{
			Name:        "discovery",
			Version:     builtinVersion,
			Description: "Registers plugins found by discovery sources",
		}),
		log:     log,
		sources: sources,
	}
	d.Contribute(lifecycle.OpBootstrap, plugin.Step{Name: "discovery.register", Handler: d.register})
	return d
}

func (d *DiscoveryPlugin) register(ctx context.Context, args ...any) (any, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("bootstrap step expects the registry as its argument")
	}
	reg, ok := args[0].(*registry.Registry)
	if !ok {
		return nil, fmt.Errorf("bootstrap step expects the registry as its argument")
	}

	registered := 0
	for _, source := range d.sources {
		candidates, err := source.Discover(ctx)
		if err != nil {
			return nil, fmt.Errorf("plugin discovery failed: %w", err)
		}

		for _, candidate := range candidates {
			if err := reg.Register(candidate); err != nil {
				var invalid *plugin.InvalidPluginError
				if errors.As(err, &invalid) {
					d.log.WithError(err).Warn("Skipping invalid discovered plugin")
					continue
				}
				// Already registered, usually a core plugin shadowing a
				// discovered one.
				d.log.WithError(err).Debug("Skipping discovered plugin")
				continue
			}
			registered++
		}
	}

	d.log.WithField("count", registered).Info("Registered discovered plugins")
	return registered, nil
}
