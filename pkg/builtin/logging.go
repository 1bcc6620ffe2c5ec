package builtin

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/gantry/pkg/lifecycle"
	"github.com/platinummonkey/gantry/pkg/observability"
	"github.com/platinummonkey/gantry/pkg/plugin"
)

// LoggingPlugin reconfigures the shared logger from its configuration
// section. Supported keys: level (debug, info, warn, error) and format
// (text, json). Because configuration is re-distributed on file
// changes, the log level can be changed at runtime.
type LoggingPlugin struct {
	*plugin.Static
	log *logrus.Logger
}

// NewLoggingPlugin creates the logging plugin controlling the given
// logger.
func NewLoggingPlugin(log *logrus.Logger) *LoggingPlugin {
	if log == nil {
		log = logrus.New()
	}
	l := &LoggingPlugin{
		Static: plugin.NewStatic(&plugin.Descriptor{
			Name:        "logging",
			Version:     builtinVersion,
			Description: "Configures the shared logger from configuration",
			Config: plugin.Config{
				"level":  "info",
				"format": "text",
			},
		}),
		log: log,
	}
	l.Contribute(lifecycle.OpReceiveConfig, plugin.Step{Name: "logging.configure", Handler: l.configure})
	return l
}

func (l *LoggingPlugin) configure(ctx context.Context, args ...any) (any, error) {
	if len(args) == 0 {
		return nil, nil
	}
	section, ok := args[0].(plugin.Config)
	if !ok || section == nil {
		return nil, nil
	}

	if level := section.GetString("level", ""); level != "" {
		l.log.SetLevel(observability.ParseLevel(level))
	}

	switch strings.ToLower(section.GetString("format", "")) {
	case "json":
		l.log.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		l.log.SetFormatter(&logrus.TextFormatter{})
	}

	return nil, nil
}
