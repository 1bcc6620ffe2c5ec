// Package config loads the host process configuration from the
// environment.
//
// # Overview
//
// Everything about the host itself, as opposed to the plugins it
// loads, is configured through GANTRY_* environment variables:
//
//	GANTRY_LISTEN             web server listen address
//	GANTRY_WEB_ENABLED        serve the introspection endpoints
//	GANTRY_METRICS_ENABLED    expose Prometheus metrics
//	GANTRY_CONFIG_FILES       comma-separated YAML config file paths
//	GANTRY_PLUGIN_PATTERNS    comma-separated manifest search patterns
//	GANTRY_PLUGIN_EXCLUDE     comma-separated discovery exclusions
//	GANTRY_GRACE_PERIOD       wait for cancelled run steps
//	GANTRY_TERMINATE_TIMEOUT  bound on the terminate phase
//	GANTRY_LOG_LEVEL          debug, info, warn, error
//	GANTRY_LOG_FORMAT         text or json
//
// Plugin configuration lives in the YAML files handled by the config
// plugin, not here.
package config
