// Package discovery finds candidate plugins outside the compiled-in
// core set.
//
// # Overview
//
// A Source produces candidate plugins for registration. StaticSource
// wraps an in-process list; FileSource walks the filesystem for plugin
// manifest files matching glob patterns and builds plugins from them
// through registered factories.
//
// Patterns support {variable} placeholders expanded combinatorially
// before globbing, so one pattern like
//
//	{user_home}/.myapp/plugins/*.plugin.yaml
//
// can cover several roots. The user_home variable is pre-registered;
// applications add their own with RegisterVariable, and environment
// variables fill in for unregistered names. Referencing a name that is
// neither registered nor set in the environment is an error, not an
// empty match.
//
// Manifests are small YAML documents naming the plugin, its version,
// its dependencies and an optional config block. Because handlers must
// be compiled in, a manifest either names a registered factory (by its
// plugin name) or yields a data-only plugin that carries config and
// dependencies but contributes no steps.
package discovery
