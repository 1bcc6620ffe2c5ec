// Package plugin defines the core plugin model for the gantry runtime.
//
// # Overview
//
// A plugin is a named, versioned unit of business logic that contributes
// implementations ("steps") to named extension points ("operations").
// This package holds the leaf data types shared by the registry, the
// operation model and the lifecycle orchestrator:
//
// Descriptor: plugin identity, version, dependencies and config
// Step: one plugin's contribution to one operation
// Plugin: the capability interface all plugins implement
//
// # Declaring a plugin
//
// Most plugins are built from a Static value:
//
//	p := plugin.NewStatic(&plugin.Descriptor{
//		Name:    "greeter",
//		Version: "1.0.0",
//		Dependencies: []plugin.Dependency{
//			{Name: "config", Constraint: ">= 1.0.0"},
//		},
//	})
//	p.Contribute("init", plugin.Step{
//		Handler: func(ctx context.Context, args ...any) (any, error) {
//			return nil, nil
//		},
//	})
//
// Step registration is explicit: a plugin declares which operation each
// step implements via Contribute. There is no name-matching reflection.
//
// # Related Packages
//
//   - pkg/registry: validates descriptors and resolves load order
//   - pkg/operation: composes steps into invocable operations
package plugin
