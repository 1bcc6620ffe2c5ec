// Package registry validates plugin descriptors and resolves the order
// in which plugins are loaded.
//
// # Overview
//
// Registry collects candidate plugins, dropping malformed ones with a
// warning, and Resolve computes a LoadOrder: a dependency-respecting
// total order over the registered set. For every dependency edge A -> B
// the resolved order places B before A. Ties are broken by registration
// order so that the load order is reproducible across runs.
//
// # Resolution errors
//
// Resolve fails with one of three fatal errors:
//
//   - CircularDependencyError: a dependency cycle exists; the error
//     lists the cycle's member plugins
//   - UnsatisfiedDependencyError: a declared dependency name is not
//     registered
//   - VersionConflictError: the registered version of a dependency does
//     not satisfy the declared constraint
//
// Version constraints use semantic version ranges (">= 1.2.0",
// "~1.2", "^1.0.0", ...). Resolution is a pure function of the
// registered set: two calls on an unchanged registry yield the same
// order.
package registry
