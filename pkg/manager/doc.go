// Package manager bridges the resolved plugin load order and the
// operation model.
//
// # Overview
//
// A Manager is built once resolution succeeds. For every operation any
// loaded plugin contributes to, it collects the contributing steps in
// plugin load order, applies per-step before/after ordering hints, and
// caches the resulting sequence. Ordering hints that form a cycle are
// a configuration error surfaced when the manager is built, not when
// the operation is invoked.
//
// Steps returns an empty sequence for operation names with no
// contributions; invoking such an operation is a no-op under CallAll
// semantics.
//
// The manager also carries a small LRU result cache plugins can use to
// memoize expensive per-operation computations (CachedResult /
// DropCache).
package manager
