package registry

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/platinummonkey/gantry/pkg/plugin"
)

// LoadOrder is the resolved, dependency-respecting plugin sequence. For
// every dependency edge A -> B, B precedes A. A LoadOrder is immutable
// once computed and may be read concurrently without locking.
type LoadOrder struct {
	plugins []plugin.Plugin
}

// Plugins returns the ordered plugin sequence.
func (lo *LoadOrder) Plugins() []plugin.Plugin {
	out := make([]plugin.Plugin, len(lo.plugins))
	copy(out, lo.plugins)
	return out
}

// Len returns the number of loaded plugins.
func (lo *LoadOrder) Len() int { return len(lo.plugins) }

// Names returns the plugin names in load order.
func (lo *LoadOrder) Names() []string {
	names := make([]string, len(lo.plugins))
	for i, p := range lo.plugins {
		names[i] = p.Descriptor().Name
	}
	return names
}

// Resolve computes the load order for the registered plugin set.
//
// The order is a topological sort of the dependency graph with ties
// broken by registration order, so repeated calls on an unchanged
// registry return the same sequence. Resolution fails with
// *UnsatisfiedDependencyError, *VersionConflictError or
// *CircularDependencyError.
func (r *Registry) Resolve() (*LoadOrder, error) {
	r.mu.RLock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	plugins := make(map[string]plugin.Plugin, len(r.plugins))
	for name, p := range r.plugins {
		plugins[name] = p
	}
	r.mu.RUnlock()

	// Dependency presence and version constraints first, in
	// registration order so the first reported violation is stable.
	deps := make(map[string][]string, len(names))
	for _, name := range names {
		d := plugins[name].Descriptor()
		for _, dep := range d.Dependencies {
			target, ok := plugins[dep.Name]
			if !ok {
				return nil, &UnsatisfiedDependencyError{Plugin: name, Dependency: dep.Name}
			}
			if err := checkConstraint(name, dep, target.Descriptor().Version); err != nil {
				return nil, err
			}
			deps[name] = append(deps[name], dep.Name)
		}
	}

	// Kahn's algorithm. The ready plugin with the lowest registration
	// index is emitted next, which makes the order deterministic.
	remaining := make(map[string]int, len(names))
	dependents := make(map[string][]string, len(names))
	for _, name := range names {
		remaining[name] = len(deps[name])
		for _, dep := range deps[name] {
			dependents[dep] = append(dependents[dep], name)
		}
	}

	ordered := make([]plugin.Plugin, 0, len(names))
	emitted := make(map[string]bool, len(names))
	for len(ordered) < len(names) {
		next := ""
		for _, name := range names {
			if !emitted[name] && remaining[name] == 0 {
				next = name
				break
			}
		}
		if next == "" {
			return nil, &CircularDependencyError{Members: findCycle(names, deps, emitted)}
		}

		emitted[next] = true
		ordered = append(ordered, plugins[next])
		for _, dependent := range dependents[next] {
			remaining[dependent]--
		}
	}

	return &LoadOrder{plugins: ordered}, nil
}

// checkConstraint verifies that version satisfies the dependency's
// declared range. An empty constraint matches any version.
func checkConstraint(pluginName string, dep plugin.Dependency, version string) error {
	if dep.Constraint == "" {
		return nil
	}

	c, err := semver.NewConstraint(normalizeConstraint(dep.Constraint))
	if err != nil {
		return fmt.Errorf("plugin %s: invalid version constraint %q for dependency %s: %w",
			pluginName, dep.Constraint, dep.Name, err)
	}

	// Registered versions are already validated as semver.
	v := semver.MustParse(version)
	if !c.Check(v) {
		return &VersionConflictError{
			Plugin:     pluginName,
			Dependency: dep.Name,
			Constraint: dep.Constraint,
			Actual:     version,
		}
	}

	return nil
}

// normalizeConstraint maps comparison operators common in other plugin
// ecosystems onto their semver-range equivalents: "==" means exact
// match and "~=" means compatible release.
func normalizeConstraint(constraint string) string {
	constraint = strings.ReplaceAll(constraint, "~=", "~")
	constraint = strings.ReplaceAll(constraint, "==", "=")
	return constraint
}

// findCycle extracts one dependency cycle from the plugins that could
// not be emitted. Iterative DFS with an explicit recursion stack; the
// returned slice holds exactly the cycle's members.
func findCycle(names []string, deps map[string][]string, emitted map[string]bool) []string {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	var path []string
	var cycle []string

	var visit func(name string) bool
	visit = func(name string) bool {
		visited[name] = true
		onStack[name] = true
		path = append(path, name)

		for _, dep := range deps[name] {
			if emitted[dep] {
				continue
			}
			if onStack[dep] {
				// Trim the path down to the cycle entry point.
				for i, member := range path {
					if member == dep {
						cycle = append(cycle, path[i:]...)
						return true
					}
				}
			}
			if !visited[dep] && visit(dep) {
				return true
			}
		}

		onStack[name] = false
		path = path[:len(path)-1]
		return false
	}

	for _, name := range names {
		if !emitted[name] && !visited[name] {
			if visit(name) {
				return cycle
			}
		}
	}
	return nil
}
