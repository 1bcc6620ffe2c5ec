package registry

import (
	"fmt"
	"strings"
)

// CircularDependencyError reports a dependency cycle among registered
// plugins. Members holds the plugin names forming the cycle, in
// dependency order.
type CircularDependencyError struct {
	Members []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular plugin dependency: %s", strings.Join(e.Members, " -> "))
}

// UnsatisfiedDependencyError reports a dependency on a plugin name that
// is not present in the registry.
type UnsatisfiedDependencyError struct {
	Plugin     string
	Dependency string
}

func (e *UnsatisfiedDependencyError) Error() string {
	return fmt.Sprintf("plugin %s depends on %s, which is not registered", e.Plugin, e.Dependency)
}

// VersionConflictError reports a dependency whose version constraint is
// not met by the registered version of that plugin.
type VersionConflictError struct {
	Plugin     string
	Dependency string
	Constraint string
	Actual     string
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("plugin %s requires %s %s, but %s is registered",
		e.Plugin, e.Dependency, e.Constraint, e.Actual)
}
