package registry

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/gantry/pkg/plugin"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return New(log)
}

func testPlugin(name, version string, deps ...plugin.Dependency) plugin.Plugin {
	return plugin.NewStatic(&plugin.Descriptor{
		Name:         name,
		Version:      version,
		Dependencies: deps,
	})
}

func TestRegistry_Register(t *testing.T) {
	r := newTestRegistry(t)

	require.NoError(t, r.Register(testPlugin("a", "1.0.0")))
	assert.True(t, r.Has("a"))
	assert.Equal(t, 1, r.Count())

	got, err := r.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "a", got.Descriptor().Name)

	_, err = r.Get("missing")
	assert.Error(t, err)
}

func TestRegistry_Register_Invalid(t *testing.T) {
	r := newTestRegistry(t)

	err := r.Register(testPlugin("", "1.0.0"))
	var invalid *plugin.InvalidPluginError
	require.ErrorAs(t, err, &invalid)

	err = r.Register(testPlugin("a", ""))
	require.ErrorAs(t, err, &invalid)

	// Rejected candidates are excluded, the registry stays usable.
	assert.Equal(t, 0, r.Count())
	require.NoError(t, r.Register(testPlugin("a", "1.0.0")))
}

func TestRegistry_Register_Duplicate(t *testing.T) {
	r := newTestRegistry(t)

	require.NoError(t, r.Register(testPlugin("a", "1.0.0")))
	err := r.Register(testPlugin("a", "2.0.0"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestResolve_DependencyOrder(t *testing.T) {
	// A (no deps), B (depends on A), C (depends on B), registered as
	// C, A, B. The resolved order must be A, B, C.
	r := newTestRegistry(t)
	require.NoError(t, r.Register(testPlugin("c", "1.0.0", plugin.Dependency{Name: "b"})))
	require.NoError(t, r.Register(testPlugin("a", "1.0.0")))
	require.NoError(t, r.Register(testPlugin("b", "1.0.0", plugin.Dependency{Name: "a"})))

	order, err := r.Resolve()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, order.Names())
	assert.Equal(t, 3, order.Len())
}

func TestResolve_TiesFollowRegistrationOrder(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Register(testPlugin("z", "1.0.0")))
	require.NoError(t, r.Register(testPlugin("m", "1.0.0")))
	require.NoError(t, r.Register(testPlugin("a", "1.0.0")))

	order, err := r.Resolve()
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "m", "a"}, order.Names())
}

func TestResolve_Deterministic(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Register(testPlugin("d", "1.0.0", plugin.Dependency{Name: "b"}, plugin.Dependency{Name: "c"})))
	require.NoError(t, r.Register(testPlugin("b", "1.0.0", plugin.Dependency{Name: "a"})))
	require.NoError(t, r.Register(testPlugin("c", "1.0.0", plugin.Dependency{Name: "a"})))
	require.NoError(t, r.Register(testPlugin("a", "1.0.0")))

	first, err := r.Resolve()
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := r.Resolve()
		require.NoError(t, err)
		assert.Equal(t, first.Names(), again.Names())
	}

	// Every dependency precedes its dependent.
	index := make(map[string]int)
	for i, name := range first.Names() {
		index[name] = i
	}
	assert.Less(t, index["a"], index["b"])
	assert.Less(t, index["a"], index["c"])
	assert.Less(t, index["b"], index["d"])
	assert.Less(t, index["c"], index["d"])
}

func TestResolve_Cycle(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Register(testPlugin("standalone", "1.0.0")))
	require.NoError(t, r.Register(testPlugin("a", "1.0.0", plugin.Dependency{Name: "b"})))
	require.NoError(t, r.Register(testPlugin("b", "1.0.0", plugin.Dependency{Name: "c"})))
	require.NoError(t, r.Register(testPlugin("c", "1.0.0", plugin.Dependency{Name: "a"})))

	_, err := r.Resolve()
	var cycleErr *CircularDependencyError
	require.ErrorAs(t, err, &cycleErr)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, cycleErr.Members)
	assert.NotContains(t, cycleErr.Members, "standalone")
}

func TestResolve_SelfCycle(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Register(testPlugin("a", "1.0.0", plugin.Dependency{Name: "a"})))

	_, err := r.Resolve()
	var cycleErr *CircularDependencyError
	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, []string{"a"}, cycleErr.Members)
}

func TestResolve_UnsatisfiedDependency(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Register(testPlugin("a", "1.0.0", plugin.Dependency{Name: "ghost"})))

	_, err := r.Resolve()
	var unsat *UnsatisfiedDependencyError
	require.ErrorAs(t, err, &unsat)
	assert.Equal(t, "a", unsat.Plugin)
	assert.Equal(t, "ghost", unsat.Dependency)
}

func TestResolve_VersionConflict(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Register(testPlugin("base", "1.2.0")))
	require.NoError(t, r.Register(testPlugin("app", "1.0.0", plugin.Dependency{Name: "base", Constraint: ">= 2.0.0"})))

	_, err := r.Resolve()
	var conflict *VersionConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "app", conflict.Plugin)
	assert.Equal(t, "base", conflict.Dependency)
	assert.Equal(t, ">= 2.0.0", conflict.Constraint)
	assert.Equal(t, "1.2.0", conflict.Actual)
}

func TestResolve_ConstraintOperators(t *testing.T) {
	tests := []struct {
		constraint string
		version    string
		satisfied  bool
	}{
		{"== 1.2.0", "1.2.0", true},
		{"== 1.2.0", "1.2.1", false},
		{">= 1.0.0", "2.3.4", true},
		{"~= 1.2.0", "1.2.9", true},
		{"~= 1.2.0", "1.3.0", false},
		{"^1.2.0", "1.9.0", true},
		{"^1.2.0", "2.0.0", false},
		{">= 1.0.0, < 2.0.0", "1.5.0", true},
		{">= 1.0.0, < 2.0.0", "2.1.0", false},
	}

	for _, tt := range tests {
		t.Run(tt.constraint+"/"+tt.version, func(t *testing.T) {
			r := newTestRegistry(t)
			require.NoError(t, r.Register(testPlugin("dep", tt.version)))
			require.NoError(t, r.Register(testPlugin("app", "1.0.0",
				plugin.Dependency{Name: "dep", Constraint: tt.constraint})))

			_, err := r.Resolve()
			if tt.satisfied {
				assert.NoError(t, err)
			} else {
				var conflict *VersionConflictError
				assert.ErrorAs(t, err, &conflict)
			}
		})
	}
}

func TestResolve_Empty(t *testing.T) {
	r := newTestRegistry(t)
	order, err := r.Resolve()
	require.NoError(t, err)
	assert.Equal(t, 0, order.Len())
}
