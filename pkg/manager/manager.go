package manager

import (
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/gantry/pkg/observability"
	"github.com/platinummonkey/gantry/pkg/operation"
	"github.com/platinummonkey/gantry/pkg/plugin"
	"github.com/platinummonkey/gantry/pkg/registry"
)

const defaultResultCacheSize = 256

// HintCycleError reports step ordering hints that contradict each
// other within one operation.
type HintCycleError struct {
	Operation string
	Members   []string
}

func (e *HintCycleError) Error() string {
	return fmt.Sprintf("operation %s: step ordering hints form a cycle: %s",
		e.Operation, strings.Join(e.Members, " -> "))
}

// Manager exposes the ordered, callable step sequences behind every
// operation. It is immutable after construction and safe for
// concurrent reads; when the plugin set changes a new Manager is built
// from a fresh LoadOrder.
type Manager struct {
	order   *registry.LoadOrder
	log     *logrus.Logger
	defs    *operation.Definitions
	seq     map[string][]plugin.Step
	results *lru.Cache[string, any]
}

// Option configures a Manager.
type Option func(*config)

type config struct {
	metrics   *observability.Metrics
	cacheSize int
}

// WithMetrics attaches runtime metrics to the manager's operation
// namespace.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *config) { c.metrics = m }
}

// WithResultCacheSize sets the operation result cache capacity.
func WithResultCacheSize(n int) Option {
	return func(c *config) { c.cacheSize = n }
}

// New builds a manager from a resolved load order. It computes and
// validates the step sequence for every contributed operation; a hint
// cycle fails construction with *HintCycleError.
func New(order *registry.LoadOrder, log *logrus.Logger, opts ...Option) (*Manager, error) {
	if log == nil {
		log = logrus.New()
	}
	cfg := config{cacheSize: defaultResultCacheSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	m := &Manager{
		order: order,
		log:   log,
		seq:   make(map[string][]plugin.Step),
	}

	var err error
	m.results, err = lru.New[string, any](cfg.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create result cache: %w", err)
	}

	for _, opName := range contributedOperations(order) {
		steps, err := m.buildSequence(opName)
		if err != nil {
			return nil, err
		}
		m.seq[opName] = steps
	}

	m.defs = operation.NewDefinitions(m, log, cfg.metrics)
	return m, nil
}

// Definitions returns the operation namespace resolved against this
// manager's step-sequence cache.
func (m *Manager) Definitions() *operation.Definitions { return m.defs }

// Plugins returns the loaded plugins in load order.
func (m *Manager) Plugins() []plugin.Plugin { return m.order.Plugins() }

// Steps returns the ordered step sequence for an operation name. An
// operation nothing contributes to yields an empty sequence, not an
// error.
func (m *Manager) Steps(opName string) ([]plugin.Step, error) {
	steps := m.seq[opName]
	out := make([]plugin.Step, len(steps))
	copy(out, steps)
	return out, nil
}

// contributedOperations lists every operation name any loaded plugin
// contributes to, first-contributor order.
func contributedOperations(order *registry.LoadOrder) []string {
	var names []string
	seen := make(map[string]bool)
	for _, p := range order.Plugins() {
		for _, opName := range p.Operations() {
			if !seen[opName] {
				seen[opName] = true
				names = append(names, opName)
			}
		}
	}
	return names
}

// buildSequence collects an operation's steps across the load order and
// orders them by before/after hints. Duplicate step names keep the
// earlier plugin's step; hint references to unknown step names are
// ignored.
func (m *Manager) buildSequence(opName string) ([]plugin.Step, error) {
	var collected []plugin.Step
	byName := make(map[string]int)

	for _, p := range m.order.Plugins() {
		for _, step := range p.Steps(opName) {
			if prev, dup := byName[step.Name]; dup {
				m.log.WithFields(logrus.Fields{
					"operation": opName,
					"step":      step.Name,
					"kept":      collected[prev].Plugin,
					"ignored":   step.Plugin,
				}).Warn("Duplicate step name, ignoring later contribution")
				continue
			}
			byName[step.Name] = len(collected)
			collected = append(collected, step)
		}
	}

	return orderByHints(opName, collected, byName)
}

// orderByHints topologically sorts steps by their After/Before hints,
// keeping collection order among unconstrained steps.
func orderByHints(opName string, steps []plugin.Step, byName map[string]int) ([]plugin.Step, error) {
	n := len(steps)
	remaining := make([]int, n)    // unmet predecessor count per step
	successors := make([][]int, n) // step index -> indices that must follow

	addEdge := func(first, then int) {
		successors[first] = append(successors[first], then)
		remaining[then]++
	}

	for i, step := range steps {
		for _, dep := range step.After {
			if j, ok := byName[dep]; ok {
				addEdge(j, i)
			}
		}
		for _, rdep := range step.Before {
			if j, ok := byName[rdep]; ok {
				addEdge(i, j)
			}
		}
	}

	ordered := make([]plugin.Step, 0, n)
	emitted := make([]bool, n)
	for len(ordered) < n {
		next := -1
		for i := range steps {
			if !emitted[i] && remaining[i] == 0 {
				next = i
				break
			}
		}
		if next == -1 {
			var members []string
			for i, step := range steps {
				if !emitted[i] {
					members = append(members, step.Name)
				}
			}
			return nil, &HintCycleError{Operation: opName, Members: members}
		}

		emitted[next] = true
		ordered = append(ordered, steps[next])
		for _, succ := range successors[next] {
			remaining[succ]--
		}
	}

	return ordered, nil
}
