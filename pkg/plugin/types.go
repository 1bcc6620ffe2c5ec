package plugin

import (
	"context"
	"fmt"
)

// Dependency declares that a plugin requires another plugin to be
// loaded, optionally within a semantic version range.
type Dependency struct {
	Name       string `yaml:"name" json:"name"`
	Constraint string `yaml:"constraint,omitempty" json:"constraint,omitempty"` // e.g. ">= 1.2.0, < 2.0.0"; empty matches any version
}

func (d Dependency) String() string {
	if d.Constraint == "" {
		return d.Name
	}
	return d.Name + " " + d.Constraint
}

// HandlerFunc is the invocable body of a step. Arguments are forwarded
// verbatim from the operation invocation; the returned value is combined
// with other steps' results by the operation's composition strategy.
type HandlerFunc func(ctx context.Context, args ...any) (any, error)

// Step is a single plugin's contribution to one operation.
//
// Name is unique within the operation; it defaults to
// "<plugin>.<operation>" when left empty. After and Before reference
// other step names within the same operation and constrain execution
// order: a step runs after everything in After and before everything in
// Before. References to step names that no contributing plugin declares
// are ignored.
type Step struct {
	Name    string
	Plugin  string // owning plugin name, filled in during collection
	Handler HandlerFunc
	After   []string
	Before  []string
}

func (s Step) String() string {
	return s.Plugin + "/" + s.Name
}

// Descriptor carries a plugin's identity and declarations.
type Descriptor struct {
	Name         string       `yaml:"name" json:"name"`
	Version      string       `yaml:"version" json:"version"`
	Description  string       `yaml:"description,omitempty" json:"description,omitempty"`
	Dependencies []Dependency `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
	Config       Config       `yaml:"config,omitempty" json:"config,omitempty"`
}

func (d *Descriptor) String() string {
	return d.Name + "@" + d.Version
}

// Plugin is the capability interface all plugins implement.
type Plugin interface {
	// Descriptor returns the plugin's identity and declarations.
	// It must return the same value for the lifetime of the plugin.
	Descriptor() *Descriptor

	// Steps returns this plugin's contributions to the named operation,
	// or nil if it contributes none.
	Steps(operation string) []Step

	// Operations lists the operation names this plugin contributes to.
	Operations() []string
}

// Static is a Plugin built from a Descriptor and an explicit
// contribution table. It is the common way to define plugins; embedding
// it and calling Contribute from a constructor replaces any kind of
// convention-based step discovery.
type Static struct {
	descriptor *Descriptor
	steps      map[string][]Step
	ops        []string
}

// NewStatic creates a plugin from a descriptor with no contributions.
func NewStatic(d *Descriptor) *Static {
	return &Static{
		descriptor: d,
		steps:      make(map[string][]Step),
	}
}

// Contribute registers steps against an operation name. Steps without an
// explicit name are assigned "<plugin>.<operation>"; a numeric suffix
// disambiguates multiple anonymous steps for one operation.
func (s *Static) Contribute(operation string, steps ...Step) *Static {
	for _, step := range steps {
		step.Plugin = s.descriptor.Name
		if step.Name == "" {
			step.Name = s.descriptor.Name + "." + operation
			if n := len(s.steps[operation]); n > 0 {
				step.Name = fmt.Sprintf("%s.%d", step.Name, n)
			}
		}
		if _, seen := s.steps[operation]; !seen {
			s.ops = append(s.ops, operation)
		}
		s.steps[operation] = append(s.steps[operation], step)
	}
	return s
}

// Descriptor implements Plugin.
func (s *Static) Descriptor() *Descriptor { return s.descriptor }

// Steps implements Plugin.
func (s *Static) Steps(operation string) []Step { return s.steps[operation] }

// Operations implements Plugin.
func (s *Static) Operations() []string { return s.ops }
