package plugin

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// InvalidPluginError reports a malformed plugin descriptor. It is
// recoverable: the registry drops the offending plugin with a warning
// and continues with the remaining candidates.
type InvalidPluginError struct {
	Plugin string // best-effort identity; may be empty when the name itself is missing
	Reason string
}

func (e *InvalidPluginError) Error() string {
	if e.Plugin == "" {
		return fmt.Sprintf("invalid plugin: %s", e.Reason)
	}
	return fmt.Sprintf("invalid plugin %s: %s", e.Plugin, e.Reason)
}

// Validate checks that a plugin's descriptor is well-formed: name and
// version present, version parseable as semver, dependency names
// non-empty. It returns an *InvalidPluginError describing the first
// violation found.
func Validate(p Plugin) error {
	if p == nil {
		return &InvalidPluginError{Reason: "plugin is nil"}
	}

	d := p.Descriptor()
	if d == nil {
		return &InvalidPluginError{Reason: "descriptor is nil"}
	}
	if d.Name == "" {
		return &InvalidPluginError{Reason: "name is required"}
	}
	if d.Version == "" {
		return &InvalidPluginError{Plugin: d.Name, Reason: "version is required"}
	}
	if _, err := semver.NewVersion(d.Version); err != nil {
		return &InvalidPluginError{Plugin: d.Name, Reason: fmt.Sprintf("version %q is not a semantic version", d.Version)}
	}

	for _, dep := range d.Dependencies {
		if dep.Name == "" {
			return &InvalidPluginError{Plugin: d.Name, Reason: "dependency with empty name"}
		}
	}

	return nil
}
