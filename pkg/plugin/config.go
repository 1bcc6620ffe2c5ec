package plugin

// Config is a plugin's option map, typically decoded from a yaml
// section named after the plugin.
type Config map[string]any

// MergeConfig merges override into base and returns the result without
// mutating either input. Nested maps merge key-wise; any other value in
// override replaces the base value. This gives derived descriptors
// override semantics over a base descriptor's defaults.
func MergeConfig(base, override Config) Config {
	if base == nil && override == nil {
		return nil
	}

	merged := make(Config, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}

	for k, v := range override {
		baseMap, baseOK := merged[k].(map[string]any)
		overrideMap, overrideOK := v.(map[string]any)
		if baseOK && overrideOK {
			merged[k] = map[string]any(MergeConfig(baseMap, overrideMap))
			continue
		}
		merged[k] = v
	}

	return merged
}

// GetString returns a string option or a default.
func (c Config) GetString(key, defaultValue string) string {
	if v, ok := c[key].(string); ok {
		return v
	}
	return defaultValue
}

// GetBool returns a boolean option or a default.
func (c Config) GetBool(key string, defaultValue bool) bool {
	if v, ok := c[key].(bool); ok {
		return v
	}
	return defaultValue
}

// GetStringSlice returns a string list option or nil. Both []string and
// []any of strings decode as a string list, since yaml produces the
// latter.
func (c Config) GetStringSlice(key string) []string {
	switch v := c[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
