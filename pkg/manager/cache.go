package manager

import "strings"

// cacheKey namespaces result cache entries per operation. The NUL
// separator cannot occur in operation names.
func cacheKey(opName, key string) string {
	return opName + "\x00" + key
}

// CachedResult returns the cached value for (opName, key), computing
// and storing it on a miss. Plugins use this to memoize expensive
// results scoped to one operation.
func (m *Manager) CachedResult(opName, key string, compute func() (any, error)) (any, error) {
	ck := cacheKey(opName, key)
	if value, ok := m.results.Get(ck); ok {
		return value, nil
	}

	value, err := compute()
	if err != nil {
		return nil, err
	}

	m.results.Add(ck, value)
	return value, nil
}

// DropCache invalidates cached results. With no arguments the whole
// cache is purged; otherwise only entries belonging to the named
// operations are removed.
func (m *Manager) DropCache(operations ...string) {
	if len(operations) == 0 {
		m.results.Purge()
		return
	}

	for _, opName := range operations {
		prefix := opName + "\x00"
		for _, key := range m.results.Keys() {
			if strings.HasPrefix(key, prefix) {
				m.results.Remove(key)
			}
		}
	}
}
