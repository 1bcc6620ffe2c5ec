package discovery

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/gobwas/glob"
)

// VariableUserHome is pre-registered with the current user's home
// directory.
const VariableUserHome = "user_home"

var placeholderRe = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

// Patterns expands {variable} placeholders in search patterns and
// matches the results against the filesystem.
type Patterns struct {
	mu   sync.RWMutex
	vars map[string][]string
}

// NewPatterns creates a pattern set with user_home pre-registered.
func NewPatterns() *Patterns {
	p := &Patterns{vars: make(map[string][]string)}
	if home, err := os.UserHomeDir(); err == nil {
		p.vars[VariableUserHome] = []string{home}
	}
	return p
}

// RegisterVariable sets the values a placeholder expands to,
// replacing any previous registration. A variable may expand to
// several values; patterns referencing it expand combinatorially.
func (p *Patterns) RegisterVariable(name string, values ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.vars[name] = append([]string(nil), values...)
}

// Expand substitutes every {variable} placeholder in the pattern,
// producing one result per combination of variable values. A
// placeholder with no registered variable is an error.
func (p *Patterns) Expand(pattern string) ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	expanded := []string{pattern}
	for {
		match := placeholderRe.FindStringSubmatchIndex(expanded[0])
		if match == nil {
			return expanded, nil
		}

		name := expanded[0][match[2]:match[3]]
		values, ok := p.vars[name]
		if !ok {
			// Environment variables fill in for unregistered names.
			if env, envOK := os.LookupEnv(name); envOK {
				values = []string{env}
			} else {
				return nil, fmt.Errorf("unknown pattern variable: %s", name)
			}
		}

		var next []string
		for _, e := range expanded {
			for _, v := range values {
				next = append(next, strings.Replace(e, "{"+name+"}", v, 1))
			}
		}
		expanded = next
	}
}

// MatchFiles expands the pattern and returns every regular file on
// disk matching any expansion, sorted and de-duplicated. Expansions
// rooted in directories that do not exist simply match nothing.
func (p *Patterns) MatchFiles(pattern string) ([]string, error) {
	expanded, err := p.Expand(pattern)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var files []string
	for _, e := range expanded {
		matched, err := globFiles(e)
		if err != nil {
			return nil, err
		}
		for _, f := range matched {
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

// globFiles walks the filesystem under the pattern's static prefix and
// collects regular files matching the glob.
func globFiles(pattern string) ([]string, error) {
	pattern = filepath.ToSlash(pattern)
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
	}

	root := staticPrefix(pattern)
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, nil
	}

	var files []string
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtrees match nothing
		}
		if d.IsDir() {
			return nil
		}
		if g.Match(filepath.ToSlash(path)) {
			files = append(files, path)
		}
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return files, nil
}

// staticPrefix returns the deepest directory of the pattern containing
// no glob metacharacters.
func staticPrefix(pattern string) string {
	parts := strings.Split(pattern, "/")
	prefix := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.ContainsAny(part, "*?[{") {
			break
		}
		prefix = append(prefix, part)
	}
	if len(prefix) == 0 {
		return "."
	}
	root := strings.Join(prefix, "/")
	if root == "" {
		return "/"
	}
	return root
}
