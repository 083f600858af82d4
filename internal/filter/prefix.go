package filter

import (
	"fmt"
	"path"
	"strings"
)

// compiledPrefix matches a path and everything below it.
type compiledPrefix struct {
	original string
	clean    string
}

// compilePrefix validates an absolute path prefix.
func compilePrefix(p string) (*compiledPrefix, error) {
	if !strings.HasPrefix(p, "/") {
		return nil, fmt.Errorf("prefix %q is not an absolute path", p)
	}
	return &compiledPrefix{original: p, clean: path.Clean(p)}, nil
}

// match reports whether p equals the prefix or lies below it. Matching is by
// whole path components, so "/var/tmp" does not match "/var/tmpfoo".
func (cp *compiledPrefix) match(p string) bool {
	if cp.clean == "/" {
		return strings.HasPrefix(p, "/")
	}
	p = path.Clean(p)
	return p == cp.clean || strings.HasPrefix(p, cp.clean+"/")
}
