package main

import (
	"fmt"

	"github.com/gobwas/glob"
)

// allowlist gates navigation targets against the configured allowed_urls
// glob patterns. The session core never validates URLs; this shell-level
// check is the only gate.
type allowlist struct {
	patterns []string
	globs    []glob.Glob
}

// newAllowlist compiles the configured patterns. An empty pattern list
// produces an allowlist that allows everything.
func newAllowlist(patterns []string) (*allowlist, error) {
	al := &allowlist{patterns: patterns}
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid allowed_urls pattern %q: %w", p, err)
		}
		al.globs = append(al.globs, g)
	}
	return al, nil
}

// Allows reports whether the URL matches any configured pattern.
func (al *allowlist) Allows(url string) bool {
	if len(al.globs) == 0 {
		return true
	}
	for _, g := range al.globs {
		if g.Match(url) {
			return true
		}
	}
	return false
}
