package keyx

import (
	"strings"

	"github.com/aussiebroadwan/chatgate/pkg/cryptox"
)

// Decision is the outcome of a Gate check.
type Decision int

const (
	Reject Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "reject"
}

// CurrentKeySource is the read side of a KeyManager.
type CurrentKeySource interface {
	Current() KeyRecord
}

// Gate decides whether a request may proceed based on the presented key and
// the request path. It has no side effects.
//
// The gate does not look at the record's expiry. It trusts its source to hold
// a live key; keeping it live is the rotation policy's job.
type Gate struct {
	source   CurrentKeySource
	exact    map[string]struct{}
	prefixes []string
}

// NewGate builds a gate over source. Each entry of allowList is either an
// exact path or, when it ends in "/", a path prefix.
func NewGate(source CurrentKeySource, allowList ...string) *Gate {
	g := &Gate{
		source: source,
		exact:  make(map[string]struct{}, len(allowList)),
	}
	for _, p := range allowList {
		if p == "" {
			continue
		}
		if strings.HasSuffix(p, "/") {
			g.prefixes = append(g.prefixes, p)
			// "/swagger/" also covers a bare "/swagger".
			g.exact[strings.TrimSuffix(p, "/")] = struct{}{}
			continue
		}
		g.exact[p] = struct{}{}
	}
	return g
}

// Allowed reports whether path is exempt from key checks.
func (g *Gate) Allowed(path string) bool {
	if _, ok := g.exact[path]; ok {
		return true
	}
	for _, prefix := range g.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Validate returns Allow for allow-listed paths, and otherwise Allow only if
// presented equals the current key.
func (g *Gate) Validate(presented, path string) Decision {
	if g.Allowed(path) {
		return Allow
	}
	if presented == "" {
		return Reject
	}

	current := g.source.Current()
	if current.IsZero() {
		return Reject
	}
	if !cryptox.Equal(presented, current.Key) {
		return Reject
	}
	return Allow
}
