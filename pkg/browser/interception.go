package browser

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gobwas/glob"
)

// RequestRules decides whether an outgoing page request may proceed.
// When an allow list is configured the default flips to deny: only matching
// origins pass. Block rules are evaluated independently and override an
// allow match.
type RequestRules struct {
	allow    []glob.Glob
	block    []glob.Glob
	hasAllow bool
}

// CompileRequestRules builds rules from origin patterns. Patterns are glob
// expressions matched against the request host and origin, e.g. "a.com" or
// "*.tracker.example". Returns nil when both lists are empty so callers can
// skip interception entirely.
func CompileRequestRules(allowed, blocked []string) (*RequestRules, error) {
	if len(allowed) == 0 && len(blocked) == 0 {
		return nil, nil
	}

	rules := &RequestRules{hasAllow: len(allowed) > 0}
	for _, pattern := range allowed {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid allowed origin pattern %q: %w", pattern, err)
		}
		rules.allow = append(rules.allow, g)
	}
	for _, pattern := range blocked {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid blocked origin pattern %q: %w", pattern, err)
		}
		rules.block = append(rules.block, g)
	}
	return rules, nil
}

// Allows reports whether a request to rawURL may proceed.
func (r *RequestRules) Allows(rawURL string) bool {
	host, origin := splitOrigin(rawURL)

	for _, g := range r.block {
		if g.Match(host) || g.Match(origin) {
			return false
		}
	}

	if !r.hasAllow {
		return true
	}
	for _, g := range r.allow {
		if g.Match(host) || g.Match(origin) {
			return true
		}
	}
	return false
}

// splitOrigin extracts the host and scheme://host origin from a request URL.
// Unparseable URLs yield the raw string for both, so patterns still get a
// chance to match.
func splitOrigin(rawURL string) (host, origin string) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL, rawURL
	}
	host = u.Hostname()
	origin = u.Scheme + "://" + u.Host
	return host, strings.ToLower(origin)
}
