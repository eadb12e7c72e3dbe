// internal/widgetctx/policy.go
//
// Route allow-list table.
//
// Context
// -------
// Which widget IDs a page may offer as context is data, not code.  The
// table lives in `conf/routes.yaml` and is handed to New at construction
// time:
//
//	strict_unknown_routes: false
//	routes:
//	  - prefix: /dashboard
//	    ids: [gold-price, daily-summary]
//	  - prefix: /asset-types
//	    ids: [asset-type-summary, asset-type-trend]
//
// Matching is segment aware: "/dashboard" covers "/dashboard" and
// "/dashboard/branch/3" but not "/dashboards".  The longest matching prefix
// wins.  Query strings and fragments are ignored.
//
// Notes
// -----
//   - A nil *Policy is valid and knows no routes.
//   - Oxford commas, two spaces after periods.
package widgetctx

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rule maps one route prefix to the widget IDs it may expose.
type Rule struct {
	Prefix string   `yaml:"prefix"`
	IDs    []string `yaml:"ids"`
}

// policyFile mirrors conf/routes.yaml.
type policyFile struct {
	StrictUnknownRoutes bool   `yaml:"strict_unknown_routes"`
	Routes              []Rule `yaml:"routes"`
}

type compiledRule struct {
	prefix string
	ids    map[string]struct{}
}

// Policy is an immutable, validated route table.
type Policy struct {
	rules  []compiledRule // longest prefix first
	strict bool
}

// NewPolicy validates rules and compiles them.  strict switches the
// unknown-route fallback from "everything" to "nothing".
func NewPolicy(rules []Rule, strict bool) (*Policy, error) {
	p := &Policy{strict: strict}
	seen := make(map[string]struct{}, len(rules))

	for i, r := range rules {
		prefix := normalizeRoute(r.Prefix)
		if !strings.HasPrefix(r.Prefix, "/") {
			return nil, fmt.Errorf("route rule %d: prefix %q must start with /", i, r.Prefix)
		}
		if _, dup := seen[prefix]; dup {
			return nil, fmt.Errorf("route rule %d: duplicate prefix %q", i, prefix)
		}
		if len(r.IDs) == 0 {
			return nil, fmt.Errorf("route rule %d: prefix %q has no ids", i, prefix)
		}
		seen[prefix] = struct{}{}

		ids := make(map[string]struct{}, len(r.IDs))
		for _, id := range r.IDs {
			if id = strings.TrimSpace(id); id == "" {
				return nil, fmt.Errorf("route rule %d: prefix %q has an empty id", i, prefix)
			}
			ids[id] = struct{}{}
		}
		p.rules = append(p.rules, compiledRule{prefix: prefix, ids: ids})
	}

	sort.SliceStable(p.rules, func(i, j int) bool {
		return len(p.rules[i].prefix) > len(p.rules[j].prefix)
	})
	return p, nil
}

// LoadPolicy reads and validates a YAML route table.  strictOverride, when
// true, forces strict mode regardless of the file.
func LoadPolicy(path string, strictOverride bool) (*Policy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read route policy %s: %w", path, err)
	}
	var pf policyFile
	if err := yaml.Unmarshal(raw, &pf); err != nil {
		return nil, fmt.Errorf("parse route policy %s: %w", path, err)
	}
	p, err := NewPolicy(pf.Routes, pf.StrictUnknownRoutes || strictOverride)
	if err != nil {
		return nil, fmt.Errorf("route policy %s: %w", path, err)
	}
	return p, nil
}

// Allowed returns the ID set for route and whether any prefix matched.  The
// returned map must be treated as read-only.
func (p *Policy) Allowed(route string) (ids map[string]struct{}, known bool) {
	if p == nil {
		return nil, false
	}
	route = normalizeRoute(route)
	for _, r := range p.rules {
		if matchPrefix(route, r.prefix) {
			return r.ids, true
		}
	}
	return nil, false
}

// Permits reports whether id may be offered on route.  Unknown routes follow
// the strict flag.
func (p *Policy) Permits(route, id string) bool {
	ids, known := p.Allowed(route)
	if !known {
		return !p.Strict()
	}
	_, ok := ids[id]
	return ok
}

// Strict reports whether unknown routes expose nothing.
func (p *Policy) Strict() bool { return p != nil && p.strict }

// Prefixes lists configured prefixes, longest first.
func (p *Policy) Prefixes() []string {
	if p == nil {
		return nil
	}
	out := make([]string, 0, len(p.rules))
	for _, r := range p.rules {
		out = append(out, r.prefix)
	}
	return out
}

/*──────────────────────────── helpers ──────────────────────────────────────*/

// normalizeRoute drops query and fragment parts and any trailing slash.
func normalizeRoute(route string) string {
	if i := strings.IndexAny(route, "?#"); i != -1 {
		route = route[:i]
	}
	route = strings.TrimSpace(route)
	if route == "" {
		return "/"
	}
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	if len(route) > 1 {
		route = strings.TrimRight(route, "/")
		if route == "" {
			route = "/"
		}
	}
	return route
}

func matchPrefix(route, prefix string) bool {
	if prefix == "/" {
		return true
	}
	return route == prefix || strings.HasPrefix(route, prefix+"/")
}
