package widgetctx

import "strings"

// RouteLister is the read side of a Registry the picker depends on.
type RouteLister interface {
	ForRoute(route string) []Entry
}

// Addable returns the entries offered on route minus those whose ID is
// already active.  The registry is never mutated.
func Addable(src RouteLister, route string, active []string) []Entry {
	skip := make(map[string]struct{}, len(active))
	for _, id := range active {
		if id = strings.TrimSpace(id); id != "" {
			skip[id] = struct{}{}
		}
	}

	offered := src.ForRoute(route)
	out := make([]Entry, 0, len(offered))
	for _, e := range offered {
		if _, dup := skip[e.ID]; dup {
			continue
		}
		out = append(out, e)
	}
	return out
}
