package graph

// Graph-level metadata keys written by the resolver.
const (
	MetaRegistry      = "registry"       // Registry the graph was resolved against
	MetaRoots         = "roots"          // Root packages in request order
	MetaFailedLookups = "failed_lookups" // Lookups that failed and were left childless
)

// Roots returns the roots recorded in the graph metadata, or nil when none
// were recorded. Both []string and the []any produced by JSON decoding are
// accepted.
func (g *Graph) Roots() []string {
	switch v := g.meta[MetaRoots].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		roots := make([]string, 0, len(v))
		for _, r := range v {
			if s, ok := r.(string); ok && s != "" {
				roots = append(roots, s)
			}
		}
		return roots
	}
	return nil
}

// FailedLookups returns the number of failed lookups recorded in the graph
// metadata.
func (g *Graph) FailedLookups() int {
	switch v := g.meta[MetaFailedLookups].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}
