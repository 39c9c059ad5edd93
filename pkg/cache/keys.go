package cache

// Keyer builds cache keys for the different kinds of cached data.
type Keyer interface {
	// HTTPKey returns the key for a registry response.
	HTTPKey(namespace, key string) string
	// GraphKey returns the key for a resolved dependency graph.
	GraphKey(roots []string, opts GraphKeyOpts) string
}

// GraphKeyOpts holds the resolution options that change a resolved graph.
type GraphKeyOpts struct {
	MaxDepth     int  `json:"max_depth"`
	MaxNodes     int  `json:"max_nodes"`
	ShareVisited bool `json:"share_visited"`
	RuntimeOnly  bool `json:"runtime_only"`
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default key scheme.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// GraphKey hashes the root list together with the options.
func (DefaultKeyer) GraphKey(roots []string, opts GraphKeyOpts) string {
	return hashKey("graph", roots, opts)
}
