package cache

// ScopedKeyer wraps a Keyer with a prefix, isolating the keys of one
// deployment or tenant that shares a remote cache with others.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "ci:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// HTTPKey generates a prefixed key for HTTP response caching.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

// GraphKey generates a prefixed key for dependency graph caching.
func (k *ScopedKeyer) GraphKey(roots []string, opts GraphKeyOpts) string {
	return k.prefix + k.inner.GraphKey(roots, opts)
}
