package cache

// ScopedKeyer wraps a Keyer with a prefix so that separate editing sessions
// sharing one backend keep separate namespaces:
//
//	keyer := cache.NewScopedKeyer(nil, "session:"+sessionID+":")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer uses
// [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// LayoutKey generates a prefixed layout key.
func (k *ScopedKeyer) LayoutKey(structureHash, engine string) string {
	return k.prefix + k.inner.LayoutKey(structureHash, engine)
}
