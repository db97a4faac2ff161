package cache

// ScopedKeyer wraps a Keyer with a prefix so that several scenes can share
// one cache without colliding.
//
//	sceneKeyer := NewScopedKeyer(NewDefaultKeyer(), "scene:boston:")
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

// StyleKey generates a prefixed key for computed drawable styles.
func (k *ScopedKeyer) StyleKey(drawableID string, opts StyleKeyOpts) string {
	return k.prefix + k.inner.StyleKey(drawableID, opts)
}
