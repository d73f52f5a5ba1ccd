package cache

// ScopedKeyer wraps a Keyer with a prefix, so that several workspaces or
// tenants can share one backend without colliding:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "ws:"+ws.ID()+":")
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

// SnapshotKey generates a prefixed snapshot key.
func (k *ScopedKeyer) SnapshotKey(sceneHash, configHash string) string {
	return k.prefix + k.inner.SnapshotKey(sceneHash, configHash)
}

// ArtifactKey generates a prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(snapshotKey string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(snapshotKey, opts)
}
