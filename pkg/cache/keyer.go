package cache

import "time"

// Entry lifetimes. Snapshots depend only on their inputs, so they live
// longer than rendered artifacts, which are cheap to regenerate.
const (
	TTLSnapshot = 7 * 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// Keyer produces cache keys for the stages of the pipeline.
type Keyer interface {
	// SnapshotKey identifies the settled geometry of a scene under a
	// configuration.
	SnapshotKey(sceneHash, configHash string) string
	// ArtifactKey identifies an exported artifact of a snapshot.
	ArtifactKey(snapshotKey string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts are the export options that change an artifact.
type ArtifactKeyOpts struct {
	Format   string `json:"format"`
	Detailed bool   `json:"detailed,omitempty"`
}

// DefaultKeyer hashes its inputs into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// SnapshotKey implements Keyer.
func (DefaultKeyer) SnapshotKey(sceneHash, configHash string) string {
	return hashKey("snapshot", sceneHash, configHash)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(snapshotKey string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", snapshotKey, opts)
}
