// Package archive retains published snapshots and run summaries off
// the pipeline host. The live store stays local; the archive is the
// recovery path when a bad run has to be rolled back to an earlier
// snapshot.
package archive

import (
	"context"
	"path"
)

// Archive stores and retrieves published pipeline artifacts by key.
// Implementations: local filesystem (default, tests) and S3.
type Archive interface {
	// Put uploads a local file under the given key
	Put(ctx context.Context, localPath, key string) error

	// Fetch downloads the object behind key to localPath
	Fetch(ctx context.Context, key, localPath string) error

	// Exists reports whether key is present
	Exists(ctx context.Context, key string) (bool, error)

	// List returns every key under the prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes key; deleting an absent key is a no-op
	Delete(ctx context.Context, key string) error
}

// SnapshotKey is the archive location of one run's published store.
func SnapshotKey(runID string) string {
	return path.Join("snapshots", runID+".db")
}

// SummaryKey is the archive location of one run's summary artifact.
func SummaryKey(runID string) string {
	return path.Join("summaries", runID+".json")
}
