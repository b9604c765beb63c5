package downloads

import (
	"context"

	"github.com/streampull/stream-downloader/internal/models"
)

// FileStore tracks assembled artifacts on durable storage and enforces
// retention. Lookups for unknown or expired ids return ErrNotFound.
type FileStore interface {
	// Register moves a fully written temporary file into the store under a
	// collision-safe name derived from desiredName and returns the artifact.
	Register(tmpPath, desiredName string) (*models.Artifact, error)
	Lookup(id string) (*models.Artifact, error)
	// LookupByPrefix returns the first live artifact whose id contains
	// partial as a case-insensitive substring.
	LookupByPrefix(partial string) (*models.Artifact, error)
	List() ([]models.FileInfo, error)
	Delete(id string) error
	// StartSweeper runs the retention sweep until ctx is cancelled.
	StartSweeper(ctx context.Context)
}
