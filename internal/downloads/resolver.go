package downloads

import (
	"context"

	"github.com/streampull/stream-downloader/internal/models"
)

// Resolver turns a playlist reference into an ordered, validated segment
// task list. Indexes are dense from 0; locators are absolute. A reference
// that is invalid, unreachable or yields zero segments produces a
// *ResolutionError.
type Resolver interface {
	Resolve(ctx context.Context, sourceRef string) ([]*models.SegmentTask, error)
}
