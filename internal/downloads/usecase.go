package downloads

import (
	"context"

	"github.com/streampull/stream-downloader/internal/models"
)

// StatusEmitter delivers one outbound status message to the caller holding
// the job's status connection. Single consumer per job.
type StatusEmitter func(models.StatusMessage)

type UseCase interface {
	// Run executes one download job end to end: resolve, fetch, assemble,
	// register. Every observable state change, including the terminal one,
	// is pushed through emit. Cancelling ctx aborts outstanding fetches.
	Run(ctx context.Context, req *models.DownloadRequest, emit StatusEmitter)
}
