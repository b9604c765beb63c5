package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/streampull/stream-downloader/internal/config"
	"github.com/streampull/stream-downloader/internal/downloads"
	"github.com/streampull/stream-downloader/internal/models"
	"github.com/streampull/stream-downloader/pkg/logger"
)

const defaultConcurrency = 6

// SegmentFileName is the on-disk name for a fetched segment inside a job's
// working directory. Zero-padded so lexical order equals index order.
func SegmentFileName(index int) string {
	return fmt.Sprintf("segment_%05d.ts", index)
}

// Engine runs a bounded pool of segment fetches for one job. Completion
// order is network-driven; the output files are keyed by index, so assembly
// order never depends on it.
type Engine struct {
	fetcher     downloads.Fetcher
	concurrency int
	logger      logger.Logger
}

func NewEngine(cfg *config.Config, fetcher downloads.Fetcher, log logger.Logger) *Engine {
	concurrency := cfg.Downloader.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Engine{
		fetcher:     fetcher,
		concurrency: concurrency,
		logger:      log,
	}
}

// Run fetches every segment into dir. onDone is invoked after each completed
// segment with the running done-count; callers derive progress from it. The
// first segment failure cancels outstanding fetches and is returned; no
// further segments are started after that.
func (e *Engine) Run(ctx context.Context, segments []*models.SegmentTask, dir string, onDone func(done, total int)) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	total := len(segments)
	var done int64

	for _, seg := range segments {
		seg := seg
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			seg.State = models.SegmentInFlight
			seg.Attempt++
			data, err := e.fetcher.Fetch(ctx, seg.Locator)
			if err != nil {
				seg.State = models.SegmentFailed
				e.logger.Errorf("Run - segment %d failed: %v", seg.Index, err)
				return err
			}

			path := filepath.Join(dir, SegmentFileName(seg.Index))
			if err := os.WriteFile(path, data, 0o644); err != nil {
				seg.State = models.SegmentFailed
				return fmt.Errorf("write segment %d: %w", seg.Index, err)
			}

			seg.State = models.SegmentDone
			n := atomic.AddInt64(&done, 1)
			if onDone != nil {
				onDone(int(n), total)
			}
			return nil
		})
	}

	return g.Wait()
}
