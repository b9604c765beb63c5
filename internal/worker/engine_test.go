package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streampull/stream-downloader/internal/config"
	"github.com/streampull/stream-downloader/internal/downloads"
	"github.com/streampull/stream-downloader/internal/models"
	"github.com/streampull/stream-downloader/pkg/logger"
)

type fetchFunc func(ctx context.Context, locator string) ([]byte, error)

func (f fetchFunc) Fetch(ctx context.Context, locator string) ([]byte, error) {
	return f(ctx, locator)
}

func newTestEngine(concurrency int, fetcher downloads.Fetcher) *Engine {
	cfg := &config.Config{
		Logger:     config.Logger{Encoding: "console", Level: "error"},
		Downloader: config.DownloaderConfig{Concurrency: concurrency},
	}
	log := logger.NewApiLogger(cfg)
	log.InitLogger()
	return NewEngine(cfg, fetcher, log)
}

func makeSegments(n int) []*models.SegmentTask {
	segments := make([]*models.SegmentTask, n)
	for i := range segments {
		segments[i] = &models.SegmentTask{
			Index:   i,
			Locator: fmt.Sprintf("https://cdn.example.com/seg%d.ts", i),
			State:   models.SegmentQueued,
		}
	}
	return segments
}

func TestEngineFetchesAllSegments(t *testing.T) {
	dir := t.TempDir()

	// Completion order 2, 0, 1: the slowest segment is the first by index.
	delays := map[string]time.Duration{
		"https://cdn.example.com/seg0.ts": 60 * time.Millisecond,
		"https://cdn.example.com/seg1.ts": 90 * time.Millisecond,
		"https://cdn.example.com/seg2.ts": 0,
	}
	fetcher := fetchFunc(func(ctx context.Context, locator string) ([]byte, error) {
		time.Sleep(delays[locator])
		return []byte("data:" + locator), nil
	})

	e := newTestEngine(3, fetcher)
	segments := makeSegments(3)

	var mu sync.Mutex
	var doneCounts []int
	err := e.Run(context.Background(), segments, dir, func(done, total int) {
		mu.Lock()
		doneCounts = append(doneCounts, done)
		mu.Unlock()
		assert.Equal(t, 3, total)
	})
	require.NoError(t, err)

	for _, seg := range segments {
		assert.Equal(t, models.SegmentDone, seg.State)
		data, err := os.ReadFile(filepath.Join(dir, SegmentFileName(seg.Index)))
		require.NoError(t, err)
		assert.Equal(t, []byte("data:"+seg.Locator), data)
	}

	// Done counts are strictly increasing regardless of completion order.
	require.Len(t, doneCounts, 3)
	assert.Equal(t, []int{1, 2, 3}, doneCounts)
}

func TestEngineRespectsConcurrencyBound(t *testing.T) {
	dir := t.TempDir()

	var inFlight, maxInFlight int32
	fetcher := fetchFunc(func(ctx context.Context, locator string) ([]byte, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			cur := atomic.LoadInt32(&maxInFlight)
			if n <= cur || atomic.CompareAndSwapInt32(&maxInFlight, cur, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return []byte("x"), nil
	})

	e := newTestEngine(2, fetcher)
	err := e.Run(context.Background(), makeSegments(8), dir, nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt32(&maxInFlight), int32(2))
}

func TestEngineAbortsOnSegmentFailure(t *testing.T) {
	dir := t.TempDir()

	permanent := &downloads.PermanentFetchError{
		Locator: "https://cdn.example.com/seg1.ts",
		Err:     fmt.Errorf("unexpected status 404 Not Found"),
	}
	var started int32
	fetcher := fetchFunc(func(ctx context.Context, locator string) ([]byte, error) {
		atomic.AddInt32(&started, 1)
		if locator == permanent.Locator {
			return nil, permanent
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(50 * time.Millisecond):
			return []byte("x"), nil
		}
	})

	e := newTestEngine(2, fetcher)
	segments := makeSegments(6)
	err := e.Run(context.Background(), segments, dir, nil)
	require.Error(t, err)
	assert.True(t, downloads.IsPermanentFetch(err))
	assert.Equal(t, models.SegmentFailed, segments[1].State)

	// Queued segments were skipped once the failure cancelled the group.
	assert.Less(t, atomic.LoadInt32(&started), int32(6))
}

func TestEngineHonorsCancellation(t *testing.T) {
	dir := t.TempDir()

	fetcher := fetchFunc(func(ctx context.Context, locator string) ([]byte, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
			return []byte("x"), nil
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	e := newTestEngine(2, fetcher)
	start := time.Now()
	err := e.Run(ctx, makeSegments(4), dir, nil)
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}
