package repository

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streampull/stream-downloader/internal/config"
	"github.com/streampull/stream-downloader/internal/downloads"
	"github.com/streampull/stream-downloader/pkg/logger"
)

func testLogger() logger.Logger {
	cfg := &config.Config{Logger: config.Logger{Encoding: "console", Level: "error"}}
	l := logger.NewApiLogger(cfg)
	l.InitLogger()
	return l
}

func newTestStore(t *testing.T, ttl time.Duration, maxBytes int64) *diskStore {
	t.Helper()
	return &diskStore{
		root:          t.TempDir(),
		ttl:           ttl,
		sweepInterval: time.Minute,
		maxTotalBytes: maxBytes,
		logger:        testLogger(),
	}
}

func stageTmpFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "assembled.mp4")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRegisterAndLookup(t *testing.T) {
	s := newTestStore(t, time.Hour, 0)

	artifact, err := s.Register(stageTmpFile(t, "video-bytes"), "my clip")
	require.NoError(t, err)
	assert.Equal(t, "my clip.mp4", artifact.ID)
	assert.Equal(t, int64(len("video-bytes")), artifact.SizeBytes)

	got, err := s.Lookup(artifact.ID)
	require.NoError(t, err)

	data, err := os.ReadFile(got.Path)
	require.NoError(t, err)
	assert.Equal(t, []byte("video-bytes"), data)
}

func TestRegisterResolvesCollisions(t *testing.T) {
	s := newTestStore(t, time.Hour, 0)

	first, err := s.Register(stageTmpFile(t, "one"), "clip")
	require.NoError(t, err)
	second, err := s.Register(stageTmpFile(t, "two"), "clip")
	require.NoError(t, err)
	third, err := s.Register(stageTmpFile(t, "three"), "clip")
	require.NoError(t, err)

	assert.Equal(t, "clip.mp4", first.ID)
	assert.Equal(t, "clip_1.mp4", second.ID)
	assert.Equal(t, "clip_2.mp4", third.ID)

	// First artifact was not overwritten.
	got, err := s.Lookup("clip.mp4")
	require.NoError(t, err)
	data, err := os.ReadFile(got.Path)
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), data)
}

func TestLookupUnknownReturnsNotFound(t *testing.T) {
	s := newTestStore(t, time.Hour, 0)
	_, err := s.Lookup("nope.mp4")
	assert.True(t, errors.Is(err, downloads.ErrNotFound))
}

func TestLookupExpiredReturnsNotFound(t *testing.T) {
	s := newTestStore(t, time.Minute, 0)

	artifact, err := s.Register(stageTmpFile(t, "old"), "old-clip")
	require.NoError(t, err)

	past := time.Now().Add(-2 * time.Minute)
	require.NoError(t, os.Chtimes(artifact.Path, past, past))

	_, err = s.Lookup(artifact.ID)
	assert.True(t, errors.Is(err, downloads.ErrNotFound))
}

func TestLookupByPrefix(t *testing.T) {
	s := newTestStore(t, time.Hour, 0)

	_, err := s.Register(stageTmpFile(t, "x"), "Holiday Video")
	require.NoError(t, err)

	got, err := s.LookupByPrefix("holiday")
	require.NoError(t, err)
	assert.Equal(t, "Holiday Video.mp4", got.ID)

	_, err = s.LookupByPrefix("missing")
	assert.True(t, errors.Is(err, downloads.ErrNotFound))
}

func TestListExcludesExpired(t *testing.T) {
	s := newTestStore(t, time.Minute, 0)

	live, err := s.Register(stageTmpFile(t, "live"), "live-clip")
	require.NoError(t, err)
	expired, err := s.Register(stageTmpFile(t, "expired"), "expired-clip")
	require.NoError(t, err)

	past := time.Now().Add(-2 * time.Minute)
	require.NoError(t, os.Chtimes(expired.Path, past, past))

	files, err := s.List()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, live.ID, files[0].Name)
	assert.Equal(t, int64(len("live")), files[0].Size)
	assert.GreaterOrEqual(t, files[0].AgeSeconds, 0.0)
}

func TestDelete(t *testing.T) {
	s := newTestStore(t, time.Hour, 0)

	artifact, err := s.Register(stageTmpFile(t, "bye"), "bye-clip")
	require.NoError(t, err)

	require.NoError(t, s.Delete(artifact.ID))
	_, err = s.Lookup(artifact.ID)
	assert.True(t, errors.Is(err, downloads.ErrNotFound))

	assert.True(t, errors.Is(s.Delete(artifact.ID), downloads.ErrNotFound))
}

func TestSweepRemovesExpired(t *testing.T) {
	s := newTestStore(t, time.Minute, 0)

	keep, err := s.Register(stageTmpFile(t, "keep"), "keep-clip")
	require.NoError(t, err)
	drop, err := s.Register(stageTmpFile(t, "drop"), "drop-clip")
	require.NoError(t, err)

	past := time.Now().Add(-2 * time.Minute)
	require.NoError(t, os.Chtimes(drop.Path, past, past))

	s.sweep()

	_, err = s.Lookup(keep.ID)
	assert.NoError(t, err)
	_, statErr := os.Stat(drop.Path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSweepEvictsOldestOverSizeCeiling(t *testing.T) {
	s := newTestStore(t, time.Hour, 10)

	oldest, err := s.Register(stageTmpFile(t, "aaaaaa"), "oldest")
	require.NoError(t, err)
	newest, err := s.Register(stageTmpFile(t, "bbbbbb"), "newest")
	require.NoError(t, err)

	past := time.Now().Add(-time.Minute)
	require.NoError(t, os.Chtimes(oldest.Path, past, past))

	s.sweep()

	_, statErr := os.Stat(oldest.Path)
	assert.True(t, os.IsNotExist(statErr))
	_, err = s.Lookup(newest.ID)
	assert.NoError(t, err)
}
