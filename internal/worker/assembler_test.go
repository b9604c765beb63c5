package worker

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streampull/stream-downloader/internal/config"
	"github.com/streampull/stream-downloader/internal/downloads"
	"github.com/streampull/stream-downloader/pkg/logger"
)

func newTestAssembler() *Assembler {
	cfg := &config.Config{Logger: config.Logger{Encoding: "console", Level: "error"}}
	log := logger.NewApiLogger(cfg)
	log.InitLogger()
	return NewAssembler(log)
}

func writeSegments(t *testing.T, dir string, chunks [][]byte) {
	t.Helper()
	for i, chunk := range chunks {
		require.NoError(t, os.WriteFile(filepath.Join(dir, SegmentFileName(i)), chunk, 0o644))
	}
}

func TestAssembleConcatenatesInIndexOrder(t *testing.T) {
	dir := t.TempDir()
	chunks := [][]byte{[]byte("first-"), []byte("second-"), []byte("third")}
	writeSegments(t, dir, chunks)

	dst := filepath.Join(dir, "out.mp4")
	a := newTestAssembler()
	written, err := a.Assemble(dir, len(chunks), dst)
	require.NoError(t, err)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte("first-second-third"), data)
	assert.Equal(t, int64(len(data)), written)
}

func TestAssembleMissingSegmentRemovesPartialOutput(t *testing.T) {
	dir := t.TempDir()
	writeSegments(t, dir, [][]byte{[]byte("only-segment")})

	dst := filepath.Join(dir, "out.mp4")
	a := newTestAssembler()
	_, err := a.Assemble(dir, 3, dst)
	require.Error(t, err)

	var asmErr *downloads.AssemblyError
	assert.True(t, errors.As(err, &asmErr))

	_, statErr := os.Stat(dst)
	assert.True(t, os.IsNotExist(statErr))
}
