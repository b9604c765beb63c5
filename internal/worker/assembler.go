package worker

import (
	"io"
	"os"
	"path/filepath"

	"github.com/streampull/stream-downloader/internal/downloads"
	"github.com/streampull/stream-downloader/pkg/logger"
)

// Assembler concatenates fetched segments into one output file.
type Assembler struct {
	logger logger.Logger
}

func NewAssembler(log logger.Logger) *Assembler {
	return &Assembler{logger: log}
}

// Assemble writes segments 0..count-1 from dir into dstPath strictly in
// index order, fsyncing before returning. On any failure the partial output
// is removed, so a registered artifact is always fully written.
func (a *Assembler) Assemble(dir string, count int, dstPath string) (int64, error) {
	out, err := os.Create(dstPath)
	if err != nil {
		return 0, &downloads.AssemblyError{Err: err}
	}

	var written int64
	for i := 0; i < count; i++ {
		n, err := appendSegment(out, filepath.Join(dir, SegmentFileName(i)))
		if err != nil {
			out.Close()
			os.Remove(dstPath)
			return 0, &downloads.AssemblyError{Err: err}
		}
		written += n
	}

	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(dstPath)
		return 0, &downloads.AssemblyError{Err: err}
	}
	if err := out.Close(); err != nil {
		os.Remove(dstPath)
		return 0, &downloads.AssemblyError{Err: err}
	}

	a.logger.Infof("Assemble - wrote %d segments, %d bytes", count, written)
	return written, nil
}

func appendSegment(out *os.File, path string) (int64, error) {
	in, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer in.Close()
	return io.Copy(out, in)
}
