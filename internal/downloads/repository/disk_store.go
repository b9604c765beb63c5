package repository

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/streampull/stream-downloader/internal/config"
	"github.com/streampull/stream-downloader/internal/downloads"
	"github.com/streampull/stream-downloader/internal/models"
	"github.com/streampull/stream-downloader/pkg/logger"
	"github.com/streampull/stream-downloader/pkg/utils"
)

const (
	defaultTTL           = 3 * time.Minute
	defaultSweepInterval = 30 * time.Second
)

type diskStore struct {
	root          string
	ttl           time.Duration
	sweepInterval time.Duration
	maxTotalBytes int64
	logger        logger.Logger
	mu            sync.Mutex
}

// NewDiskStore builds a FileStore rooted at cfg.Store.Root. The directory
// itself is the source of truth: ids are file names, creation times are
// file mtimes, so the store survives restarts without a separate index.
func NewDiskStore(cfg *config.Config, log logger.Logger) (downloads.FileStore, error) {
	if cfg.Store.Root == "" {
		return nil, errors.New("store root is not configured")
	}
	if err := os.MkdirAll(cfg.Store.Root, 0o755); err != nil {
		return nil, errors.Wrap(err, "create store root")
	}

	ttl := defaultTTL
	if cfg.Store.TTLMinutes > 0 {
		ttl = time.Duration(cfg.Store.TTLMinutes) * time.Minute
	}
	sweepInterval := defaultSweepInterval
	if cfg.Store.SweepSeconds > 0 {
		sweepInterval = time.Duration(cfg.Store.SweepSeconds) * time.Second
	}

	return &diskStore{
		root:          cfg.Store.Root,
		ttl:           ttl,
		sweepInterval: sweepInterval,
		maxTotalBytes: cfg.Store.MaxTotalBytes,
		logger:        log,
	}, nil
}

func (s *diskStore) Register(tmpPath, desiredName string) (*models.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := utils.SanitizeFileName(desiredName)
	base := strings.TrimSuffix(name, utils.OutputExt)

	// Resolve name collisions by numeric suffixing, never by overwrite.
	for i := 1; ; i++ {
		if _, err := os.Stat(filepath.Join(s.root, name)); os.IsNotExist(err) {
			break
		}
		name = fmt.Sprintf("%s_%d%s", base, i, utils.OutputExt)
	}

	dst := filepath.Join(s.root, name)
	if err := moveFile(tmpPath, dst); err != nil {
		return nil, errors.Wrapf(err, "register %s", name)
	}

	info, err := os.Stat(dst)
	if err != nil {
		return nil, errors.Wrapf(err, "stat registered artifact %s", name)
	}

	s.logger.Infof("Register - stored artifact %s (%d bytes)", name, info.Size())
	return &models.Artifact{
		ID:        name,
		Path:      dst,
		SizeBytes: info.Size(),
		CreatedAt: info.ModTime(),
	}, nil
}

func (s *diskStore) Lookup(id string) (*models.Artifact, error) {
	name := filepath.Base(id)
	path := filepath.Join(s.root, name)

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, downloads.ErrNotFound
	}
	if s.expired(info.ModTime()) {
		// Do not serve a stale file between sweeps.
		return nil, downloads.ErrNotFound
	}

	return &models.Artifact{
		ID:        name,
		Path:      path,
		SizeBytes: info.Size(),
		CreatedAt: info.ModTime(),
	}, nil
}

func (s *diskStore) LookupByPrefix(partial string) (*models.Artifact, error) {
	entries, err := s.liveEntries()
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(partial)
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.name), needle) {
			return &models.Artifact{
				ID:        e.name,
				Path:      filepath.Join(s.root, e.name),
				SizeBytes: e.size,
				CreatedAt: e.modTime,
			}, nil
		}
	}
	return nil, downloads.ErrNotFound
}

func (s *diskStore) List() ([]models.FileInfo, error) {
	entries, err := s.liveEntries()
	if err != nil {
		return nil, err
	}
	files := make([]models.FileInfo, 0, len(entries))
	for _, e := range entries {
		files = append(files, models.FileInfo{
			Name:       e.name,
			Size:       e.size,
			AgeSeconds: time.Since(e.modTime).Seconds(),
		})
	}
	return files, nil
}

func (s *diskStore) Delete(id string) error {
	name := filepath.Base(id)
	path := filepath.Join(s.root, name)
	if _, err := os.Stat(path); err != nil {
		return downloads.ErrNotFound
	}
	if err := os.Remove(path); err != nil {
		return errors.Wrapf(err, "delete artifact %s", name)
	}
	return nil
}

func (s *diskStore) StartSweeper(ctx context.Context) {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep removes expired artifacts, then evicts oldest-first while the total
// stored size exceeds the configured ceiling. Removal is unlink-only, which
// is safe against a concurrent serving read.
func (s *diskStore) sweep() {
	entries, err := s.allEntries()
	if err != nil {
		s.logger.Errorf("sweep - list store: %v", err)
		return
	}

	var total int64
	live := entries[:0]
	for _, e := range entries {
		if s.expired(e.modTime) {
			s.removeSwept(e.name, "expired")
			continue
		}
		total += e.size
		live = append(live, e)
	}

	if s.maxTotalBytes <= 0 {
		return
	}
	sort.Slice(live, func(i, j int) bool { return live[i].modTime.Before(live[j].modTime) })
	for _, e := range live {
		if total <= s.maxTotalBytes {
			break
		}
		s.removeSwept(e.name, "size ceiling")
		total -= e.size
	}
}

func (s *diskStore) removeSwept(name, reason string) {
	if err := os.Remove(filepath.Join(s.root, name)); err != nil {
		s.logger.Errorf("sweep - remove %s: %v", name, err)
		return
	}
	s.logger.Infof("sweep - removed artifact %s (%s)", name, reason)
}

func (s *diskStore) expired(modTime time.Time) bool {
	return s.ttl > 0 && time.Since(modTime) > s.ttl
}

type storeEntry struct {
	name    string
	size    int64
	modTime time.Time
}

func (s *diskStore) allEntries() ([]storeEntry, error) {
	dirEntries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, errors.Wrap(err, "read store root")
	}
	entries := make([]storeEntry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() || !strings.EqualFold(filepath.Ext(de.Name()), utils.OutputExt) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, storeEntry{
			name:    de.Name(),
			size:    info.Size(),
			modTime: info.ModTime(),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })
	return entries, nil
}

func (s *diskStore) liveEntries() ([]storeEntry, error) {
	entries, err := s.allEntries()
	if err != nil {
		return nil, err
	}
	live := entries[:0]
	for _, e := range entries {
		if !s.expired(e.modTime) {
			live = append(live, e)
		}
	}
	return live, nil
}

// moveFile renames src into place, falling back to copy-and-remove when the
// temp dir lives on a different filesystem.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err = io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err = out.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	return os.Remove(src)
}
