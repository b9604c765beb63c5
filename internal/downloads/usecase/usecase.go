package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/streampull/stream-downloader/internal/config"
	"github.com/streampull/stream-downloader/internal/downloads"
	"github.com/streampull/stream-downloader/internal/models"
	"github.com/streampull/stream-downloader/internal/worker"
	"github.com/streampull/stream-downloader/pkg/logger"
	"github.com/streampull/stream-downloader/pkg/utils"
)

const assembledFileName = "output.mp4"

type downloadsUC struct {
	cfg       *config.Config
	manager   *JobManager
	resolver  downloads.Resolver
	engine    *worker.Engine
	assembler *worker.Assembler
	store     downloads.FileStore
	logger    logger.Logger
}

func NewDownloadsUseCase(
	cfg *config.Config,
	manager *JobManager,
	resolver downloads.Resolver,
	engine *worker.Engine,
	assembler *worker.Assembler,
	store downloads.FileStore,
	log logger.Logger,
) downloads.UseCase {
	return &downloadsUC{
		cfg:       cfg,
		manager:   manager,
		resolver:  resolver,
		engine:    engine,
		assembler: assembler,
		store:     store,
		logger:    log,
	}
}

// Run drives one job through the full pipeline. ctx is derived from the
// status connection: when the connection drops, outstanding fetches are
// cancelled rather than finishing orphaned.
func (u *downloadsUC) Run(ctx context.Context, req *models.DownloadRequest, emit downloads.StatusEmitter) {
	if u.cfg.Downloader.MaxCPUUsage > 0 {
		if ok, usage := utils.CheckCPUUsage(u.cfg.Downloader.MaxCPUUsage); !ok {
			u.logger.Warnf("Run - rejecting job, CPU usage %.1f%% above ceiling", usage)
			emit(models.NewErrorStatus(0, "server is overloaded, try again later"))
			return
		}
	}

	job := u.manager.Create(req.URL, req.FileName)
	defer u.manager.Remove(job.ID)

	sm := newStateMachine(job, emit, u.logger)
	u.logger.Infof("Run - job %s started for %s", job.ID, req.URL)

	sm.ToResolving()
	segments, err := u.resolver.Resolve(ctx, req.URL)
	if err != nil {
		u.logger.Errorf("Run - job %s resolution failed: %v", job.ID, err)
		sm.Fail(err)
		return
	}
	sm.ToDownloading(segments)
	if state, _ := sm.Status(); state.Terminal() {
		return
	}

	workDir, err := os.MkdirTemp(u.tempRoot(), "job-"+job.ID+"-")
	if err != nil {
		sm.Fail(fmt.Errorf("create working directory: %w", err))
		return
	}
	defer os.RemoveAll(workDir)

	if err := u.engine.Run(ctx, segments, workDir, sm.SegmentDone); err != nil {
		u.logger.Errorf("Run - job %s download failed: %v", job.ID, err)
		sm.Fail(err)
		return
	}

	sm.ToAssembling()
	assembled := filepath.Join(workDir, assembledFileName)
	if _, err := u.assembler.Assemble(workDir, len(segments), assembled); err != nil {
		u.logger.Errorf("Run - job %s assembly failed: %v", job.ID, err)
		sm.Fail(err)
		return
	}

	desiredName := req.FileName
	if desiredName == "" {
		desiredName = utils.NameFromURL(req.URL)
	}
	artifact, err := u.store.Register(assembled, desiredName)
	if err != nil {
		u.logger.Errorf("Run - job %s registration failed: %v", job.ID, err)
		sm.Fail(&downloads.AssemblyError{Err: err})
		return
	}

	sm.ToCompleted(artifact.ID)
	u.logger.Infof("Run - job %s completed, artifact %s (%d bytes)", job.ID, artifact.ID, artifact.SizeBytes)
}

func (u *downloadsUC) tempRoot() string {
	if u.cfg.Store.TempDir == "" {
		return os.TempDir()
	}
	if err := os.MkdirAll(u.cfg.Store.TempDir, 0o755); err != nil {
		return os.TempDir()
	}
	return u.cfg.Store.TempDir
}
