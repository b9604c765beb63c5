package usecase

import (
	"fmt"
	"sync"

	"github.com/streampull/stream-downloader/internal/downloads"
	"github.com/streampull/stream-downloader/internal/models"
	"github.com/streampull/stream-downloader/pkg/logger"
)

// stateMachine is the single writer of one job's state and progress. All
// transitions and the status emit happen under one lock, which also
// serializes writes to the single-consumer status connection.
type stateMachine struct {
	mu     sync.Mutex
	job    *models.Job
	emit   downloads.StatusEmitter
	logger logger.Logger
}

func newStateMachine(job *models.Job, emit downloads.StatusEmitter, log logger.Logger) *stateMachine {
	if emit == nil {
		emit = func(models.StatusMessage) {}
	}
	return &stateMachine{
		job:    job,
		emit:   emit,
		logger: log,
	}
}

// guard rejects events arriving in the wrong state. Late events on a
// terminal job are a protocol anomaly, not an error.
func (s *stateMachine) guard(event string, from models.JobState) bool {
	if s.job.State.Terminal() {
		s.logger.Warnf("job %s: ignoring %s after terminal state %s", s.job.ID, event, s.job.State)
		return false
	}
	if s.job.State != from {
		s.logger.Warnf("job %s: ignoring %s in state %s", s.job.ID, event, s.job.State)
		return false
	}
	return true
}

func (s *stateMachine) ToResolving() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.guard("resolve", models.JobStatePending) {
		return
	}
	s.job.State = models.JobStateResolving
	s.emit(models.NewProgressStatus(s.job.Progress, "resolving playlist"))
}

func (s *stateMachine) ToDownloading(segments []*models.SegmentTask) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.guard("download", models.JobStateResolving) {
		return
	}
	if len(segments) == 0 {
		s.failLocked(fmt.Errorf("playlist resolved to zero segments"))
		return
	}
	s.job.Segments = segments
	s.job.State = models.JobStateDownloading
	s.emit(models.NewProgressStatus(s.job.Progress, fmt.Sprintf("downloading %d segments", len(segments))))
}

// SegmentDone recomputes progress as floor(100*done/total). Progress never
// decreases; a stale done-count observed out of order is dropped.
func (s *stateMachine) SegmentDone(done, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job.State != models.JobStateDownloading || total <= 0 {
		return
	}
	progress := 100 * done / total
	if progress <= s.job.Progress && done != total {
		return
	}
	if progress > s.job.Progress {
		s.job.Progress = progress
	}
	s.emit(models.NewProgressStatus(s.job.Progress, fmt.Sprintf("downloaded %d/%d segments", done, total)))
}

func (s *stateMachine) ToAssembling() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.guard("assemble", models.JobStateDownloading) {
		return
	}
	s.job.State = models.JobStateAssembling
	s.emit(models.NewProgressStatus(s.job.Progress, "assembling segments"))
}

func (s *stateMachine) ToCompleted(artifactID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.guard("complete", models.JobStateAssembling) {
		return
	}
	s.job.State = models.JobStateCompleted
	s.job.Progress = 100
	s.job.ArtifactID = artifactID
	s.emit(models.NewCompletedStatus(artifactID, fmt.Sprintf("download complete: %s", artifactID)))
}

func (s *stateMachine) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job.State.Terminal() {
		s.logger.Warnf("job %s: ignoring failure after terminal state %s: %v", s.job.ID, s.job.State, err)
		return
	}
	s.failLocked(err)
}

func (s *stateMachine) failLocked(err error) {
	s.job.State = models.JobStateFailed
	s.job.ErrorDetail = err.Error()
	s.emit(models.NewErrorStatus(s.job.Progress, s.job.ErrorDetail))
}

// Status returns the current state and progress for observation.
func (s *stateMachine) Status() (models.JobState, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.job.State, s.job.Progress
}
