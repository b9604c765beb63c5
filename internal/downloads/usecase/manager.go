package usecase

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/streampull/stream-downloader/internal/models"
)

// JobManager owns the registry of live jobs. Jobs are inserted on creation
// and removed once their terminal status has been delivered; nothing here is
// global, the manager is passed to whoever needs it.
type JobManager struct {
	mu   sync.RWMutex
	jobs map[string]*models.Job
}

func NewJobManager() *JobManager {
	return &JobManager{
		jobs: make(map[string]*models.Job),
	}
}

func (m *JobManager) Create(sourceRef, desiredName string) *models.Job {
	job := &models.Job{
		ID:          uuid.New().String(),
		SourceRef:   sourceRef,
		DesiredName: desiredName,
		State:       models.JobStatePending,
		CreatedAt:   time.Now(),
	}
	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()
	return job
}

func (m *JobManager) Get(id string) (*models.Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	return job, ok
}

func (m *JobManager) Remove(id string) {
	m.mu.Lock()
	delete(m.jobs, id)
	m.mu.Unlock()
}

func (m *JobManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.jobs)
}
