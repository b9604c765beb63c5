package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streampull/stream-downloader/internal/models"
)

func TestJobManagerLifecycle(t *testing.T) {
	m := NewJobManager()

	job := m.Create("https://cdn.example.com/playlist.m3u8", "clip")
	require.NotEmpty(t, job.ID)
	assert.Equal(t, models.JobStatePending, job.State)
	assert.Equal(t, 1, m.Len())

	got, ok := m.Get(job.ID)
	require.True(t, ok)
	assert.Same(t, job, got)

	m.Remove(job.ID)
	_, ok = m.Get(job.ID)
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestJobManagerAssignsUniqueIDs(t *testing.T) {
	m := NewJobManager()
	a := m.Create("https://cdn.example.com/a.m3u8", "")
	b := m.Create("https://cdn.example.com/b.m3u8", "")
	assert.NotEqual(t, a.ID, b.ID)
}
