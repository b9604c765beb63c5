package models

import (
	"time"
)

type JobState string

const (
	JobStatePending     JobState = "pending"
	JobStateResolving   JobState = "resolving"
	JobStateDownloading JobState = "downloading"
	JobStateAssembling  JobState = "assembling"
	JobStateCompleted   JobState = "completed"
	JobStateFailed      JobState = "failed"
)

// Terminal reports whether no further transitions are accepted from s.
func (s JobState) Terminal() bool {
	return s == JobStateCompleted || s == JobStateFailed
}

type SegmentState string

const (
	SegmentQueued   SegmentState = "queued"
	SegmentInFlight SegmentState = "in_flight"
	SegmentDone     SegmentState = "done"
	SegmentFailed   SegmentState = "failed"
)

// SegmentTask is one fetchable unit of a stream. Index values across a job
// are unique and contiguous from 0; assembly always happens in index order.
type SegmentTask struct {
	Index   int          `json:"index"`
	Locator string       `json:"locator"`
	Attempt int          `json:"attempt"`
	State   SegmentState `json:"state"`
}

// Job is one end-to-end request to acquire and assemble a stream into a
// single file. It is mutated only by the job runner and lives in the
// JobManager map for the lifetime of the serving connection.
type Job struct {
	ID          string         `json:"job_id"`
	SourceRef   string         `json:"source_ref"`
	DesiredName string         `json:"desired_name,omitempty"`
	State       JobState       `json:"state"`
	Progress    int            `json:"progress"`
	Segments    []*SegmentTask `json:"-"`
	ArtifactID  string         `json:"artifact_id,omitempty"`
	ErrorDetail string         `json:"error_detail,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
