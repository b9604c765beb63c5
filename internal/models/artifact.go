package models

import "time"

// Artifact is a completed, assembled output file. Owned exclusively by the
// file store; created on registration, destroyed by retention or deletion.
type Artifact struct {
	ID        string    `json:"id"`
	Path      string    `json:"-"`
	SizeBytes int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

type FileInfo struct {
	Name       string  `json:"name"`
	Size       int64   `json:"size"`
	AgeSeconds float64 `json:"age_seconds"`
}

type FileList struct {
	Files []FileInfo `json:"files"`
}
