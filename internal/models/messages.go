package models

// DownloadRequest is the single inbound message accepted on a status
// connection. Validated at the transport boundary before any job is created.
type DownloadRequest struct {
	URL      string `json:"url" validate:"required,url"`
	FileName string `json:"file_name" validate:"omitempty,lte=255"`
}

type StatusKind string

const (
	StatusDownloading StatusKind = "downloading"
	StatusCompleted   StatusKind = "completed"
	StatusError       StatusKind = "error"
)

// StatusMessage is one outbound message on a status connection. FileID is
// present only when Status is "completed".
type StatusMessage struct {
	Status   StatusKind `json:"status"`
	Progress int        `json:"progress"`
	Message  string     `json:"message"`
	FileID   string     `json:"file_id,omitempty"`
}

func NewProgressStatus(progress int, message string) StatusMessage {
	return StatusMessage{
		Status:   StatusDownloading,
		Progress: progress,
		Message:  message,
	}
}

func NewCompletedStatus(fileID, message string) StatusMessage {
	return StatusMessage{
		Status:   StatusCompleted,
		Progress: 100,
		Message:  message,
		FileID:   fileID,
	}
}

func NewErrorStatus(progress int, message string) StatusMessage {
	return StatusMessage{
		Status:   StatusError,
		Progress: progress,
		Message:  message,
	}
}
