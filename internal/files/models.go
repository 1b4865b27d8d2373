package files

import (
	"io"
	"time"
)

// PlaceholderName is the sentinel object storage backends keep in otherwise
// empty folders. It is never shown.
const PlaceholderName = ".emptyFolderPlaceholder"

// FileRecord is one stored object as known to the client. Path is the
// storage key used for every backend call; ID may be empty.
type FileRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Path      string    `json:"path"`
}

type UploadStatus string

const (
	StatusUploading UploadStatus = "uploading"
	StatusCompleted UploadStatus = "completed"
	StatusFailed    UploadStatus = "error"
)

// UploadTask tracks one file of the running batch. Progress is coarse:
// 0 when queued, 50 while its request is in flight, 100 when done.
type UploadTask struct {
	FileName string       `json:"file_name"`
	Progress int          `json:"progress"`
	Status   UploadStatus `json:"status"`
}

// Upload is one file handed to Orchestrator.Upload.
type Upload struct {
	Name        string
	Size        int64
	ContentType string
	Body        io.Reader
}

// State is a snapshot of the orchestrator. Revision increases every time
// Files is replaced, which lets views memoize derived lists.
type State struct {
	Files     []FileRecord `json:"files"`
	Loading   bool         `json:"loading"`
	Uploading bool         `json:"uploading"`
	Tasks     []UploadTask `json:"tasks"`
	Revision  uint64       `json:"revision"`
}
