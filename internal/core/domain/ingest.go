package domain

import "time"

// IngestRequest is the raw input handed to the content orchestrator.
// ContentID is optional; when empty the strategy assigns one.
type IngestRequest struct {
	ContentType ContentKind
	ContentID   string
	UserID      string
	Title       string
	Text        string
	Categories  []string
	Tags        []string
	Access      AccessLevel
	SharedWith  []string
	Source      string
	RelatedIDs  []string

	// Kind-specific payload matching ContentType. May be nil; strategies
	// derive what they can from the text.
	Document *DocumentPayload
	Note     *NotePayload
	Activity *ActivityPayload
}

// ProcessingState is the lifecycle of a background ingestion run.
type ProcessingState string

// Background processing states.
const (
	ProcessingPending   ProcessingState = "pending"
	ProcessingRunning   ProcessingState = "running"
	ProcessingCompleted ProcessingState = "completed"
	ProcessingFailed    ProcessingState = "failed"
)

// ProcessingStatus is the pollable status of a background ingestion run,
// keyed by the processing ID returned from StartAsync.
type ProcessingStatus struct {
	ProcessingID string
	ContentID    string
	State        ProcessingState

	// Error is set when State is ProcessingFailed.
	Error string

	// Result is set when State is ProcessingCompleted.
	Result *StorageResult

	StartedAt  time.Time
	FinishedAt time.Time
}
