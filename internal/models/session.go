package models

// SessionStatus represents the status of a document session.
type SessionStatus string

const (
	SessionStatusPending  SessionStatus = "pending"
	SessionStatusParsing  SessionStatus = "parsing"
	SessionStatusComplete SessionStatus = "complete"
	SessionStatusError    SessionStatus = "error"
)

// DocumentSession is the wire representation of one loaded document and its
// view state. The modification map itself is kept server-side; only the
// derived HasChanges flag travels to the client.
type DocumentSession struct {
	ID               string        `json:"id"`
	FileID           string        `json:"fileId"`
	Status           SessionStatus `json:"status"`
	Progress         float64       `json:"progress"` // 0-100
	ActiveIndex      int           `json:"activeIndex"`
	RecordCount      int           `json:"recordCount,omitempty"`
	HasChanges       bool          `json:"hasChanges"`
	ProcessingTimeMs int64         `json:"processingTimeMs,omitempty"`
	Format           Format        `json:"format,omitempty"`
	Errors           []ParseError  `json:"errors,omitempty"`
}

// NewDocumentSession creates a new session in pending status.
func NewDocumentSession(id, fileID string) *DocumentSession {
	return &DocumentSession{
		ID:       id,
		FileID:   fileID,
		Status:   SessionStatusPending,
		Progress: 0,
		Errors:   make([]ParseError, 0),
	}
}
