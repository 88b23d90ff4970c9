package models

// Severity classifies a parse error.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ParseError represents a problem encountered while parsing.
// Line and Column are best-effort: 0 means unknown.
type ParseError struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Line     int      `json:"line,omitempty"`
	Column   int      `json:"column,omitempty"`
}

// Record is one parsed unit of a document: a full JSON value for JSON files,
// one line for JSONL, one row for CSV/TSV. Immutable once parsed.
type Record struct {
	Index    int          `json:"index"`
	Value    interface{}  `json:"value"`
	Raw      string       `json:"raw,omitempty"`
	Errors   []ParseError `json:"errors,omitempty"`
	ByteSize int          `json:"byteSize"`
}

// HasErrors reports whether the record failed to parse cleanly.
func (r *Record) HasErrors() bool {
	return len(r.Errors) > 0
}
