// Package models contains domain types for the DataScope viewer.
package models

// Format identifies the detected file format of a document.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatCSV   Format = "csv"
	FormatTSV   Format = "tsv"
)

// ColumnInfo describes one inferred column of a tabular document.
type ColumnInfo struct {
	Name string `json:"name"`
	// Type is the display type inferred from sampled rows:
	// "string", "number", "boolean", "null", "object", "array" or "mixed".
	Type string `json:"type"`
}

// Summary holds per-document metadata computed at parse time.
type Summary struct {
	LineCount int          `json:"lineCount"`
	Delimiter string       `json:"delimiter,omitempty"`
	Columns   []ColumnInfo `json:"columns,omitempty"`
}

// Document is the full parsed file: metadata plus the ordered record list.
// A document is replaced wholesale on each new load and never partially
// mutated; edits live in the session's modification map.
type Document struct {
	ID          string   `json:"id"`
	FileName    string   `json:"fileName"`
	Format      Format   `json:"format"`
	Records     []Record `json:"records"`
	Summary     Summary  `json:"summary"`
	RecordCount int      `json:"recordCount"`
	ByteSize    int64    `json:"byteSize"`
}

// NewDocument creates an empty document for the given source file.
func NewDocument(id, fileName string, format Format) *Document {
	return &Document{
		ID:       id,
		FileName: fileName,
		Format:   format,
		Records:  make([]Record, 0),
	}
}
