package models

// CompareKind selects what a compare source points at.
type CompareKind string

const (
	// CompareKindRecord is a single record of the loaded document, with the
	// modification overlay applied.
	CompareKindRecord CompareKind = "record"
	// CompareKindColumn is one column's values across all records.
	CompareKindColumn CompareKind = "column"
	// CompareKindFile is a record of a second, externally loaded file.
	CompareKindFile CompareKind = "file"
)

// CompareSource selects one side of the compare view.
type CompareSource struct {
	Kind CompareKind `json:"kind"`
	// RecordIndex applies to record and file kinds.
	RecordIndex int `json:"recordIndex,omitempty"`
	// Column applies to the column kind.
	Column string `json:"column,omitempty"`
	// FileID applies to the file kind and names the second uploaded file.
	FileID string `json:"fileId,omitempty"`
}
