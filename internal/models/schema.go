package models

// SchemaField summarizes one field path observed across a document's records.
// The tree is derived data: recomputed whenever the document changes, used
// only for diagnostic display, never for enforcement.
type SchemaField struct {
	Name string `json:"name"`
	Path string `json:"path"`
	// Types is the sorted union of value types observed at this path.
	Types []string `json:"types"`
	// Count is the exact number of records in which the field appears.
	Count int `json:"count"`
	// Consistent is true iff the field appears in every record.
	Consistent bool           `json:"consistent"`
	Children   []*SchemaField `json:"children,omitempty"`
}

// SchemaTree is the root of the inferred field hierarchy for a document.
type SchemaTree struct {
	RecordCount int            `json:"recordCount"`
	Fields      []*SchemaField `json:"fields"`
}
