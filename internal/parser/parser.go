// Package parser turns raw file content into documents. Each format has a
// thin adapter: JSON and JSONL delegate to native JSON decoding, CSV and TSV
// delegate to DuckDB's CSV engine.
package parser

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/datascope/backend/internal/models"
)

// Parser defines the interface for document parsers.
type Parser interface {
	// Name returns the unique name of the parser.
	Name() string
	// Formats returns the formats this parser handles.
	Formats() []models.Format
	// Parse parses the file at filePath and returns the document.
	// Parse-level problems come back as ParseErrors; err is reserved for
	// I/O and engine failures. A nil document with errors means the file
	// could not be loaded at all.
	Parse(filePath, fileName string) (*models.Document, []models.ParseError, error)
}

// lineColFromOffset converts a byte offset into a 1-based line/column pair.
func lineColFromOffset(data []byte, offset int64) (line, col int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	prefix := data[:offset]
	line = bytes.Count(prefix, []byte{'\n'}) + 1
	lastNL := bytes.LastIndexByte(prefix, '\n')
	col = int(offset) - lastNL // lastNL is -1 when offset is on the first line
	return line, col
}

// countLines returns the number of lines in data, counting a trailing
// fragment without a newline as a line.
func countLines(data []byte) int {
	if len(data) == 0 {
		return 0
	}
	n := bytes.Count(data, []byte{'\n'})
	if data[len(data)-1] != '\n' {
		n++
	}
	return n
}

// trailingDataError reports non-whitespace content after a complete JSON
// value. offset is where the first value ended.
type trailingDataError struct {
	offset int64
}

func (e *trailingDataError) Error() string {
	return "unexpected content after JSON value"
}

// decodeJSONValue unmarshals data preserving number fidelity via json.Number,
// so re-serializing a record reproduces semantically equivalent JSON. Input
// must hold exactly one value; trailing content is an error, otherwise it
// would be silently dropped on export.
func decodeJSONValue(data []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	off := dec.InputOffset()
	if _, err := dec.Token(); err != io.EOF {
		return nil, &trailingDataError{offset: off}
	}
	return v, nil
}
