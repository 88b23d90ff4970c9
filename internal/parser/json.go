package parser

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/datascope/backend/internal/models"
)

// JSONParser parses a whole file as a single JSON value.
type JSONParser struct {
	lenient bool
}

// NewJSONParser creates a JSON parser. When lenient is true, the non-standard
// literals NaN, Infinity, -Infinity and undefined are rewritten to quoted
// strings before parsing, trading fidelity for leniency.
func NewJSONParser(lenient bool) *JSONParser {
	return &JSONParser{lenient: lenient}
}

func (p *JSONParser) Name() string { return "json" }

func (p *JSONParser) Formats() []models.Format {
	return []models.Format{models.FormatJSON}
}

func (p *JSONParser) Parse(filePath, fileName string) (*models.Document, []models.ParseError, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, nil, err
	}

	input := data
	var rewrites []int64
	if p.lenient {
		input, rewrites = rewriteLenientLiterals(data)
	}

	value, err := decodeJSONValue(input)
	if err != nil {
		return nil, []models.ParseError{jsonParseError(data, rewrites, err)}, nil
	}

	doc := models.NewDocument("", fileName, models.FormatJSON)
	doc.Records = append(doc.Records, models.Record{
		Index:    0,
		Value:    value,
		Raw:      string(data),
		ByteSize: len(data),
	})
	doc.RecordCount = 1
	doc.ByteSize = int64(len(data))
	doc.Summary = models.Summary{LineCount: countLines(data)}
	return doc, nil, nil
}

// jsonParseError turns a native decode error into a structured ParseError,
// recovering line/column from the error offset when available. original is
// the pre-rewrite text and rewriteEnds the lenient replacement end offsets,
// so reported positions refer to what the user actually typed.
func jsonParseError(original []byte, rewriteEnds []int64, err error) models.ParseError {
	pe := models.ParseError{
		Severity: models.SeverityError,
		Message:  fmt.Sprintf("invalid JSON: %v", err),
	}
	if off, ok := jsonErrorOffset(err); ok {
		pe.Line, pe.Column = lineColFromOffset(original, originalOffset(off, rewriteEnds))
	}
	return pe
}

func jsonErrorOffset(err error) (int64, bool) {
	switch e := err.(type) {
	case *json.SyntaxError:
		return e.Offset, true
	case *json.UnmarshalTypeError:
		return e.Offset, true
	case *trailingDataError:
		return e.offset, true
	}
	return 0, false
}

// originalOffset maps an offset in the rewritten buffer back onto the
// original text. Each quoted literal is two bytes longer than its source.
func originalOffset(off int64, rewriteEnds []int64) int64 {
	for _, end := range rewriteEnds {
		if off >= end {
			off -= 2
		}
	}
	return off
}

// lenientLiterals maps bare tokens to their quoted replacements.
var lenientLiterals = []struct {
	token       string
	replacement string
}{
	{"-Infinity", `"-Infinity"`},
	{"Infinity", `"Infinity"`},
	{"NaN", `"NaN"`},
	{"undefined", `"undefined"`},
}

// RewriteLenientLiterals rewrites non-standard JSON literals that appear
// outside string values into quoted strings. The scan tracks string and
// escape state so literals inside strings are left alone.
func RewriteLenientLiterals(data []byte) []byte {
	out, _ := rewriteLenientLiterals(data)
	return out
}

// rewriteLenientLiterals additionally returns the output offset just past
// each replacement, for mapping error positions back to the source text.
func rewriteLenientLiterals(data []byte) ([]byte, []int64) {
	var out []byte
	var rewriteEnds []int64
	inString := false
	escaped := false

	for i := 0; i < len(data); {
		c := data[i]

		if inString {
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			out = append(out, c)
			i++
			continue
		}

		if c == '"' {
			inString = true
			out = append(out, c)
			i++
			continue
		}

		if matched := matchLiteralAt(data, i); matched >= 0 {
			lit := lenientLiterals[matched]
			out = append(out, lit.replacement...)
			rewriteEnds = append(rewriteEnds, int64(len(out)))
			i += len(lit.token)
			continue
		}

		out = append(out, c)
		i++
	}
	return out, rewriteEnds
}

// matchLiteralAt returns the index into lenientLiterals of a token starting
// at position i on an identifier boundary, or -1.
func matchLiteralAt(data []byte, i int) int {
	if i > 0 && isIdentChar(data[i-1]) {
		return -1
	}
	for idx, lit := range lenientLiterals {
		n := len(lit.token)
		if i+n > len(data) {
			continue
		}
		if string(data[i:i+n]) != lit.token {
			continue
		}
		if i+n < len(data) && isIdentChar(data[i+n]) {
			continue
		}
		return idx
	}
	return -1
}

func isIdentChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') || c == '_'
}
