package parser

import (
	"bufio"
	"os"

	"github.com/datascope/backend/internal/models"
)

// JSONLParser parses newline-delimited JSON, one record per non-blank line.
type JSONLParser struct {
	lenient bool
}

// NewJSONLParser creates a JSONL/NDJSON parser.
func NewJSONLParser(lenient bool) *JSONLParser {
	return &JSONLParser{lenient: lenient}
}

func (p *JSONLParser) Name() string { return "jsonl" }

func (p *JSONLParser) Formats() []models.Format {
	return []models.Format{models.FormatJSONL}
}

// maxLineSize bounds a single JSONL line (64 MB).
const maxLineSize = 64 * 1024 * 1024

func (p *JSONLParser) Parse(filePath, fileName string) (*models.Document, []models.ParseError, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	doc := models.NewDocument("", fileName, models.FormatJSONL)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		raw := scanner.Bytes()

		trimmed := trimSpaceBytes(raw)
		if len(trimmed) == 0 {
			continue
		}

		input := trimmed
		var rewrites []int64
		if p.lenient {
			input, rewrites = rewriteLenientLiterals(trimmed)
		}

		rec := models.Record{
			Index:    len(doc.Records),
			Raw:      string(raw),
			ByteSize: len(raw),
		}

		value, err := decodeJSONValue(input)
		if err != nil {
			// A bad line becomes a placeholder record so the rest of
			// the file still loads.
			pe := jsonParseError(trimmed, rewrites, err)
			pe.Line = lineNum
			rec.Errors = []models.ParseError{pe}
		} else {
			rec.Value = value
		}
		doc.Records = append(doc.Records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}

	doc.RecordCount = len(doc.Records)
	if fi, err := f.Stat(); err == nil {
		doc.ByteSize = fi.Size()
	}
	doc.Summary = models.Summary{LineCount: lineNum}
	return doc, nil, nil
}

func trimSpaceBytes(b []byte) []byte {
	start := 0
	for start < len(b) && isSpace(b[start]) {
		start++
	}
	end := len(b)
	for end > start && isSpace(b[end-1]) {
		end--
	}
	return b[start:end]
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}
