package parser

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/datascope/backend/internal/models"
)

// SupportedExtensions lists the file extensions the viewer accepts.
var SupportedExtensions = []string{".json", ".jsonl", ".ndjson", ".csv", ".tsv"}

// IsSupportedExtension reports whether name carries a known extension.
func IsSupportedExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// DetectFormat decides the document format from the file name, falling back
// to content sniffing on the first few KB when the extension is unknown.
func DetectFormat(fileName string, sample []byte) (models.Format, bool) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".json":
		return models.FormatJSON, true
	case ".jsonl", ".ndjson":
		return models.FormatJSONL, true
	case ".csv":
		return models.FormatCSV, true
	case ".tsv":
		return models.FormatTSV, true
	}
	return sniffFormat(sample)
}

// sniffFormat guesses the format from raw content.
func sniffFormat(sample []byte) (models.Format, bool) {
	trimmed := bytes.TrimSpace(sample)
	if len(trimmed) == 0 {
		return "", false
	}

	if trimmed[0] == '{' || trimmed[0] == '[' {
		// Several lines that each look like standalone objects point at JSONL.
		lines := nonBlankLines(trimmed, 5)
		if len(lines) >= 2 && trimmed[0] == '{' {
			jsonish := 0
			for _, l := range lines {
				if len(l) > 0 && l[0] == '{' && l[len(l)-1] == '}' {
					jsonish++
				}
			}
			if jsonish == len(lines) {
				return models.FormatJSONL, true
			}
		}
		return models.FormatJSON, true
	}

	lines := nonBlankLines(trimmed, 1)
	if len(lines) == 0 {
		return "", false
	}
	first := lines[0]
	if bytes.IndexByte(first, '\t') >= 0 {
		return models.FormatTSV, true
	}
	if bytes.IndexByte(first, ',') >= 0 {
		return models.FormatCSV, true
	}
	return "", false
}

func nonBlankLines(data []byte, max int) [][]byte {
	var out [][]byte
	for _, l := range bytes.Split(data, []byte{'\n'}) {
		l = bytes.TrimSpace(l)
		if len(l) == 0 {
			continue
		}
		out = append(out, l)
		if len(out) == max {
			break
		}
	}
	return out
}
