// Package export re-serializes documents and records per their format, with
// the modification overlay applied, for download or clipboard use.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/datascope/backend/internal/models"
	"github.com/datascope/backend/internal/session"
)

// File is a serialized download payload.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Exporter serializes session state.
type Exporter struct {
	sessions *session.Manager
}

// NewExporter creates an exporter over the session manager.
func NewExporter(sessions *session.Manager) *Exporter {
	return &Exporter{sessions: sessions}
}

// RecordText returns the current record's indented JSON, as copied to the
// clipboard.
func (e *Exporter) RecordText(sessionID string, index int) (string, error) {
	v, ok := e.sessions.EffectiveValue(sessionID, index)
	if !ok {
		return "", fmt.Errorf("record %d not found", index)
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Record serializes one record as a standalone JSON download.
func (e *Exporter) Record(sessionID string, index int) (*File, error) {
	doc, ok := e.sessions.Document(sessionID)
	if !ok {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}
	text, err := e.RecordText(sessionID, index)
	if err != nil {
		return nil, err
	}
	return &File{
		Name:        fmt.Sprintf("%s.record-%d.json", baseName(doc.FileName), index),
		ContentType: "application/json",
		Data:        []byte(text),
	}, nil
}

// Document re-serializes the full document in its own format.
func (e *Exporter) Document(sessionID string) (*File, error) {
	doc, ok := e.sessions.Document(sessionID)
	if !ok {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}
	// The session can be evicted between the two lookups.
	values, ok := e.sessions.EffectiveValues(sessionID)
	if !ok {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}

	var data []byte
	var contentType string
	var err error

	switch doc.Format {
	case models.FormatJSON:
		var v interface{}
		if len(values) > 0 {
			v = values[0]
		}
		data, err = json.MarshalIndent(v, "", "  ")
		contentType = "application/json"
	case models.FormatJSONL:
		data, err = marshalJSONL(doc, values)
		contentType = "application/x-ndjson"
	case models.FormatCSV, models.FormatTSV:
		data, err = marshalTabular(doc, values)
		contentType = "text/csv"
		if doc.Format == models.FormatTSV {
			contentType = "text/tab-separated-values"
		}
	default:
		err = fmt.Errorf("unknown format: %s", doc.Format)
	}
	if err != nil {
		return nil, err
	}

	return &File{
		Name:        doc.FileName,
		ContentType: contentType,
		Data:        data,
	}, nil
}

func marshalJSONL(doc *models.Document, values []interface{}) ([]byte, error) {
	var buf bytes.Buffer
	for i, rec := range doc.Records {
		// Lines that never parsed keep their original text so a failed
		// line is not silently dropped from the export.
		if rec.HasErrors() && values[i] == nil {
			buf.WriteString(rec.Raw)
			buf.WriteByte('\n')
			continue
		}
		line, err := json.Marshal(values[i])
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

func marshalTabular(doc *models.Document, values []interface{}) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if doc.Format == models.FormatTSV {
		w.Comma = '\t'
	}

	header := make([]string, len(doc.Summary.Columns))
	for i, c := range doc.Summary.Columns {
		header[i] = c.Name
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for i, v := range values {
		obj, ok := v.(map[string]interface{})
		if !ok {
			// An edit replaced the row with something that has no columns;
			// the export cannot represent it in this format.
			return nil, fmt.Errorf("record %d is not a row object and cannot be exported as %s", i, doc.Format)
		}
		row := make([]string, len(header))
		for j, name := range header {
			row[j] = formatCell(obj[name])
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func formatCell(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case json.Number:
		return t.String()
	case float64, int64, int:
		return fmt.Sprint(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

func baseName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
