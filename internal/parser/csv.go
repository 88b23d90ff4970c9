package parser

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/marcboeker/go-duckdb"

	"github.com/datascope/backend/internal/models"
)

// csvSampleRows caps how many rows are sampled for display-type inference.
const csvSampleRows = 100

// CSVParser parses CSV and TSV files. Tokenization, header detection and
// type coercion are delegated entirely to DuckDB's CSV engine; this adapter
// only post-processes rows into records and infers a display type per column.
type CSVParser struct {
	format models.Format
}

// NewCSVParser creates a parser for the given tabular format.
func NewCSVParser(format models.Format) *CSVParser {
	return &CSVParser{format: format}
}

func (p *CSVParser) Name() string {
	if p.format == models.FormatTSV {
		return "tsv"
	}
	return "csv"
}

func (p *CSVParser) Formats() []models.Format {
	return []models.Format{p.format}
}

func (p *CSVParser) delimiter() string {
	if p.format == models.FormatTSV {
		return "\t"
	}
	return ","
}

func (p *CSVParser) Parse(filePath, fileName string) (*models.Document, []models.ParseError, error) {
	db, err := openCSVEngine()
	if err != nil {
		return nil, nil, fmt.Errorf("opening CSV engine: %w", err)
	}
	defer db.Close()

	var parseErrors []models.ParseError

	rows, err := db.Query(p.readCSVQuery(filePath, false))
	if err != nil {
		// Retry tolerantly: recoverable field mismatches become a warning
		// and do not block the load.
		parseErrors = append(parseErrors, models.ParseError{
			Severity: models.SeverityWarning,
			Message:  fmt.Sprintf("recovered from CSV engine error: %v", err),
		})
		rows, err = db.Query(p.readCSVQuery(filePath, true))
		if err != nil {
			return nil, []models.ParseError{{
				Severity: models.SeverityError,
				Message:  fmt.Sprintf("unreadable %s file: %v", p.Name(), err),
			}}, nil
		}
	}
	defer rows.Close()

	header, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("reading header: %w", err)
	}

	doc := models.NewDocument("", fileName, p.format)
	doc.Summary.Delimiter = p.delimiter()

	// typeSets accumulates observed display types per column over the
	// first csvSampleRows rows.
	typeSets := make([]map[string]struct{}, len(header))
	for i := range typeSets {
		typeSets[i] = make(map[string]struct{})
	}

	scanned := make([]interface{}, len(header))
	ptrs := make([]interface{}, len(header))
	for i := range scanned {
		ptrs[i] = &scanned[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			parseErrors = append(parseErrors, models.ParseError{
				Severity: models.SeverityWarning,
				Message:  fmt.Sprintf("row %d: %v", len(doc.Records)+1, err),
			})
			continue
		}

		value := make(map[string]interface{}, len(header))
		for i, name := range header {
			v := normalizeCSVValue(scanned[i])
			value[name] = v
			if len(doc.Records) < csvSampleRows {
				if t := displayType(v); t != "null" {
					typeSets[i][t] = struct{}{}
				}
			}
		}

		rec := models.Record{
			Index: len(doc.Records),
			Value: value,
		}
		if b, err := json.Marshal(value); err == nil {
			rec.ByteSize = len(b)
		}
		doc.Records = append(doc.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("reading rows: %w", err)
	}

	doc.Summary.Columns = make([]models.ColumnInfo, len(header))
	for i, name := range header {
		doc.Summary.Columns[i] = models.ColumnInfo{
			Name: name,
			Type: collapseTypes(typeSets[i]),
		}
	}

	doc.RecordCount = len(doc.Records)
	doc.Summary.LineCount = len(doc.Records) + 1 // data rows plus header
	if fi, err := os.Stat(filePath); err == nil {
		doc.ByteSize = fi.Size()
	}
	return doc, parseErrors, nil
}

// readCSVQuery builds the read_csv call. Paths and delimiters are inlined
// with SQL quoting since table functions do not take bind parameters.
func (p *CSVParser) readCSVQuery(filePath string, tolerant bool) string {
	opts := []string{
		"header=true",
		"delim=" + sqlString(p.delimiter()),
		"sample_size=-1",
	}
	if tolerant {
		opts = append(opts, "ignore_errors=true", "null_padding=true")
	}
	return fmt.Sprintf("SELECT * FROM read_csv(%s, %s)",
		sqlString(filePath), strings.Join(opts, ", "))
}

func sqlString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// openCSVEngine opens an in-memory DuckDB instance for a single parse.
func openCSVEngine() (*sql.DB, error) {
	connector, err := duckdb.NewConnector("", func(execer driver.ExecerContext) error {
		pragmas := []string{
			"PRAGMA threads=2",
			"PRAGMA enable_progress_bar=false",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sql.OpenDB(connector), nil
}

// normalizeCSVValue maps engine values onto JSON-compatible ones.
func normalizeCSVValue(v interface{}) interface{} {
	switch t := v.(type) {
	case nil:
		return nil
	case bool, string, float64, int64:
		return t
	case int8:
		return int64(t)
	case int16:
		return int64(t)
	case int32:
		return int64(t)
	case uint8:
		return int64(t)
	case uint16:
		return int64(t)
	case uint32:
		return int64(t)
	case uint64:
		return int64(t)
	case float32:
		return float64(t)
	case []byte:
		return string(t)
	case time.Time:
		return t.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(t)
	}
}

// displayType maps a normalized value onto the column type vocabulary.
func displayType(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case int64, float64:
		return "number"
	case string:
		return "string"
	case map[string]interface{}:
		return "object"
	case []interface{}:
		return "array"
	default:
		return "string"
	}
}

// collapseTypes reduces a column's observed type set to one display type:
// a single non-null type stands, more than one collapses to "mixed".
func collapseTypes(set map[string]struct{}) string {
	switch len(set) {
	case 0:
		return "null"
	case 1:
		for t := range set {
			return t
		}
	}
	return "mixed"
}
