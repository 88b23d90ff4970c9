package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/datascope/backend/internal/models"
)

func TestDetectFormatByExtension(t *testing.T) {
	tests := []struct {
		name   string
		format models.Format
	}{
		{"data.json", models.FormatJSON},
		{"data.JSON", models.FormatJSON},
		{"events.jsonl", models.FormatJSONL},
		{"events.ndjson", models.FormatJSONL},
		{"table.csv", models.FormatCSV},
		{"table.tsv", models.FormatTSV},
	}
	for _, tt := range tests {
		format, ok := DetectFormat(tt.name, nil)
		assert.True(t, ok, tt.name)
		assert.Equal(t, tt.format, format, tt.name)
	}
}

func TestDetectFormatBySniffing(t *testing.T) {
	tests := []struct {
		name   string
		sample string
		format models.Format
		ok     bool
	}{
		{"json object", `{"a": {"b": 1},` + "\n" + `"c": 2}`, models.FormatJSON, true},
		{"json array", `[1, 2, 3]`, models.FormatJSON, true},
		{"jsonl lines", "{\"a\":1}\n{\"a\":2}\n{\"a\":3}", models.FormatJSONL, true},
		{"csv header", "id,name,age\n1,alice,30", models.FormatCSV, true},
		{"tsv header", "id\tname\tage\n1\talice\t30", models.FormatTSV, true},
		{"empty", "   \n  ", "", false},
		{"plain text", "hello world", "", false},
	}
	for _, tt := range tests {
		format, ok := DetectFormat("upload.bin", []byte(tt.sample))
		assert.Equal(t, tt.ok, ok, tt.name)
		if tt.ok {
			assert.Equal(t, tt.format, format, tt.name)
		}
	}
}

func TestIsSupportedExtension(t *testing.T) {
	assert.True(t, IsSupportedExtension("a.json"))
	assert.True(t, IsSupportedExtension("A.CSV"))
	assert.False(t, IsSupportedExtension("a.txt"))
	assert.False(t, IsSupportedExtension("json"))
}
