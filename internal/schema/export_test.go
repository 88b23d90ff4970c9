package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datascope/backend/internal/models"
)

func TestExportJSONSchema(t *testing.T) {
	records := []models.Record{
		record(t, 0, `{"id": 1, "name": "alice", "tag": null}`),
		record(t, 1, `{"id": 2, "name": "bob", "tag": "x", "extra": true}`),
	}
	tree := Infer(records)

	s := Export(tree, "people.jsonl")
	data, err := json.Marshal(s)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))

	assert.Equal(t, "https://json-schema.org/draft/2020-12/schema", out["$schema"])
	assert.Equal(t, "people.jsonl", out["title"])
	assert.Equal(t, "object", out["type"])

	props := out["properties"].(map[string]interface{})
	require.Len(t, props, 4)
	assert.Equal(t, "number", props["id"].(map[string]interface{})["type"])

	// "tag" saw null and string; the non-null type stands.
	assert.Equal(t, "string", props["tag"].(map[string]interface{})["type"])

	// Fields present in every record are required; "extra" is not.
	req := out["required"].([]interface{})
	assert.ElementsMatch(t, []interface{}{"id", "name", "tag"}, req)
}

func TestExportMixedFieldUntyped(t *testing.T) {
	records := []models.Record{
		record(t, 0, `{"v": 1}`),
		record(t, 1, `{"v": "one"}`),
	}
	s := Export(Infer(records), "mixed")
	data, err := json.Marshal(s)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	prop := out["properties"].(map[string]interface{})["v"].(map[string]interface{})
	_, hasType := prop["type"]
	assert.False(t, hasType)
}

func TestSoleType(t *testing.T) {
	got, ok := soleType([]string{"null", "string"})
	assert.True(t, ok)
	assert.Equal(t, "string", got)

	got, ok = soleType([]string{"null"})
	assert.True(t, ok)
	assert.Equal(t, "null", got)

	_, ok = soleType([]string{"number", "string"})
	assert.False(t, ok)
}
