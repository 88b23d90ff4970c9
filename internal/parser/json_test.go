package parser

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datascope/backend/internal/models"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestJSONParserValidDocument(t *testing.T) {
	content := `{"name":"widget","count":42,"tags":["a","b"],"nested":{"ok":true}}`
	path := writeTempFile(t, "doc.json", content)

	p := NewJSONParser(false)
	doc, parseErrors, err := p.Parse(path, "doc.json")
	require.NoError(t, err)
	require.Empty(t, parseErrors)
	require.NotNil(t, doc)

	assert.Equal(t, models.FormatJSON, doc.Format)
	assert.Equal(t, 1, doc.RecordCount)
	assert.Equal(t, content, doc.Records[0].Raw)
	assert.Equal(t, int64(len(content)), doc.ByteSize)

	obj, ok := doc.Records[0].Value.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "widget", obj["name"])
}

func TestJSONParserRoundTrip(t *testing.T) {
	// Parsing then re-serializing reproduces semantically equivalent JSON.
	content := `{"big":9007199254740993,"pi":3.14159,"list":[1,2,{"x":null}],"s":"hi"}`
	path := writeTempFile(t, "rt.json", content)

	p := NewJSONParser(false)
	doc, _, err := p.Parse(path, "rt.json")
	require.NoError(t, err)
	require.NotNil(t, doc)

	out, err := json.Marshal(doc.Records[0].Value)
	require.NoError(t, err)

	var want, got interface{}
	require.NoError(t, json.Unmarshal([]byte(content), &want))
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, want, got)

	// Number fidelity: the big integer survives verbatim.
	assert.Contains(t, string(out), "9007199254740993")
}

func TestJSONParserSyntaxErrorLineColumn(t *testing.T) {
	content := "{\n  \"a\": 1,\n  \"b\": oops\n}\n"
	path := writeTempFile(t, "bad.json", content)

	p := NewJSONParser(false)
	doc, parseErrors, err := p.Parse(path, "bad.json")
	require.NoError(t, err)
	assert.Nil(t, doc)
	require.Len(t, parseErrors, 1)

	pe := parseErrors[0]
	assert.Equal(t, models.SeverityError, pe.Severity)
	assert.Equal(t, 3, pe.Line)
	assert.Greater(t, pe.Column, 0)
}

func TestJSONParserTrailingContent(t *testing.T) {
	content := `{"a":1} this is not JSON`
	path := writeTempFile(t, "trailing.json", content)

	p := NewJSONParser(false)
	doc, parseErrors, err := p.Parse(path, "trailing.json")
	require.NoError(t, err)
	assert.Nil(t, doc)
	require.Len(t, parseErrors, 1)

	pe := parseErrors[0]
	assert.Equal(t, models.SeverityError, pe.Severity)
	assert.Contains(t, pe.Message, "content after JSON value")
	assert.Equal(t, 1, pe.Line)
	// The position points just past the parsed value.
	assert.GreaterOrEqual(t, pe.Column, 8)
}

func TestJSONParserLenientErrorPositions(t *testing.T) {
	// Same length, same error position in the user's text; the rewritten
	// literal must not shift the reported column.
	strictContent := `{"a": 123, "b": oops}`
	lenientContent := `{"a": NaN, "b": oops}`

	strictPath := writeTempFile(t, "strict.json", strictContent)
	_, strictErrs, err := NewJSONParser(false).Parse(strictPath, "strict.json")
	require.NoError(t, err)
	require.Len(t, strictErrs, 1)

	lenientPath := writeTempFile(t, "lenient.json", lenientContent)
	_, lenientErrs, err := NewJSONParser(true).Parse(lenientPath, "lenient.json")
	require.NoError(t, err)
	require.Len(t, lenientErrs, 1)

	assert.Equal(t, strictErrs[0].Line, lenientErrs[0].Line)
	assert.Equal(t, strictErrs[0].Column, lenientErrs[0].Column)
}

func TestJSONParserLenientLiterals(t *testing.T) {
	content := `{"a": NaN, "b": Infinity, "c": -Infinity, "d": undefined, "e": "NaN inside"}`
	path := writeTempFile(t, "lenient.json", content)

	strict := NewJSONParser(false)
	doc, parseErrors, err := strict.Parse(path, "lenient.json")
	require.NoError(t, err)
	assert.Nil(t, doc)
	assert.NotEmpty(t, parseErrors)

	lenient := NewJSONParser(true)
	doc, parseErrors, err = lenient.Parse(path, "lenient.json")
	require.NoError(t, err)
	require.Empty(t, parseErrors)
	require.NotNil(t, doc)

	obj := doc.Records[0].Value.(map[string]interface{})
	assert.Equal(t, "NaN", obj["a"])
	assert.Equal(t, "Infinity", obj["b"])
	assert.Equal(t, "-Infinity", obj["c"])
	assert.Equal(t, "undefined", obj["d"])
	// Literals inside strings are untouched.
	assert.Equal(t, "NaN inside", obj["e"])
}

func TestRewriteLenientLiteralsBoundaries(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare nan", `[NaN]`, `["NaN"]`},
		{"negative infinity", `[-Infinity]`, `["-Infinity"]`},
		{"identifier prefix not rewritten", `["myNaN", "xNaNy"]`, `["myNaN", "xNaNy"]`},
		{"escaped quote in string", `{"a":"say \"NaN\"","b":NaN}`, `{"a":"say \"NaN\"","b":"NaN"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, string(RewriteLenientLiterals([]byte(tc.in))))
		})
	}
}
