package schema

import (
	"github.com/invopop/jsonschema"

	"github.com/datascope/backend/internal/models"
)

// Export renders an inferred schema tree as a JSON Schema document. Fields
// with a single observed type get that type; mixed fields are left untyped.
// Fields present in every record become required.
func Export(tree *models.SchemaTree, title string) *jsonschema.Schema {
	root := &jsonschema.Schema{
		Version: "https://json-schema.org/draft/2020-12/schema",
		Title:   title,
		Type:    "object",
	}
	fillObject(root, tree.Fields, tree.RecordCount)
	return root
}

func fillObject(s *jsonschema.Schema, fields []*models.SchemaField, recordCount int) {
	if len(fields) == 0 {
		return
	}
	s.Properties = jsonschema.NewProperties()
	for _, f := range fields {
		prop := &jsonschema.Schema{}
		if t, ok := soleType(f.Types); ok {
			prop.Type = t
		}
		if len(f.Children) > 0 {
			fillObject(prop, f.Children, recordCount)
		}
		s.Properties.Set(f.Name, prop)
		if f.Consistent && recordCount > 0 {
			s.Required = append(s.Required, f.Name)
		}
	}
}

// soleType returns the single observed type, ignoring null alongside one
// other type (nullable fields keep the non-null type).
func soleType(types []string) (string, bool) {
	nonNull := make([]string, 0, len(types))
	for _, t := range types {
		if t != "null" && t != "unknown" {
			nonNull = append(nonNull, t)
		}
	}
	switch len(nonNull) {
	case 0:
		return "null", len(types) > 0
	case 1:
		return nonNull[0], true
	}
	return "", false
}
