// Package schema infers a per-field summary of a document's records: the
// union of observed value types and per-record presence. It is descriptive
// only; nothing is validated or enforced.
package schema

import (
	"encoding/json"
	"sort"

	"github.com/datascope/backend/internal/models"
)

const (
	// MaxDepth bounds the traversal into nested objects.
	MaxDepth = 3
	// ArraySample caps how many array elements are inspected per array.
	ArraySample = 5
)

// fieldStat accumulates observations for one field path during the walk.
type fieldStat struct {
	name     string
	path     string
	types    map[string]struct{}
	present  map[int]struct{}
	children map[string]*fieldStat
	order    []string
}

func newFieldStat(name, path string) *fieldStat {
	return &fieldStat{
		name:     name,
		path:     path,
		types:    make(map[string]struct{}),
		present:  make(map[int]struct{}),
		children: make(map[string]*fieldStat),
	}
}

func (s *fieldStat) child(name string) *fieldStat {
	c, ok := s.children[name]
	if !ok {
		path := name
		if s.path != "" {
			path = s.path + "." + name
		}
		c = newFieldStat(name, path)
		s.children[name] = c
		s.order = append(s.order, name)
	}
	return c
}

// Infer walks every record's parsed value and builds the schema tree.
// Records that failed to parse contribute nothing but still count toward
// the record total, so their missing fields show up as inconsistent.
func Infer(records []models.Record) *models.SchemaTree {
	root := newFieldStat("", "")
	for _, rec := range records {
		if rec.HasErrors() {
			continue
		}
		walkObject(root, rec.Value, rec.Index, 0)
	}
	return &models.SchemaTree{
		RecordCount: len(records),
		Fields:      finalize(root, len(records)),
	}
}

// walkObject records the fields of value under parent when value is an
// object, descending into nested objects and sampled array elements.
func walkObject(parent *fieldStat, value interface{}, recordIdx, depth int) {
	obj, ok := value.(map[string]interface{})
	if !ok {
		return
	}
	// Iterate keys in sorted order so the first-seen child order is stable
	// regardless of map iteration.
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := obj[k]
		c := parent.child(k)
		c.present[recordIdx] = struct{}{}
		c.types[ValueType(v)] = struct{}{}

		if depth+1 >= MaxDepth {
			continue
		}
		switch t := v.(type) {
		case map[string]interface{}:
			walkObject(c, t, recordIdx, depth+1)
		case []interface{}:
			n := len(t)
			if n > ArraySample {
				n = ArraySample
			}
			for i := 0; i < n; i++ {
				walkObject(c, t[i], recordIdx, depth+1)
			}
		}
	}
}

func finalize(s *fieldStat, recordCount int) []*models.SchemaField {
	if len(s.order) == 0 {
		return nil
	}
	out := make([]*models.SchemaField, 0, len(s.order))
	for _, name := range s.order {
		c := s.children[name]
		types := make([]string, 0, len(c.types))
		for t := range c.types {
			types = append(types, t)
		}
		sort.Strings(types)

		out = append(out, &models.SchemaField{
			Name:       c.name,
			Path:       c.path,
			Types:      types,
			Count:      len(c.present),
			Consistent: len(c.present) == recordCount,
			Children:   finalize(c, recordCount),
		})
	}
	return out
}

// ValueType names the JSON type of a parsed value.
func ValueType(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case json.Number, float64, int64, int:
		return "number"
	case map[string]interface{}:
		return "object"
	case []interface{}:
		return "array"
	default:
		return "unknown"
	}
}
