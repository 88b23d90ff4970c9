// Package compare resolves the two sides of the compare view to JSON text
// and renders a line diff between them.
package compare

import (
	"encoding/json"
	"fmt"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/datascope/backend/internal/models"
	"github.com/datascope/backend/internal/parser"
	"github.com/datascope/backend/internal/session"
	"github.com/datascope/backend/internal/storage"
)

// Result is the resolved compare state: both serialized sides plus a
// server-side unified diff the client widget can fall back to.
type Result struct {
	Left  string `json:"left"`
	Right string `json:"right"`
	Diff  string `json:"diff"`
}

// Resolver turns compare source selectors into serialized JSON.
type Resolver struct {
	sessions *session.Manager
	store    storage.Store
	registry *parser.Registry
}

// NewResolver creates a compare resolver.
func NewResolver(sessions *session.Manager, store storage.Store, registry *parser.Registry) *Resolver {
	return &Resolver{sessions: sessions, store: store, registry: registry}
}

// Compare resolves both selected sources of a session and diffs them.
func (r *Resolver) Compare(sessionID string) (*Result, error) {
	left, right, ok := r.sessions.CompareSources(sessionID)
	if !ok {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}
	if left == nil || right == nil {
		return nil, fmt.Errorf("both compare sources must be selected")
	}

	leftText, err := r.Resolve(sessionID, *left)
	if err != nil {
		return nil, fmt.Errorf("resolving left source: %w", err)
	}
	rightText, err := r.Resolve(sessionID, *right)
	if err != nil {
		return nil, fmt.Errorf("resolving right source: %w", err)
	}

	diff, err := Diff(leftText, rightText)
	if err != nil {
		return nil, err
	}
	return &Result{Left: leftText, Right: rightText, Diff: diff}, nil
}

// Resolve serializes one compare source to indented JSON.
func (r *Resolver) Resolve(sessionID string, src models.CompareSource) (string, error) {
	switch src.Kind {
	case models.CompareKindRecord:
		v, ok := r.sessions.EffectiveValue(sessionID, src.RecordIndex)
		if !ok {
			return "", fmt.Errorf("record %d not found", src.RecordIndex)
		}
		return marshalIndent(v)

	case models.CompareKindColumn:
		values, ok := r.sessions.EffectiveValues(sessionID)
		if !ok {
			return "", fmt.Errorf("session not found: %s", sessionID)
		}
		column := make([]interface{}, len(values))
		for i, v := range values {
			if obj, isObj := v.(map[string]interface{}); isObj {
				column[i] = obj[src.Column]
			}
		}
		return marshalIndent(column)

	case models.CompareKindFile:
		return r.resolveFile(src)

	default:
		return "", fmt.Errorf("unknown compare source kind: %s", src.Kind)
	}
}

// resolveFile parses a second uploaded file and serializes one of its records.
func (r *Resolver) resolveFile(src models.CompareSource) (string, error) {
	info, err := r.store.Get(src.FileID)
	if err != nil {
		return "", err
	}
	path, err := r.store.GetFilePath(src.FileID)
	if err != nil {
		return "", err
	}

	p, _, err := r.registry.FindParser(path, info.Name)
	if err != nil {
		return "", err
	}
	doc, parseErrors, err := p.Parse(path, info.Name)
	if err != nil {
		return "", err
	}
	if doc == nil {
		return "", fmt.Errorf("file %s could not be parsed: %d error(s)", info.Name, len(parseErrors))
	}
	if src.RecordIndex < 0 || src.RecordIndex >= doc.RecordCount {
		return "", fmt.Errorf("record %d not found in %s", src.RecordIndex, info.Name)
	}
	return marshalIndent(doc.Records[src.RecordIndex].Value)
}

// Diff renders a unified line diff of the two serialized sides.
func Diff(left, right string) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(left),
		B:        difflib.SplitLines(right),
		FromFile: "left",
		ToFile:   "right",
		Context:  3,
	})
}

func marshalIndent(v interface{}) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serializing source: %w", err)
	}
	return string(b), nil
}
