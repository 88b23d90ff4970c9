package parser

import (
	"fmt"
	"io"
	"os"

	"github.com/datascope/backend/internal/models"
)

// sniffBytes is how much of a file is read for content sniffing.
const sniffBytes = 8 * 1024

// Registry holds the format parsers and dispatches by detected format.
type Registry struct {
	byFormat map[models.Format]Parser
}

// NewRegistry builds a registry with the standard parser set.
func NewRegistry(lenientJSON bool) *Registry {
	r := &Registry{byFormat: make(map[models.Format]Parser)}
	r.Register(NewJSONParser(lenientJSON))
	r.Register(NewJSONLParser(lenientJSON))
	r.Register(NewCSVParser(models.FormatCSV))
	r.Register(NewCSVParser(models.FormatTSV))
	return r
}

// Register adds a parser for each format it declares.
func (r *Registry) Register(p Parser) {
	for _, f := range p.Formats() {
		r.byFormat[f] = p
	}
}

// ForFormat returns the parser handling the given format.
func (r *Registry) ForFormat(f models.Format) (Parser, error) {
	p, ok := r.byFormat[f]
	if !ok {
		return nil, fmt.Errorf("no parser for format: %s", f)
	}
	return p, nil
}

// FindParser detects the format of the file and returns its parser.
func (r *Registry) FindParser(filePath, fileName string) (Parser, models.Format, error) {
	sample, err := readSample(filePath)
	if err != nil {
		return nil, "", err
	}
	format, ok := DetectFormat(fileName, sample)
	if !ok {
		return nil, "", fmt.Errorf("unrecognized file format: %s", fileName)
	}
	p, err := r.ForFormat(format)
	if err != nil {
		return nil, "", err
	}
	return p, format, nil
}

func readSample(filePath string) ([]byte, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(io.LimitReader(f, sniffBytes))
}
