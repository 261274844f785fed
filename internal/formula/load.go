package formula

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/open-edge-platform/formula-installer/internal/config/validate"
	"gopkg.in/yaml.v3"
)

// LoadFormula reads, validates and decodes a formula file.
func LoadFormula(path string) (*Formula, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading formula %s: %w", path, err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving formula path %s: %w", path, err)
	}

	f, err := ParseFormula(data, filepath.Dir(absPath))
	if err != nil {
		return nil, fmt.Errorf("loading formula %s: %w", path, err)
	}
	return f, nil
}

// ParseFormula validates data against the formula schema and decodes it.
// baseDir anchors relative paths inside the formula.
func ParseFormula(data []byte, baseDir string) (*Formula, error) {
	if err := validate.ValidateFormulaYAML(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormula, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f Formula
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidFormula)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormula, err)
	}
	f.baseDir = baseDir

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}
