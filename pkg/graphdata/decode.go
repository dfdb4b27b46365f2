package graphdata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format names a data file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf infers the format from a file name extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}
}

// Decode reads a data set in the given format.
func Decode(r io.Reader, format Format) (Data, error) {
	var d Data
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&d); err != nil {
			return Data{}, fmt.Errorf("decode json: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&d); err != nil && err != io.EOF {
			return Data{}, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return Data{}, fmt.Errorf("%q: %w", format, ErrUnknownFormat)
	}
	return d, nil
}

// Load reads a data set from a .json, .yaml or .yml file.
func Load(path string) (Data, error) {
	format, err := FormatOf(path)
	if err != nil {
		return Data{}, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Data{}, err
	}
	d, err := Decode(bytes.NewReader(b), format)
	if err != nil {
		return Data{}, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}
