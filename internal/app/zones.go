package app

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Alexvc23/ETL-vacantions-France-and-neighboors/internal/matrix"
)

//go:embed zones.yaml
var defaultZones []byte

// LoadZoneTable loads a zone table from path, or the embedded default when path is empty
func LoadZoneTable(path string) (matrix.ZoneTable, error) {
	if path == "" {
		return ParseZoneTable(defaultZones)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return matrix.ZoneTable{}, fmt.Errorf("failed to read zone table %s: %w", path, err)
	}
	return ParseZoneTable(data)
}

// ParseZoneTable parses and validates YAML zone table data
func ParseZoneTable(data []byte) (matrix.ZoneTable, error) {
	var t matrix.ZoneTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return matrix.ZoneTable{}, fmt.Errorf("failed to parse zone table YAML: %w", err)
	}

	applyZoneDefaults(&t)

	if err := t.Validate(); err != nil {
		return matrix.ZoneTable{}, err
	}
	return t, nil
}

// applyZoneDefaults fills in optional fields
func applyZoneDefaults(t *matrix.ZoneTable) {
	if t.Version == "" {
		t.Version = "1"
	}
	if t.Corsica.Marker != "" && t.Corsica.Code == "" {
		t.Corsica.Code = "fr_corse"
	}
	for i, c := range t.Known {
		t.Known[i] = matrix.Code(strings.TrimSpace(string(c)))
	}
}

// MarshalZoneTable serializes a zone table to YAML
func MarshalZoneTable(t matrix.ZoneTable) ([]byte, error) {
	return yaml.Marshal(t)
}
