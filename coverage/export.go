package coverage

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// Export writes the bin table to path, as YAML for .yaml/.yml files and as
// XML otherwise.
func (m *Model) Export(path string) error {
	s := m.Snapshot()

	var (
		data []byte
		err  error
	)

	if isYAML(path) {
		data, err = yaml.Marshal(s)
	} else {
		data, err = xml.MarshalIndent(s, "", "  ")
		data = append([]byte(xml.Header), data...)
	}

	if err != nil {
		return fmt.Errorf("failed to encode coverage: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create result directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write coverage file: %w", err)
	}

	return nil
}

// LoadSnapshot reads a file written by Export.
func LoadSnapshot(path string) (Snapshot, error) {
	var s Snapshot

	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("failed to read coverage file: %w", err)
	}

	if isYAML(path) {
		err = yaml.Unmarshal(data, &s)
	} else {
		err = xml.Unmarshal(data, &s)
	}

	if err != nil {
		return s, fmt.Errorf("failed to decode coverage file %s: %w", path, err)
	}

	return s, nil
}
