package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Export formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ExportSession renders a stored session as JSON (the canonical file form) or YAML.
func (m *FileManager) ExportSession(ctx context.Context, id uuid.UUID, format string) ([]byte, error) {
	s, err := m.LoadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err := EncodeSession(s)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(format) {
	case "", FormatJSON:
		return data, nil
	case FormatYAML, "yml":
		return jsonToYAML(data)
	}
	return nil, fmt.Errorf("unsupported export format %q", format)
}

// jsonToYAML converts through a generic tree so YAML keys mirror the JSON
// field names rather than the Go field names.
func jsonToYAML(data []byte) ([]byte, error) {
	var tree any
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(tree); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
