package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/courseforge/courseforge/internal/content"
	"github.com/courseforge/courseforge/internal/schema"
)

// LoadDocument reads a course document from disk and validates it.
// YAML documents are converted to JSON first so both formats share the
// schema path. The tree is returned even when validation errors are
// present, so callers can still inspect it.
func LoadDocument(path string) (*content.CourseTree, []schema.ValidationError, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading document: %w", err)
	}

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		data, err = yamlToJSON(data)
		if err != nil {
			return nil, nil, fmt.Errorf("document %s: %w", path, err)
		}
	}

	tree, verrs := schema.ValidateJSON(data)
	return tree, verrs, nil
}

// yamlToJSON re-encodes a YAML document as JSON.
func yamlToJSON(data []byte) ([]byte, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding yaml: %w", err)
	}
	out, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("re-encoding yaml as json: %w", err)
	}
	return out, nil
}
