package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/courseforge/courseforge/internal/content"
	"github.com/courseforge/courseforge/internal/schema"
)

// Step is one instruction in a scenario. Which fields apply depends on
// Op; unused fields stay zero.
type Step struct {
	Op string `yaml:"op"`

	// As stores an identifier returned by an add operation under a
	// name that later steps reference as $name.
	As string `yaml:"as,omitempty"`

	ID          string   `yaml:"id,omitempty"`
	Module      string   `yaml:"module,omitempty"`
	Lesson      string   `yaml:"lesson,omitempty"`
	Target      string   `yaml:"target,omitempty"`
	Title       *string  `yaml:"title,omitempty"`
	Description *string  `yaml:"description,omitempty"`
	Content     *string  `yaml:"content,omitempty"`
	ContentHTML *string  `yaml:"content_html,omitempty"`
	URL         *string  `yaml:"url,omitempty"`
	Type        string   `yaml:"type,omitempty"`
	Access      string   `yaml:"access,omitempty"`
	Premium     *bool    `yaml:"premium,omitempty"`
	PriceCents  *int64   `yaml:"price_cents,omitempty"`
	Index       *int     `yaml:"index,omitempty"`
	IDs         []string `yaml:"ids,omitempty"`

	// Failure injection (op: fail-next). Method is the collaborator
	// method name; Kind classifies the injected error.
	Method string `yaml:"method,omitempty"`
	Kind   string `yaml:"kind,omitempty"`
	Times  int    `yaml:"times,omitempty"`
}

// Scenario is a named sequence of editing steps. Course holds an
// optional inline starting tree; CourseID points at an existing course
// when the scenario runs against a real backend.
type Scenario struct {
	Name     string     `yaml:"name"`
	CourseID string     `yaml:"course_id,omitempty"`
	Course   *yaml.Node `yaml:"course,omitempty"`
	Steps    []Step     `yaml:"steps"`
}

// Load reads and decodes a scenario file. Unknown fields are rejected.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("decoding scenario %s: %w", path, err)
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("scenario %s: name is required", path)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s: steps are required", path)
	}
	return &sc, nil
}

// CourseTree decodes and validates the inline starting course. Returns
// nil when the scenario declares none.
func (s *Scenario) CourseTree() (*content.CourseTree, error) {
	if s.Course == nil {
		return nil, nil
	}
	var raw any
	if err := s.Course.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding inline course: %w", err)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encoding inline course: %w", err)
	}
	tree, verrs := schema.ValidateJSON(data)
	if len(verrs) > 0 {
		return nil, fmt.Errorf("inline course: %w", verrs[0])
	}
	return tree, nil
}
