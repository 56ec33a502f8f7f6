package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/yakshavingxyz/datadance/internal/engine"
	"github.com/yakshavingxyz/datadance/internal/ir"
)

// Scenario is a set of cases run against one transform document.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description"`

	// Document is the transform document: settings and transforms.
	Document map[string]any `yaml:"document"`

	// Prelude is CUE source visible to every expression.
	Prelude string `yaml:"prelude,omitempty"`

	// BatchToken is the fixed batch token. Defaults to DefaultBatchToken.
	BatchToken string `yaml:"batch_token,omitempty"`

	Cases []Case `yaml:"cases"`
}

// Case is one input record and its expectations.
type Case struct {
	Name string `yaml:"name"`

	Input map[string]any `yaml:"input"`

	// Settings overrides the document settings for this case only.
	Settings *CaseSettings `yaml:"settings,omitempty"`

	Expect Expect `yaml:"expect"`
}

// CaseSettings overrides document settings.
type CaseSettings struct {
	MergeMethod string `yaml:"merge_method"`
}

// Expect describes the expected outcome of a case.
type Expect struct {
	// Result is compared exactly with the wire result.
	Result map[string]any `yaml:"result,omitempty"`

	// Derived is a subset of the expected derived state.
	Derived map[string]any `yaml:"derived,omitempty"`

	// Error is the expected wire code, e.g. "error-102".
	Error string `yaml:"error,omitempty"`

	// Message is the expected error message. Requires Error.
	Message string `yaml:"message,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // catches typos like "expects:"
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// CompiledDocument decodes the scenario's document.
func (s *Scenario) CompiledDocument() (ir.Document, error) {
	v, err := ir.FromGo(s.Document)
	if err != nil {
		return ir.Document{}, err
	}
	obj, ok := v.(ir.Object)
	if !ok {
		return ir.Document{}, fmt.Errorf("document must be a mapping")
	}
	doc, err := ir.DecodeDocument(obj)
	if err != nil {
		return ir.Document{}, err
	}
	if doc.Name == "" {
		doc.Name = s.Name
	}
	return doc, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Document == nil {
		return fmt.Errorf("document is required")
	}
	if _, err := s.CompiledDocument(); err != nil {
		return fmt.Errorf("document: %w", err)
	}
	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	seen := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		if c.Name == "" {
			return fmt.Errorf("cases[%d]: name is required", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate case name %q", i, c.Name)
		}
		seen[c.Name] = true

		if err := validateExpect(i, c.Expect); err != nil {
			return err
		}
	}
	return nil
}

func validateExpect(index int, e Expect) error {
	if e.Result == nil && e.Derived == nil && e.Error == "" {
		return fmt.Errorf("cases[%d].expect: one of result, derived or error is required", index)
	}
	if e.Result != nil && e.Error != "" {
		return fmt.Errorf("cases[%d].expect: result and error are mutually exclusive", index)
	}
	if e.Error != "" {
		if _, ok := engine.KindForCode(e.Error); !ok {
			return fmt.Errorf("cases[%d].expect: unknown error code %q", index, e.Error)
		}
	}
	if e.Message != "" && e.Error == "" {
		return fmt.Errorf("cases[%d].expect: message requires error", index)
	}
	return nil
}
