package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario defines a keying scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Scene is the scene file to key. Relative paths are resolved against
	// the base path given to the loader.
	Scene string `yaml:"scene"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final curves.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one scenario step. Exactly one of Insert, Set and CreateCurve
// must be set.
type Step struct {
	Insert      *InsertStep `yaml:"insert,omitempty"`
	Set         *SetStep    `yaml:"set,omitempty"`
	CreateCurve *CurveStep  `yaml:"create_curve,omitempty"`

	// Expect maps outcome names to expected counts. Only valid on insert
	// steps. Outcomes not listed are not checked.
	Expect map[string]interface{} `yaml:"expect,omitempty"`
}

// InsertStep keys targets of one object.
type InsertStep struct {
	Object  string      `yaml:"object"`
	Targets []string    `yaml:"targets"`
	Time    interface{} `yaml:"time"`
	Flags   []string    `yaml:"flags,omitempty"`
	KeyType string      `yaml:"key_type,omitempty"`
}

// SetStep overwrites property values, or the visual values when Visual
// is set.
type SetStep struct {
	Object string        `yaml:"object"`
	Path   string        `yaml:"path"`
	Values []interface{} `yaml:"values"`
	Visual bool          `yaml:"visual,omitempty"`
}

// CurveStep creates an empty curve.
type CurveStep struct {
	Object string `yaml:"object"`
	Path   string `yaml:"path"`
	Index  int    `yaml:"index"`
	Driver bool   `yaml:"driver,omitempty"`
}

// Assertion validates final curve state.
type Assertion struct {
	// Type is one of curve_points, curve_absent, curve_count or value_at.
	Type string `yaml:"type"`

	Object string `yaml:"object"`
	Path   string `yaml:"path,omitempty"`
	Index  int    `yaml:"index,omitempty"`
	Driver bool   `yaml:"driver,omitempty"`

	// Times and Values are the expected keys (used by curve_points).
	Times  []interface{} `yaml:"times,omitempty"`
	Values []interface{} `yaml:"values,omitempty"`

	// Count is the expected number of curves (used by curve_count).
	Count int `yaml:"count,omitempty"`

	// At and Value are the sample point (used by value_at).
	At    interface{} `yaml:"at,omitempty"`
	Value interface{} `yaml:"value,omitempty"`

	// Tolerance for value comparisons. Default 1e-6.
	Tolerance float64 `yaml:"tolerance,omitempty"`
}

// Assertion type constants.
const (
	AssertCurvePoints = "curve_points"
	AssertCurveAbsent = "curve_absent"
	AssertCurveCount  = "curve_count"
	AssertValueAt     = "value_at"
)

// LoadScenario reads and parses a scenario YAML file. The scene path is
// resolved relative to the scenario file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the scene path relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Scene != "" && !filepath.IsAbs(scenario.Scene) && basePath != "" {
		scenario.Scene = filepath.Join(basePath, scenario.Scene)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// FindScenarios returns the scenario files under dir in sorted order.
// A path naming a single file is returned as is.
func FindScenarios(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		ext := strings.ToLower(filepath.Ext(p))
		if !d.IsDir() && (ext == ".yaml" || ext == ".yml") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Scene == "" {
		return fmt.Errorf("scene is required")
	}
	if _, err := os.Stat(s.Scene); os.IsNotExist(err) {
		return fmt.Errorf("scene file not found: %s", s.Scene)
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, s *Step) error {
	n := 0
	for _, set := range []bool{s.Insert != nil, s.Set != nil, s.CreateCurve != nil} {
		if set {
			n++
		}
	}
	if n != 1 {
		return fmt.Errorf("steps[%d]: exactly one of insert, set or create_curve is required", index)
	}

	switch {
	case s.Insert != nil:
		if s.Insert.Object == "" {
			return fmt.Errorf("steps[%d].insert: object is required", index)
		}
		if s.Insert.Time == nil {
			return fmt.Errorf("steps[%d].insert: time is required", index)
		}
	case s.Set != nil:
		if s.Set.Object == "" || s.Set.Path == "" {
			return fmt.Errorf("steps[%d].set: object and path are required", index)
		}
		if len(s.Set.Values) == 0 {
			return fmt.Errorf("steps[%d].set: values are required", index)
		}
	case s.CreateCurve != nil:
		if s.CreateCurve.Object == "" || s.CreateCurve.Path == "" {
			return fmt.Errorf("steps[%d].create_curve: object and path are required", index)
		}
	}

	if s.Expect != nil && s.Insert == nil {
		return fmt.Errorf("steps[%d]: expect is only valid on insert steps", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Object == "" {
		return fmt.Errorf("assertions[%d]: object is required", index)
	}

	switch a.Type {
	case AssertCurvePoints:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: curve_points requires 'path' field", index)
		}
		if len(a.Values) > 0 && len(a.Values) != len(a.Times) {
			return fmt.Errorf("assertions[%d]: curve_points needs as many values as times", index)
		}
	case AssertCurveAbsent:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: curve_absent requires 'path' field", index)
		}
	case AssertCurveCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: curve_count requires non-negative 'count'", index)
		}
	case AssertValueAt:
		if a.Path == "" || a.At == nil || a.Value == nil {
			return fmt.Errorf("assertions[%d]: value_at requires 'path', 'at' and 'value' fields", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown type %q", index, a.Type)
	}

	return nil
}
