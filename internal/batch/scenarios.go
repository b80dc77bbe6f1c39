package batch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/guimove/queuefit/internal/model"
)

// ErrNoScenarios is returned when a batch file holds no scenarios.
var ErrNoScenarios = errors.New("no scenarios found")

// scenarioFile is the document form: a top-level "scenarios" list. A bare
// list of scenarios is accepted too.
type scenarioFile struct {
	Scenarios []model.Scenario `json:"scenarios" yaml:"scenarios"`
}

// LoadScenarios reads a batch file. Files ending in .json are parsed as JSON,
// everything else as YAML.
func LoadScenarios(path string) ([]model.Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario file: %w", err)
	}

	var scenarios []model.Scenario
	if strings.EqualFold(filepath.Ext(path), ".json") {
		scenarios, err = parseJSON(data)
	} else {
		scenarios, err = parseYAML(data)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(scenarios) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoScenarios)
	}

	nameScenarios(scenarios)
	return scenarios, nil
}

func parseJSON(data []byte) ([]model.Scenario, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var list []model.Scenario
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
		return list, nil
	}
	var f scenarioFile
	if err := json.Unmarshal(trimmed, &f); err != nil {
		return nil, err
	}
	return f.Scenarios, nil
}

func parseYAML(data []byte) ([]model.Scenario, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if len(root.Content) == 0 {
		return nil, nil
	}

	doc := root.Content[0]
	switch doc.Kind {
	case yaml.SequenceNode:
		var list []model.Scenario
		if err := doc.Decode(&list); err != nil {
			return nil, err
		}
		return list, nil
	case yaml.MappingNode:
		var f scenarioFile
		if err := doc.Decode(&f); err != nil {
			return nil, err
		}
		return f.Scenarios, nil
	}
	return nil, fmt.Errorf("line %d: expected a scenario list or a mapping with a scenarios key", doc.Line)
}

// nameScenarios gives unnamed scenarios a positional name.
func nameScenarios(scenarios []model.Scenario) {
	for i := range scenarios {
		if strings.TrimSpace(scenarios[i].Name) == "" {
			scenarios[i].Name = fmt.Sprintf("scenario-%d", i+1)
		}
	}
}
