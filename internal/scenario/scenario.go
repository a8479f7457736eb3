// Package scenario loads feasibility study inputs from YAML or JSON files,
// so a full study can be described in one reviewable document.
package scenario

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/feasibility-cli/internal/model"
)

// Scenario is one study input: the raw financial record plus optional
// technical and market sections. The financial record stays untyped so
// that normalization sees exactly what the file said.
type Scenario struct {
	Name      string                `json:"name" yaml:"name"`
	Financial map[string]any        `json:"financial_data" yaml:"financial_data"`
	Technical *model.TechnicalInput `json:"technical_data,omitempty" yaml:"technical_data,omitempty"`
	Market    *model.MarketInput    `json:"market_data,omitempty" yaml:"market_data,omitempty"`
}

// Load reads a scenario from path. The format is chosen by extension:
// .yaml/.yml or .json.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "scenario: read %s", path)
	}

	var sc Scenario
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &sc); err != nil {
			return nil, eris.Wrapf(err, "scenario: parse %s", path)
		}
	case ".json":
		if err := json.Unmarshal(data, &sc); err != nil {
			return nil, eris.Wrapf(err, "scenario: parse %s", path)
		}
	default:
		return nil, eris.Errorf("scenario: unsupported extension %q (want .yaml, .yml or .json)", ext)
	}

	if len(sc.Financial) == 0 {
		return nil, eris.Errorf("scenario: %s has no financial_data section", path)
	}
	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &sc, nil
}
