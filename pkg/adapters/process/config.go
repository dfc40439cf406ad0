package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/stategraph/pkg/schema"
)

// ProcessConfig declares a local command exposed as a tool.
type ProcessConfig struct {
	Name        string            `yaml:"name" json:"name"`
	Description string            `yaml:"description" json:"description"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	// Params declares the arguments the model may pass, e.g. {city: string}.
	Params  schema.Schema `yaml:"params" json:"params"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// ConfigFile represents the structure of tools.yaml
type ConfigFile struct {
	Tools []ProcessConfig `yaml:"tools" json:"tools"`
}

// LoadTools reads a YAML or JSON tool file. A missing file means no tools.
// Tools are returned sorted by name; names must be unique.
func LoadTools(path string) ([]ProcessConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read tools config: %w", err)
	}

	var cfg ConfigFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	seen := make(map[string]bool, len(cfg.Tools))
	for i, tool := range cfg.Tools {
		switch {
		case tool.Name == "":
			return nil, fmt.Errorf("%s: tool #%d has no name", path, i+1)
		case tool.Command == "":
			return nil, fmt.Errorf("%s: tool %q has no command", path, tool.Name)
		case seen[tool.Name]:
			return nil, fmt.Errorf("%s: tool %q declared twice", path, tool.Name)
		}
		seen[tool.Name] = true
	}
	sort.Slice(cfg.Tools, func(i, j int) bool { return cfg.Tools[i].Name < cfg.Tools[j].Name })
	return cfg.Tools, nil
}
