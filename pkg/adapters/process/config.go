// Package process backs native actions with external commands. Actions
// are declared in a YAML allow-list and registered into a registry;
// the command's exit code becomes the tick status.
package process

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config declares one external action.
type Config struct {
	Name        string            `yaml:"name"`
	Command     string            `yaml:"command"`
	Args        []string          `yaml:"args"`
	Environment map[string]string `yaml:"env"`
	Description string            `yaml:"description"`
}

// ConfigFile is the structure of actions.yaml.
type ConfigFile struct {
	Actions []Config `yaml:"actions"`
}

// LoadConfig reads an actions.yaml allow-list. A missing file means no
// external actions are configured.
func LoadConfig(path string) (map[string]Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]Config{}, nil
		}
		return nil, fmt.Errorf("failed to read actions config: %w", err)
	}

	var cfg ConfigFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse actions config: %w", err)
	}

	actions := make(map[string]Config)
	for _, a := range cfg.Actions {
		if a.Name == "" {
			continue
		}
		actions[a.Name] = a
	}
	return actions, nil
}
