package policy

import (
	"fmt"
	"os"
	"strings"

	"github.com/commentguard/commentguard/internal/models"
	"gopkg.in/yaml.v3"
)

// ParseRaw decodes YAML or JSON settings into a loose map. Only syntax errors
// are reported; content problems are left to Normalize.
func ParseRaw(data []byte) (map[string]any, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return map[string]any{}, nil
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse policy settings: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

// LoadRaw reads a settings file without normalizing it
func LoadRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return ParseRaw(data)
}

// LoadFile reads and normalizes a settings file
func LoadFile(path string) (*models.PolicyConfig, error) {
	raw, err := LoadRaw(path)
	if err != nil {
		return nil, err
	}
	cfg := Normalize(raw)
	return &cfg, nil
}

// Resolve picks a preset or a settings file. The preset wins when both are
// given; with neither, the default preset is used.
func Resolve(path, preset string) (*models.PolicyConfig, string, error) {
	if preset != "" {
		if p := GetPreset(preset); p != nil {
			return p, preset, nil
		}
		return nil, "", fmt.Errorf("unknown preset: %s (valid: %s)", preset, strings.Join(ListPresetNames(), ", "))
	}
	if path == "" {
		return MustGetPreset("default"), "default", nil
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, "custom", nil
}
