// Package policy provides the moderation decision engine, settings
// normalization and built-in presets
package policy

import (
	"embed"
	"fmt"
	"sort"
	"sync"

	"github.com/commentguard/commentguard/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed presets/*.yaml
var presetFS embed.FS

// presetFiles maps preset names to embedded file paths
var presetFiles = map[string]string{
	"default": "presets/default.yaml",
	"lenient": "presets/lenient.yaml",
	"strict":  "presets/strict.yaml",
}

var (
	presetMu    sync.Mutex
	presetCache = map[string]map[string]any{}
)

// GetPreset returns a normalized preset by name, or nil if not found. Each
// call returns a fresh copy.
func GetPreset(name string) *models.PolicyConfig {
	raw, ok := presetRaw(name)
	if !ok {
		return nil
	}
	cfg := Normalize(raw)
	return &cfg
}

func presetRaw(name string) (map[string]any, bool) {
	presetMu.Lock()
	defer presetMu.Unlock()

	if cached, ok := presetCache[name]; ok {
		return cached, true
	}

	path, ok := presetFiles[name]
	if !ok {
		return nil, false
	}

	data, err := presetFS.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, false
	}

	presetCache[name] = raw
	return raw, true
}

// ListPresetNames returns preset names, sorted
func ListPresetNames() []string {
	names := make([]string, 0, len(presetFiles))
	for name := range presetFiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MustGetPreset returns a preset or panics (for tests)
func MustGetPreset(name string) *models.PolicyConfig {
	p := GetPreset(name)
	if p == nil {
		panic(fmt.Sprintf("preset %q not found", name))
	}
	return p
}
