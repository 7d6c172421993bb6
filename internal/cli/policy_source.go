package cli

import (
	"fmt"
	"os"

	"github.com/commentguard/commentguard/internal/models"
	"github.com/commentguard/commentguard/internal/observability/receipt"
	"github.com/commentguard/commentguard/internal/policy"
)

// PolicySource identifies where the policy came from
type PolicySource struct {
	Type string `json:"type"` // "preset" or "file"
	Name string `json:"name"` // preset name or file path
}

// loadPolicySource resolves --policy/--preset, falling back to
// COMMENTGUARD_POLICY and COMMENTGUARD_PRESET, then the default preset.
func loadPolicySource(path, preset string) (*models.PolicyConfig, PolicySource, error) {
	if path != "" && preset != "" {
		return nil, PolicySource{}, fmt.Errorf("cannot use both --preset and --policy; choose one")
	}
	if path == "" && preset == "" {
		path = os.Getenv(envPolicy)
		if path == "" {
			preset = os.Getenv(envPreset)
		}
	}

	cfg, name, err := policy.Resolve(path, preset)
	if err != nil {
		return nil, PolicySource{}, err
	}
	if path != "" && preset == "" {
		return cfg, PolicySource{Type: "file", Name: path}, nil
	}
	return cfg, PolicySource{Type: "preset", Name: name}, nil
}

// receiptOption records the policy source in the command receipt
func (s PolicySource) receiptOption(cfg *models.PolicyConfig) receipt.Option {
	rules := 0
	if cfg != nil {
		rules = len(cfg.CustomRules)
	}
	if s.Type == "file" {
		return receipt.WithPolicyFile(s.Name, rules)
	}
	return receipt.WithPreset(s.Name, rules)
}
