// Package differ reports how stored settings were corrected by normalization
package differ

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/commentguard/commentguard/internal/models"
	"github.com/wI2L/jsondiff"
)

// CorrectionKind is the JSON patch operation behind a correction
type CorrectionKind string

const (
	CorrectionAdded    CorrectionKind = "added"
	CorrectionReplaced CorrectionKind = "replaced"
	CorrectionRemoved  CorrectionKind = "removed"
)

// Correction is one difference between stored settings and the policy
// actually applied
type Correction struct {
	Path     string         `json:"path"`
	Kind     CorrectionKind `json:"kind"`
	Severity string         `json:"severity"`
	Message  string         `json:"message"`
}

// CompareSettings diffs raw settings against their normalized config
func CompareSettings(raw map[string]any, cfg models.PolicyConfig) ([]Correction, error) {
	sourceJSON, err := json.Marshal(jsonSafe(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal raw settings: %w", err)
	}
	if raw == nil {
		sourceJSON = []byte("{}")
	}

	targetJSON, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal normalized settings: %w", err)
	}

	patch, err := jsondiff.CompareJSON(sourceJSON, targetJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to compute diff: %w", err)
	}

	corrections := Translate(patch)
	sort.SliceStable(corrections, func(i, j int) bool {
		return corrections[i].Path < corrections[j].Path
	})
	return corrections, nil
}

// jsonSafe converts YAML maps and non-finite numbers so the value marshals
func jsonSafe(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = jsonSafe(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = jsonSafe(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = jsonSafe(val)
		}
		return out
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return fmt.Sprint(t)
		}
		return t
	case float32:
		return jsonSafe(float64(t))
	default:
		return v
	}
}
