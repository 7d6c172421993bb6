package differ

import (
	"math"
	"strings"
	"testing"

	"github.com/commentguard/commentguard/internal/policy"
)

func findCorrection(cs []Correction, path string) (Correction, bool) {
	for _, c := range cs {
		if c.Path == path {
			return c, true
		}
	}
	return Correction{}, false
}

func TestCompareSettings_CanonicalHasNoCorrections(t *testing.T) {
	cfg := policy.DefaultConfig()
	raw := map[string]any{}
	// round trip the canonical config as raw settings
	raw["name"] = cfg.Name
	raw["checks_enabled"] = map[string]any{"spam": true, "relevance": true, "dogwhistle": true, "health": true}
	raw["spam_handling"] = "delete"
	raw["relevance"] = map[string]any{
		"off_topic_handling":      "publish",
		"banned_topics_mode":      "any",
		"banned_topics_threshold": 0.1,
		"banned_topics_handling":  "revise",
		"banned_topics":           []any{},
	}
	raw["dogwhistle_handling"] = "revise"
	raw["dogwhistle"] = map[string]any{"sensitive_topics": []any{}, "examples": []any{}}
	raw["health"] = map[string]any{
		"min_score":                       3,
		"revise_on_low_effort":            true,
		"revise_on_logical_fallacies":     true,
		"revise_on_objectionable_phrases": true,
		"revise_on_negative_tone":         true,
		"revise_on_toxicity":              true,
		"toxicity_threshold":              0.3,
	}
	raw["custom_rules"] = []any{}

	cs, err := CompareSettings(raw, policy.Normalize(raw))
	if err != nil {
		t.Fatalf("CompareSettings failed: %v", err)
	}
	if len(cs) != 0 {
		t.Errorf("expected no corrections, got %+v", cs)
	}
}

func TestCompareSettings_Corrections(t *testing.T) {
	raw := map[string]any{
		"spam_handling": "obliterate",
		"health":        map[any]any{"min_score": 99},
		"mystery":       "value",
	}

	cs, err := CompareSettings(raw, policy.Normalize(raw))
	if err != nil {
		t.Fatalf("CompareSettings failed: %v", err)
	}

	tests := []struct {
		path     string
		kind     CorrectionKind
		severity string
		contains string
	}{
		{"spam_handling", CorrectionReplaced, "critical", `value replaced with "delete"`},
		{"health.min_score", CorrectionReplaced, "critical", "replaced with 5"},
		{"health.toxicity_threshold", CorrectionAdded, "info", "missing, defaulted to 0.3"},
		{"mystery", CorrectionRemoved, "moderate", "removed"},
		{"relevance", CorrectionAdded, "info", "defaulted"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			c, ok := findCorrection(cs, tt.path)
			if !ok {
				t.Fatalf("no correction for %s in %+v", tt.path, cs)
			}
			if c.Kind != tt.kind {
				t.Errorf("kind = %q, want %q", c.Kind, tt.kind)
			}
			if c.Severity != tt.severity {
				t.Errorf("severity = %q, want %q", c.Severity, tt.severity)
			}
			if !strings.Contains(c.Message, tt.contains) || !strings.HasPrefix(c.Message, tt.path+":") {
				t.Errorf("message = %q, want %q prefixed by path", c.Message, tt.contains)
			}
		})
	}

	for i := 1; i < len(cs); i++ {
		if cs[i-1].Path > cs[i].Path {
			t.Errorf("corrections not sorted: %q before %q", cs[i-1].Path, cs[i].Path)
		}
	}
}

func TestCompareSettings_NonFiniteNumbers(t *testing.T) {
	raw := map[string]any{"relevance": map[string]any{"banned_topics_threshold": math.NaN()}}

	cs, err := CompareSettings(raw, policy.Normalize(raw))
	if err != nil {
		t.Fatalf("CompareSettings failed: %v", err)
	}
	if c, ok := findCorrection(cs, "relevance.banned_topics_threshold"); !ok || c.Kind != CorrectionReplaced {
		t.Errorf("NaN threshold correction = %+v (found %v)", c, ok)
	}
}

func TestCompareSettings_NilRaw(t *testing.T) {
	cs, err := CompareSettings(nil, policy.DefaultConfig())
	if err != nil {
		t.Fatalf("CompareSettings failed: %v", err)
	}
	for _, c := range cs {
		if c.Kind != CorrectionAdded {
			t.Errorf("unexpected %s correction for nil settings: %+v", c.Kind, c)
		}
	}
	if len(cs) == 0 {
		t.Error("expected added corrections for every default")
	}
}

func TestDottedPath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "(root)"},
		{"/spam_handling", "spam_handling"},
		{"/health/min_score", "health.min_score"},
		{"/custom_rules/0/name", "custom_rules.0.name"},
		{"/a~1b/c~0d", "a/b.c~d"},
	}
	for _, tt := range tests {
		if got := dottedPath(tt.in); got != tt.want {
			t.Errorf("dottedPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
