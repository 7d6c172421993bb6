package policy

import (
	"reflect"
	"testing"

	"github.com/commentguard/commentguard/internal/models"
)

// TestEmbeddedPresetFilesExist fails when the //go:embed directive or the
// preset file paths drift apart.
func TestEmbeddedPresetFilesExist(t *testing.T) {
	for name, path := range presetFiles {
		t.Run(name, func(t *testing.T) {
			data, err := presetFS.ReadFile(path)
			if err != nil {
				t.Fatalf("failed to read embedded file %q: %v (check //go:embed directive)", path, err)
			}
			if len(data) < 10 {
				t.Errorf("embedded file %q suspiciously small (%d bytes)", path, len(data))
			}
		})
	}
}

func TestGetPreset(t *testing.T) {
	engine, err := NewEngine()
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	for _, name := range ListPresetNames() {
		t.Run(name, func(t *testing.T) {
			preset := GetPreset(name)
			if preset == nil {
				t.Fatalf("GetPreset(%q) returned nil (check embed directive and YAML parsing)", name)
			}
			if preset.Name != name {
				t.Errorf("preset name = %q, want %q", preset.Name, name)
			}
			assertInDomain(t, *preset)
			if err := engine.CompileAndValidate(preset); err != nil {
				t.Errorf("preset rules do not compile: %v", err)
			}
		})
	}
}

func TestDefaultPresetMatchesDefaultConfig(t *testing.T) {
	if got := MustGetPreset("default"); !reflect.DeepEqual(*got, DefaultConfig()) {
		t.Errorf("default preset drifted from DefaultConfig:\n got %+v\nwant %+v", *got, DefaultConfig())
	}
}

func TestGetPresetReturnsCopies(t *testing.T) {
	a := MustGetPreset("strict")
	a.SpamHandling = models.ActionPublish
	a.CustomRules[0].Expr = "false"

	b := MustGetPreset("strict")
	if b.SpamHandling != models.ActionDelete {
		t.Errorf("mutation leaked into preset: %q", b.SpamHandling)
	}
	if b.CustomRules[0].Expr == "false" {
		t.Error("mutation leaked into preset rules")
	}
}

func TestPresetOrdering(t *testing.T) {
	// lenient publishes what strict deletes
	a := &models.Assessment{
		Relevance: &models.RelevanceResult{
			OnTopic:      models.OnTopicResult{IsOnTopic: false, Reasoning: "unrelated"},
			BannedTopics: models.BannedTopicsResult{DetectedTopics: []string{"politics"}, QuantityOnBannedTopics: 0.2},
		},
		Health: &models.HealthResult{OverallScore: 2},
	}

	tests := []struct {
		preset string
		want   models.Action
	}{
		{"lenient", models.ActionPublish},
		{"default", models.ActionRevise},
		{"strict", models.ActionDelete},
	}
	for _, tt := range tests {
		t.Run(tt.preset, func(t *testing.T) {
			d := Evaluate(a, MustGetPreset(tt.preset))
			if d.Action != tt.want {
				t.Errorf("action = %q (issues %v), want %q", d.Action, d.Kinds(), tt.want)
			}
		})
	}
}

func TestUnknownPreset(t *testing.T) {
	if GetPreset("nope") != nil {
		t.Error("GetPreset(nope) should be nil")
	}
}
