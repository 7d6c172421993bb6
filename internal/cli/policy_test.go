package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/commentguard/commentguard/internal/differ"
	"github.com/commentguard/commentguard/internal/models"
	"github.com/commentguard/commentguard/internal/policy"
	"gopkg.in/yaml.v3"
)

func TestLoadPolicySource(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "site.yaml")
	if err := os.WriteFile(file, []byte("name: site\nspam_handling: revise\n"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		path      string
		preset    string
		envPolicy string
		envPreset string
		want      PolicySource
		wantName  string
		wantErr   bool
	}{
		{name: "default", want: PolicySource{Type: "preset", Name: "default"}, wantName: "default"},
		{name: "preset flag", preset: "strict", want: PolicySource{Type: "preset", Name: "strict"}, wantName: "strict"},
		{name: "file flag", path: file, want: PolicySource{Type: "file", Name: file}, wantName: "site"},
		{name: "both flags", path: file, preset: "strict", wantErr: true},
		{name: "unknown preset", preset: "paranoid", wantErr: true},
		{name: "env preset", envPreset: "lenient", want: PolicySource{Type: "preset", Name: "lenient"}, wantName: "lenient"},
		{name: "env policy wins over env preset", envPolicy: file, envPreset: "lenient", want: PolicySource{Type: "file", Name: file}, wantName: "site"},
		{name: "flag wins over env", preset: "strict", envPolicy: file, want: PolicySource{Type: "preset", Name: "strict"}, wantName: "strict"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(envPolicy, tt.envPolicy)
			t.Setenv(envPreset, tt.envPreset)

			cfg, source, err := loadPolicySource(tt.path, tt.preset)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if source != tt.want {
				t.Errorf("source = %+v, want %+v", source, tt.want)
			}
			if cfg.Name != tt.wantName {
				t.Errorf("policy name = %q, want %q", cfg.Name, tt.wantName)
			}
		})
	}
}

func TestWriteConfig(t *testing.T) {
	cfg := policy.MustGetPreset("strict")

	var yb bytes.Buffer
	if err := writeConfig(&yb, cfg, false); err != nil {
		t.Fatalf("writeConfig yaml failed: %v", err)
	}
	var fromYAML models.PolicyConfig
	if err := yaml.Unmarshal(yb.Bytes(), &fromYAML); err != nil {
		t.Fatalf("yaml output does not parse: %v", err)
	}
	if fromYAML.Health.MinScore != 4 || len(fromYAML.CustomRules) != 1 {
		t.Errorf("yaml config = %+v", fromYAML)
	}

	var jb bytes.Buffer
	if err := writeConfig(&jb, cfg, true); err != nil {
		t.Fatalf("writeConfig json failed: %v", err)
	}
	var fromJSON models.PolicyConfig
	if err := json.Unmarshal(jb.Bytes(), &fromJSON); err != nil {
		t.Fatalf("json output does not parse: %v", err)
	}
	if fromJSON.SpamHandling != models.ActionDelete {
		t.Errorf("json spam_handling = %q", fromJSON.SpamHandling)
	}
}

func TestFormatNormalizeText(t *testing.T) {
	clean := FormatNormalizeText(NormalizeReport{Source: "ok.json"})
	if !strings.Contains(clean, "Settings: ok.json") || !strings.Contains(clean, "No corrections") {
		t.Errorf("clean report = %q", clean)
	}

	report := NormalizeReport{
		Source: "wp-options.json",
		Corrections: []differ.Correction{
			{Path: "mystery", Kind: differ.CorrectionRemoved, Severity: "moderate", Message: "mystery: unknown or legacy key removed"},
			{Path: "spam_handling", Kind: differ.CorrectionReplaced, Severity: "critical", Message: `spam_handling: value replaced with "delete"`},
		},
	}
	out := FormatNormalizeText(report)
	for _, want := range []string{
		"[moderate] mystery: unknown",
		"[critical] spam_handling:",
		"2 correction(s)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}
