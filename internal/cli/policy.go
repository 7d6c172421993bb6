package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/commentguard/commentguard/internal/differ"
	"github.com/commentguard/commentguard/internal/models"
	"github.com/commentguard/commentguard/internal/observability/logging"
	otelobs "github.com/commentguard/commentguard/internal/observability/otel"
	"github.com/commentguard/commentguard/internal/observability/receipt"
	"github.com/commentguard/commentguard/internal/pipeline"
	"github.com/commentguard/commentguard/internal/policy"
	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
	"go.opentelemetry.io/otel/attribute"
	"gopkg.in/yaml.v3"
)

// policyCmd group
var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Policy management commands",
	Long:  `Inspect, normalize and explain moderation policies.`,
}

var policyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the normalized policy",
	Long: `Prints the policy exactly as the engine sees it, after defaults and
clamping.

Example:
  commentguard policy show --preset strict
  commentguard policy show --policy ./site.yaml --json`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runPolicyShow,
}

var policyNormalizeCmd = &cobra.Command{
	Use:   "normalize <settings-file>",
	Short: "Report how stored settings were corrected",
	Long: `Compares stored settings with their normalized form and lists every
value that was defaulted, replaced or dropped.

Example:
  commentguard policy normalize ./wp-options.json`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runPolicyNormalize,
}

var policyPresetsCmd = &cobra.Command{
	Use:          "presets",
	Short:        "List built-in presets",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runPolicyPresets,
}

var policyServicesCmd = &cobra.Command{
	Use:   "services",
	Short: "List the provider services a policy needs",
	Long: `Lists the assessment endpoints to request for the enabled checks,
optionally restricted to the endpoints a plan allows.

Example:
  commentguard policy services --preset lenient --allowed antispam,commentscore`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runPolicyServices,
}

var (
	policyFileFlag    string
	policyPresetFlag  string
	policyJSONFlag    bool
	policyAllowedFlag []string
)

func init() {
	for _, c := range []*cobra.Command{policyShowCmd, policyServicesCmd} {
		c.Flags().StringVarP(&policyFileFlag, "policy", "P", "", "Path to policy settings (YAML or JSON)")
		c.Flags().StringVar(&policyPresetFlag, "preset", "", "Use built-in preset: default, lenient, or strict")
	}
	policyShowCmd.Flags().BoolVar(&policyJSONFlag, "json", false, "Output JSON instead of YAML")
	policyNormalizeCmd.Flags().BoolVar(&policyJSONFlag, "json", false, "Output JSON")
	policyServicesCmd.Flags().StringSliceVar(&policyAllowedFlag, "allowed", nil, "Endpoints the plan allows (comma-separated)")

	policyCmd.AddCommand(policyShowCmd)
	policyCmd.AddCommand(policyNormalizeCmd)
	policyCmd.AddCommand(policyPresetsCmd)
	policyCmd.AddCommand(policyServicesCmd)
}

// GetPolicyCmd export
func GetPolicyCmd() *cobra.Command {
	return policyCmd
}

// commandScope opens the span and start/complete events shared by the
// smaller commands. Call the returned func with the final error.
func commandScope(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	log := logging.From(ctx)
	start := time.Now()

	attrs = append(attrs, attribute.String("commentguard.command", strings.ReplaceAll(name, ".", " ")))
	ctx, end := otelobs.StartSpan(ctx, name, attrs...)
	event := strings.ReplaceAll(name, ".", "_")
	log.Event(ctx, event+".start", nil)

	return ctx, func(err error) {
		result := "success"
		if err != nil {
			result = "fail"
		}
		log.Event(ctx, event+".complete", map[string]any{
			"duration_ms": time.Since(start).Milliseconds(),
			"result":      result,
		})
		end(err)
	}
}

func runPolicyShow(cmd *cobra.Command, _ []string) (err error) {
	ctx := cmd.Context()
	sess := receipt.Start(ctx, "commentguard policy show", os.Args[1:])
	var receiptOpts []receipt.Option
	defer func() { _ = sess.Finish(err, receiptOpts...) }()

	_, done := commandScope(ctx, "policy.show", attribute.String("commentguard.preset", policyPresetFlag))
	defer func() { done(err) }()

	cfg, source, err := loadPolicySource(policyFileFlag, policyPresetFlag)
	if err != nil {
		return fmt.Errorf("failed to load policy: %w", err)
	}
	receiptOpts = append(receiptOpts, source.receiptOption(cfg))

	return writeConfig(cmd.OutOrStdout(), cfg, policyJSONFlag)
}

func writeConfig(w io.Writer, cfg *models.PolicyConfig, asJSON bool) error {
	if asJSON {
		data, err := json.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, err = w.Write(pretty.Pretty(data))
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return enc.Close()
}

// NormalizeReport is the JSON output of policy normalize
type NormalizeReport struct {
	Source      string              `json:"source"`
	Corrections []differ.Correction `json:"corrections"`
	Config      models.PolicyConfig `json:"config"`
}

func runPolicyNormalize(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()
	sess := receipt.Start(ctx, "commentguard policy normalize", os.Args[1:])
	var receiptOpts []receipt.Option
	defer func() { _ = sess.Finish(err, receiptOpts...) }()

	_, done := commandScope(ctx, "policy.normalize")
	defer func() { done(err) }()

	path := args[0]
	raw, err := policy.LoadRaw(path)
	if err != nil {
		return err
	}
	cfg := policy.Normalize(raw)
	receiptOpts = append(receiptOpts, receipt.WithPolicyFile(path, len(cfg.CustomRules)))

	corrections, err := differ.CompareSettings(raw, cfg)
	if err != nil {
		return fmt.Errorf("failed to compare settings: %w", err)
	}

	report := NormalizeReport{Source: path, Corrections: corrections, Config: cfg}
	if report.Corrections == nil {
		report.Corrections = []differ.Correction{}
	}
	if policyJSONFlag {
		data, err := json.Marshal(report)
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(pretty.Pretty(data))
		return err
	}
	_, err = io.WriteString(cmd.OutOrStdout(), FormatNormalizeText(report))
	return err
}

// FormatNormalizeText lists corrections in path order
func FormatNormalizeText(r NormalizeReport) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Settings: %s\n", r.Source))
	if len(r.Corrections) == 0 {
		sb.WriteString("No corrections; settings are already normalized.\n")
		return sb.String()
	}
	sb.WriteString(strings.Repeat("-", 50) + "\n")
	for _, c := range r.Corrections {
		sb.WriteString(fmt.Sprintf("[%-8s] %s\n", c.Severity, c.Message))
	}
	sb.WriteString(strings.Repeat("-", 50) + "\n")
	sb.WriteString(fmt.Sprintf("%d correction(s)\n", len(r.Corrections)))
	return sb.String()
}

func runPolicyPresets(cmd *cobra.Command, _ []string) error {
	w := cmd.OutOrStdout()
	for _, name := range policy.ListPresetNames() {
		cfg := policy.MustGetPreset(name)
		fmt.Fprintf(w, "%-8s spam=%s off_topic=%s banned_topics=%s dogwhistle=%s min_score=%d custom_rules=%d\n",
			name, cfg.SpamHandling, cfg.Relevance.OffTopicHandling, cfg.Relevance.BannedTopicsHandling,
			cfg.DogwhistleHandling, cfg.Health.MinScore, len(cfg.CustomRules))
	}
	return nil
}

func runPolicyServices(cmd *cobra.Command, _ []string) (err error) {
	_, done := commandScope(cmd.Context(), "policy.services")
	defer func() { done(err) }()

	cfg, _, err := loadPolicySource(policyFileFlag, policyPresetFlag)
	if err != nil {
		return fmt.Errorf("failed to load policy: %w", err)
	}
	for _, s := range pipeline.ProviderServices(cfg, policyAllowedFlag) {
		fmt.Fprintln(cmd.OutOrStdout(), s)
	}
	return nil
}
