package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/commentguard/commentguard/internal/models"
	"github.com/commentguard/commentguard/internal/observability/receipt"
	"github.com/spf13/cobra"
)

// policyExplainCmd outputs the checks a policy applies
var policyExplainCmd = &cobra.Command{
	Use:   "explain",
	Short: "Explain what a policy does to comments",
	Long: `Lists each check with whether it is enabled, the condition that
triggers it and the action taken, plus any custom rules, in human-readable
Markdown or machine-readable JSON.

Example:
  commentguard policy explain --preset strict
  commentguard policy explain --preset lenient --json
  commentguard policy explain --policy ./site.yaml --output policy.md`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runPolicyExplain,
}

var (
	explainPreset string
	explainPolicy string
	explainJSON   bool
	explainOutput string
)

func init() {
	policyExplainCmd.Flags().StringVar(&explainPreset, "preset", "", "Use built-in preset: default, lenient, or strict")
	policyExplainCmd.Flags().StringVar(&explainPolicy, "policy", "", "Path to policy settings (YAML or JSON)")
	policyExplainCmd.Flags().BoolVar(&explainJSON, "json", false, "Output JSON instead of Markdown")
	policyExplainCmd.Flags().StringVar(&explainOutput, "output", "", "Write output to file (default: stdout)")
	policyCmd.AddCommand(policyExplainCmd)
}

// ExplainOutput is the JSON output schema
type ExplainOutput struct {
	SchemaVersion string         `json:"schema_version"`
	Source        PolicySource   `json:"source"`
	GeneratedAt   string         `json:"generated_at"`
	Policy        string         `json:"policy"`
	Checks        []ExplainCheck `json:"checks"`
	Rules         []ExplainRule  `json:"rules"`
}

// ExplainCheck is one built-in check in evaluation order
type ExplainCheck struct {
	Check     string `json:"check"`
	Enabled   bool   `json:"enabled"`
	Condition string `json:"condition"`
	Action    string `json:"action"`
}

// ExplainRule is a custom rule
type ExplainRule struct {
	Name    string `json:"name"`
	Action  string `json:"action"`
	Expr    string `json:"expr"`
	Message string `json:"message"`
}

func runPolicyExplain(cmd *cobra.Command, _ []string) (err error) {
	ctx := cmd.Context()
	sess := receipt.Start(ctx, "commentguard policy explain", os.Args[1:])
	var receiptOpts []receipt.Option
	defer func() { _ = sess.Finish(err, receiptOpts...) }()

	_, done := commandScope(ctx, "policy.explain")
	defer func() { done(err) }()

	config, source, err := loadPolicySource(explainPolicy, explainPreset)
	if err != nil {
		return err
	}
	receiptOpts = append(receiptOpts, source.receiptOption(config))

	var output string
	if explainJSON {
		output, err = generateExplainJSON(config, source)
	} else {
		output, err = generateExplainMarkdown(config, source)
	}
	if err != nil {
		return err
	}

	if explainOutput != "" {
		if err := os.WriteFile(explainOutput, []byte(output), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Output written to %s\n", explainOutput)
		return nil
	}

	fmt.Fprint(cmd.OutOrStdout(), output)
	return nil
}

// explainChecks lists the built-in checks in the order they are applied
func explainChecks(cfg *models.PolicyConfig) []ExplainCheck {
	fmtFloat := func(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
	revise := func(on bool) string {
		if on {
			return string(models.ActionRevise)
		}
		return string(models.ActionPublish)
	}

	banned := "any banned topic detected"
	if cfg.Relevance.BannedTopicsMode == models.BannedTopicsThreshold {
		banned = "banned topic share >= " + fmtFloat(cfg.Relevance.BannedTopicsThreshold)
	}
	h := cfg.Health

	return []ExplainCheck{
		{"spam", cfg.ChecksEnabled.Spam, "comment is spam (stops all other checks)", string(cfg.SpamHandling)},
		{"off_topic", cfg.ChecksEnabled.Relevance, "comment is off topic", string(cfg.Relevance.OffTopicHandling)},
		{"banned_topics", cfg.ChecksEnabled.Relevance, banned, string(cfg.Relevance.BannedTopicsHandling)},
		{"dogwhistle", cfg.ChecksEnabled.Dogwhistle, "coded language detected", string(cfg.DogwhistleHandling)},
		{"low_score", cfg.ChecksEnabled.Health, "overall score < " + strconv.Itoa(h.MinScore), string(models.ActionRevise)},
		{"low_effort", cfg.ChecksEnabled.Health, "comment appears low effort", revise(h.ReviseOnLowEffort)},
		{"logical_fallacies", cfg.ChecksEnabled.Health, "logical fallacies found", revise(h.ReviseOnLogicalFallacies)},
		{"objectionable_phrases", cfg.ChecksEnabled.Health, "objectionable phrases found", revise(h.ReviseOnObjectionablePhrases)},
		{"negative_tone", cfg.ChecksEnabled.Health, "negative tone phrases found", revise(h.ReviseOnNegativeTone)},
		{"toxicity", cfg.ChecksEnabled.Health, "toxicity score >= " + fmtFloat(h.ToxicityThreshold), revise(h.ReviseOnToxicity)},
	}
}

// generateExplainJSON produces JSON output
func generateExplainJSON(config *models.PolicyConfig, source PolicySource) (string, error) {
	output := ExplainOutput{
		SchemaVersion: "1.0",
		Source:        source,
		GeneratedAt:   time.Now().UTC().Format(time.RFC3339Nano),
		Policy:        config.Name,
		Checks:        explainChecks(config),
		Rules:         make([]ExplainRule, 0, len(config.CustomRules)),
	}
	for _, rule := range config.CustomRules {
		output.Rules = append(output.Rules, ExplainRule{
			Name:    rule.Name,
			Action:  string(rule.Action),
			Expr:    rule.Expr,
			Message: rule.Message,
		})
	}

	jsonBytes, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(jsonBytes) + "\n", nil
}

// generateExplainMarkdown produces Markdown tables
func generateExplainMarkdown(config *models.PolicyConfig, source PolicySource) (string, error) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Policy: %s\n\n", config.Name))
	sb.WriteString(fmt.Sprintf("**Source**: %s (`%s`)\n\n", source.Type, source.Name))

	sb.WriteString("| Check | Enabled | Condition | Action |\n")
	sb.WriteString("|-------|---------|-----------|--------|\n")
	for _, c := range explainChecks(config) {
		enabled := "yes"
		if !c.Enabled {
			enabled = "no"
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n", c.Check, enabled, c.Condition, c.Action))
	}

	if len(config.CustomRules) > 0 {
		sb.WriteString("\n## Custom rules\n\n")
		sb.WriteString("| Rule | Action | Message | Expr |\n")
		sb.WriteString("|------|--------|---------|------|\n")
		for _, rule := range config.CustomRules {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | `%s` |\n",
				escapeCell(rule.Name), rule.Action, orDash(escapeCell(rule.Message)), truncateExpr(escapeCell(rule.Expr), 120)))
		}
	}

	sb.WriteString("\n")
	return sb.String(), nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// escapeCell keeps pipes from splitting a table cell
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// truncateExpr shortens CEL expressions for table display
func truncateExpr(expr string, maxLen int) string {
	expr = strings.Join(strings.Fields(expr), " ")
	if len(expr) <= maxLen {
		return expr
	}
	return expr[:maxLen-3] + "..."
}
