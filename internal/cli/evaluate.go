package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/commentguard/commentguard/internal/assessment"
	"github.com/commentguard/commentguard/internal/models"
	"github.com/commentguard/commentguard/internal/observability/logging"
	otelobs "github.com/commentguard/commentguard/internal/observability/otel"
	"github.com/commentguard/commentguard/internal/observability/receipt"
	"github.com/commentguard/commentguard/internal/pipeline"
	"github.com/commentguard/commentguard/internal/policy"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// stdinInput is the input name for standard input
const stdinInput = "-"

// evaluateCmd decides one or more assessments
var evaluateCmd = &cobra.Command{
	Use:   "evaluate [assessment.json ...]",
	Short: "Decide what happens to comments from their assessments",
	Long: `Evaluates provider assessments (native or megacall JSON) against a
moderation policy and prints the decision and the feedback the author would
see. Reads stdin when no files are given. Files are evaluated concurrently;
output keeps argument order.

Examples:
  commentguard evaluate comment.json
  commentguard evaluate --preset strict --format json a.json b.json
  cat response.json | commentguard evaluate --repair --format html
  commentguard evaluate --policy site.yaml --fail-on delete batch/*.json`,
	SilenceUsage: true,
	RunE:         runEvaluate,
}

var (
	evalPolicyFlag string
	evalPresetFlag string
	evalFormatFlag string
	evalRepairFlag bool
	evalJobsFlag   int
	evalFailOnFlag string
)

func init() {
	evaluateCmd.Flags().StringVarP(&evalPolicyFlag, "policy", "P", "", "Path to policy settings (YAML or JSON)")
	evaluateCmd.Flags().StringVar(&evalPresetFlag, "preset", "", "Use built-in preset: default, lenient, or strict")
	evaluateCmd.Flags().StringVar(&evalFormatFlag, "format", "text", "Output format: text, json, or html")
	evaluateCmd.Flags().BoolVar(&evalRepairFlag, "repair", false, "Repair malformed assessment JSON before decoding")
	evaluateCmd.Flags().IntVarP(&evalJobsFlag, "jobs", "j", runtime.NumCPU(), "Maximum inputs evaluated at once")
	evaluateCmd.Flags().StringVar(&evalFailOnFlag, "fail-on", "never", "Exit non-zero when a decision is at least: never, revise, or delete")
}

// GetEvaluateCmd export
func GetEvaluateCmd() *cobra.Command {
	return evaluateCmd
}

// readInput is swapped in tests
var readInput = func(name string) ([]byte, error) {
	if name == stdinInput {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(name)
}

func runEvaluate(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()
	sess := receipt.Start(ctx, "commentguard evaluate", os.Args[1:])
	var receiptOpts []receipt.Option
	defer func() {
		_ = sess.Finish(err, receiptOpts...)
	}()

	log := logging.From(ctx)
	start := time.Now()

	ctx, end := otelobs.StartSpan(ctx, "evaluate.batch",
		attribute.String("commentguard.command", "evaluate"),
		attribute.Int("commentguard.inputs", max(len(args), 1)))
	defer func() { end(err) }()

	log.Event(ctx, "evaluate.start", nil)
	var resultStatus string
	defer func() {
		log.Event(ctx, "evaluate.complete", map[string]any{
			"duration_ms": time.Since(start).Milliseconds(),
			"result":      resultStatus,
		})
	}()

	switch evalFormatFlag {
	case "text", "json", "html":
	default:
		resultStatus = "fail"
		return fmt.Errorf("invalid format: %s (use text, json, or html)", evalFormatFlag)
	}
	failOn, err := ParseFailOnAction(evalFailOnFlag)
	if err != nil {
		resultStatus = "fail"
		return err
	}

	cfg, source, err := loadPolicySource(evalPolicyFlag, evalPresetFlag)
	if err != nil {
		resultStatus = "fail"
		return fmt.Errorf("failed to load policy: %w", err)
	}
	receiptOpts = append(receiptOpts, source.receiptOption(cfg))

	proc, err := pipeline.NewProcessor(cfg, pipeline.Options{Repair: evalRepairFlag})
	if err != nil {
		resultStatus = "fail"
		return err
	}
	warnRuleCompileErrors(cmd, cfg)

	names := args
	if len(names) == 0 {
		names = []string{stdinInput}
	}

	results, raw, err := evaluateInputs(ctx, proc, names, evalRepairFlag, evalJobsFlag)
	if err != nil {
		resultStatus = "fail"
		return err
	}

	failed := 0
	exceeded := 0
	for i, r := range results {
		if r.Error != "" {
			failed++
			receiptOpts = append(receiptOpts, receipt.WithInputError(r.Input, raw[i], errors.New(r.Error)))
			continue
		}
		receiptOpts = append(receiptOpts, receipt.WithDecision(r.Input, raw[i], decisionOf(r)))
		if failOn.ShouldFail(r.Action) {
			exceeded++
		}
	}

	if err := writeEvaluateOutput(cmd.OutOrStdout(), results, evalFormatFlag); err != nil {
		resultStatus = "fail"
		return err
	}

	switch {
	case failed > 0:
		resultStatus = "fail"
		return fmt.Errorf("%d of %d input(s) could not be evaluated", failed, len(results))
	case exceeded > 0:
		resultStatus = "fail"
		return fmt.Errorf("%d decision(s) at or above %s", exceeded, failOn)
	}
	resultStatus = "success"
	return nil
}

// evaluateInputs reads, decodes and decides each input with at most jobs in
// flight. Per-input failures are reported in the result, not as an error;
// only cancellation aborts the batch. The raw bytes of each input are
// returned alongside, by index.
func evaluateInputs(ctx context.Context, proc *pipeline.Processor, names []string, repair bool, jobs int) ([]EvaluateResult, [][]byte, error) {
	if jobs < 1 {
		jobs = 1
	}
	cfg := proc.Config()
	results := make([]EvaluateResult, len(names))
	raw := make([][]byte, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := readInput(name)
			raw[i] = data
			if err != nil {
				results[i] = failedResult(name, fmt.Errorf("failed to read input: %w", err))
				return nil
			}

			a, shape, err := assessment.DecodeShape(data, assessment.DecodeOptions{Repair: repair})
			if err != nil {
				results[i] = failedResult(name, err)
				return nil
			}

			d := proc.Decision(gctx, a)
			r, err := BuildEvaluateResult(name, shape, d, a, &cfg)
			if err != nil {
				logging.From(gctx).Warn("evaluate", "feedback html render failed", "input", name, "error", err.Error())
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return results, raw, nil
}

func writeEvaluateOutput(w io.Writer, results []EvaluateResult, format string) error {
	var out []byte
	switch format {
	case "json":
		data, err := FormatEvaluateJSON(results)
		if err != nil {
			return err
		}
		out = data
	case "html":
		out = []byte(FormatEvaluateHTML(results))
	default:
		out = []byte(FormatEvaluateText(results, w == os.Stdout && stdoutIsTerminal()))
	}
	_, err := w.Write(out)
	return err
}

// decisionOf rebuilds the receipt view of a result
func decisionOf(r EvaluateResult) models.Decision {
	d := models.Decision{Action: r.Action, RuleErrors: r.RuleErrors, Issues: make([]models.Issue, 0, len(r.Issues))}
	for _, is := range r.Issues {
		d.Issues = append(d.Issues, models.Issue{Kind: is.Kind, Action: is.Action})
	}
	return d
}

// warnRuleCompileErrors reports custom rules that will never match
func warnRuleCompileErrors(cmd *cobra.Command, cfg *models.PolicyConfig) {
	engine, err := policy.NewEngine()
	if err != nil {
		return
	}
	if err := engine.CompileAndValidate(cfg); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%sWarning:%s %v\n", colorYellow, colorReset, err)
		logging.From(cmd.Context()).Warn("policy", "custom rules failed to compile", "error", err.Error())
	}
}
