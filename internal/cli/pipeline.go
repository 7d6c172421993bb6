package cli

import (
	"context"
	"errors"
	"os"

	"github.com/commentguard/commentguard/internal/observability/receipt"
	"github.com/commentguard/commentguard/internal/pipeline"
	"github.com/spf13/cobra"
)

// pipelineCmd serves NDJSON on stdio
var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Decide comments streamed as NDJSON on stdin",
	Long: `Reads one request per line from stdin and writes one response per line
to stdout, in order:

  {"id": 1, "assessment": {...}}
  {"id": 2, "assessment_error": "provider timeout"}

A request whose assessment is missing, failed or undecodable is held for
manual moderation. Lines over 1 MiB get an error response; the stream
continues.

Example:
  commentguard pipeline --preset strict < requests.ndjson`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runPipeline,
}

var (
	pipelinePolicyFlag string
	pipelinePresetFlag string
	pipelineRepairFlag bool
)

func init() {
	pipelineCmd.Flags().StringVarP(&pipelinePolicyFlag, "policy", "P", "", "Path to policy settings (YAML or JSON)")
	pipelineCmd.Flags().StringVar(&pipelinePresetFlag, "preset", "", "Use built-in preset: default, lenient, or strict")
	pipelineCmd.Flags().BoolVar(&pipelineRepairFlag, "repair", false, "Repair malformed assessment JSON before decoding")
}

// GetPipelineCmd export
func GetPipelineCmd() *cobra.Command {
	return pipelineCmd
}

func runPipeline(cmd *cobra.Command, _ []string) (err error) {
	ctx := cmd.Context()
	sess := receipt.Start(ctx, "commentguard pipeline", os.Args[1:])
	var receiptOpts []receipt.Option
	defer func() { _ = sess.Finish(err, receiptOpts...) }()

	ctx, done := commandScope(ctx, "pipeline")
	defer func() { done(err) }()

	cfg, source, err := loadPolicySource(pipelinePolicyFlag, pipelinePresetFlag)
	if err != nil {
		return err
	}
	receiptOpts = append(receiptOpts, source.receiptOption(cfg))
	warnRuleCompileErrors(cmd, cfg)

	proc, err := pipeline.NewProcessor(cfg, pipeline.Options{Repair: pipelineRepairFlag})
	if err != nil {
		return err
	}

	err = proc.ServeNDJSON(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
