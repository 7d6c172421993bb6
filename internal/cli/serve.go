package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/commentguard/commentguard/internal/observability/logging"
	otelobs "github.com/commentguard/commentguard/internal/observability/otel"
	"github.com/commentguard/commentguard/internal/observability/receipt"
	"github.com/commentguard/commentguard/internal/pipeline"
	"github.com/commentguard/commentguard/internal/server"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the moderation pipeline over HTTP",
	Long: `Starts an HTTP service:

  POST /v1/evaluate   pipeline request -> pipeline response
  GET  /v1/policy     active normalized policy
  GET  /healthz       liveness

Example:
  commentguard serve --addr :8080 --preset strict`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runServe,
}

var (
	serveAddrFlag     string
	servePolicyFlag   string
	servePresetFlag   string
	serveRepairFlag   bool
	serveMaxBodyFlag  int64
	serveShutdownFlag time.Duration
)

func init() {
	serveCmd.Flags().StringVar(&serveAddrFlag, "addr", ":8080", "Listen address")
	serveCmd.Flags().StringVarP(&servePolicyFlag, "policy", "P", "", "Path to policy settings (YAML or JSON)")
	serveCmd.Flags().StringVar(&servePresetFlag, "preset", "", "Use built-in preset: default, lenient, or strict")
	serveCmd.Flags().BoolVar(&serveRepairFlag, "repair", false, "Repair malformed assessment JSON before decoding")
	serveCmd.Flags().Int64Var(&serveMaxBodyFlag, "max-body", server.DefaultMaxBodyBytes, "Maximum request body in bytes")
	serveCmd.Flags().DurationVar(&serveShutdownFlag, "shutdown-timeout", 10*time.Second, "Grace period for in-flight requests")
}

// GetServeCmd export
func GetServeCmd() *cobra.Command {
	return serveCmd
}

func runServe(cmd *cobra.Command, _ []string) (err error) {
	ctx := cmd.Context()
	sess := receipt.Start(ctx, "commentguard serve", os.Args[1:])
	var receiptOpts []receipt.Option
	defer func() { _ = sess.Finish(err, receiptOpts...) }()

	ctx, done := commandScope(ctx, "serve")
	defer func() { done(err) }()

	cfg, source, err := loadPolicySource(servePolicyFlag, servePresetFlag)
	if err != nil {
		return err
	}
	receiptOpts = append(receiptOpts, source.receiptOption(cfg))
	warnRuleCompileErrors(cmd, cfg)

	proc, err := pipeline.NewProcessor(cfg, pipeline.Options{Repair: serveRepairFlag})
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	router := server.New(proc, server.Options{
		MaxBodyBytes: serveMaxBodyFlag,
		Logger:       logging.From(ctx),
		Tracing:      otelobs.From(ctx),
	})

	srv := &http.Server{
		Addr:              serveAddrFlag,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	fmt.Fprintf(cmd.ErrOrStderr(), "Serving policy %q on %s\n", cfg.Name, serveAddrFlag)

	select {
	case err := <-errCh:
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serveShutdownFlag)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
