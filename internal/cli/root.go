package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/commentguard/commentguard/internal/observability"
	"github.com/commentguard/commentguard/internal/observability/logging"
	otelobs "github.com/commentguard/commentguard/internal/observability/otel"
	"github.com/commentguard/commentguard/internal/observability/receipt"
	"github.com/commentguard/commentguard/internal/version"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Environment overrides, applied when the matching flag is not set
const (
	envLogFormat = "COMMENTGUARD_LOG_FORMAT"
	envLogLevel  = "COMMENTGUARD_LOG_LEVEL"
	envPolicy    = "COMMENTGUARD_POLICY"
	envPreset    = "COMMENTGUARD_PRESET"
)

var rootCmd = &cobra.Command{
	Use:   "commentguard",
	Short: "Comment moderation policy engine",
	Long: `commentguard decides what happens to a submitted comment (publish,
return for revision, or delete) from a provider assessment and a site
moderation policy, and explains the decision to the author.`,
	Version:           version.String(),
	SilenceErrors:     true,
	PersistentPreRunE: setupAmbient,
}

var (
	envFileFlag        string
	logFormatFlag      string
	logLevelFlag       string
	logOutputFlag      string
	otelEnabledFlag    bool
	otelEndpointFlag   string
	otelProtocolFlag   string
	otelInsecureFlag   bool
	otelSampleRateFlag float64
	receiptPathFlag    string
	receiptModeFlag    string
)

// ambient holds what setupAmbient opened so Execute can close it
var ambient struct {
	logger   logging.Logger
	tracing  *otelobs.Handle
	receipts receipt.Writer
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&envFileFlag, "env-file", ".env", "Load environment overrides from this file if it exists")
	pf.StringVar(&logFormatFlag, "log-format", logging.FormatPretty, "Log format: pretty or jsonl (env "+envLogFormat+")")
	pf.StringVar(&logLevelFlag, "log-level", logging.LevelInfo, "Log level: debug, info, warn, error (env "+envLogLevel+")")
	pf.StringVar(&logOutputFlag, "log-output", "stderr", "Log destination: stderr or a file path")
	pf.BoolVar(&otelEnabledFlag, "otel", false, "Export OpenTelemetry traces")
	pf.StringVar(&otelEndpointFlag, "otel-endpoint", "", "OTLP endpoint (default from OTEL_EXPORTER_OTLP_ENDPOINT)")
	pf.StringVar(&otelProtocolFlag, "otel-protocol", otelobs.ProtocolHTTP, "OTLP protocol: otlphttp or otlpgrpc")
	pf.BoolVar(&otelInsecureFlag, "otel-insecure", false, "Disable TLS for the OTLP exporter")
	pf.Float64Var(&otelSampleRateFlag, "otel-sample-ratio", 1.0, "Trace sample ratio, 0..1")
	pf.StringVar(&receiptPathFlag, "receipt", "", "Write an audit receipt to this path (- for stdout)")
	pf.StringVar(&receiptModeFlag, "receipt-mode", string(receipt.ModeOverwrite), "Receipt write mode: overwrite or append")

	rootCmd.AddCommand(GetEvaluateCmd())
	rootCmd.AddCommand(GetPolicyCmd())
	rootCmd.AddCommand(GetPipelineCmd())
	rootCmd.AddCommand(GetServeCmd())
}

// Execute runs the root command and exits non-zero on error
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	teardownAmbient()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func setupAmbient(cmd *cobra.Command, _ []string) error {
	if err := loadEnvFile(cmd.Flags(), envFileFlag); err != nil {
		return err
	}
	applyEnv(cmd.Flags(), "log-format", envLogFormat)
	applyEnv(cmd.Flags(), "log-level", envLogLevel)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = observability.WithOpID(ctx)

	logger, err := logging.NewLogger(logging.Config{Format: logFormatFlag, Level: logLevelFlag, Output: logOutputFlag})
	if err != nil {
		return err
	}
	ambient.logger = logger
	ctx = logging.WithLogger(ctx, logger)

	otelCfg := otelobs.Config{
		Enabled:     otelEnabledFlag,
		Endpoint:    otelEndpointFlag,
		Protocol:    otelProtocolFlag,
		Insecure:    otelInsecureFlag,
		ServiceName: otelobs.ServiceName,
		SampleRatio: otelSampleRateFlag,
	}
	if err := otelCfg.Validate(); err != nil {
		return err
	}
	if otelCfg.Enabled {
		h, err := otelobs.Init(ctx, otelCfg)
		if err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		ambient.tracing = h
		ctx = otelobs.WithHandle(ctx, h)
	}

	if receiptPathFlag != "" {
		w, err := receipt.NewWriter(receiptPathFlag, receiptModeFlag)
		if err != nil {
			return err
		}
		ambient.receipts = w
		ctx = receipt.WithWriter(ctx, w)
	}

	cmd.SetContext(ctx)
	return nil
}

func teardownAmbient() {
	if ambient.receipts != nil {
		_ = ambient.receipts.Close()
	}
	if ambient.tracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = ambient.tracing.Shutdown(ctx)
		cancel()
	}
	if ambient.logger != nil {
		_ = ambient.logger.Close()
	}
}

// loadEnvFile reads KEY=VALUE pairs into the process environment without
// overriding variables that are already set. A missing default file is fine;
// a missing file named explicitly is not.
func loadEnvFile(flags *pflag.FlagSet, path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if errors.Is(err, os.ErrNotExist) && !flags.Changed("env-file") {
		return nil
	}
	return fmt.Errorf("failed to load env file %s: %w", path, err)
}

// applyEnv copies an environment value into a flag the user did not set
func applyEnv(flags *pflag.FlagSet, name, env string) {
	f := flags.Lookup(name)
	if f == nil || f.Changed {
		return
	}
	if v, ok := os.LookupEnv(env); ok && v != "" {
		_ = f.Value.Set(v)
	}
}
