package receipt

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"time"

	"github.com/commentguard/commentguard/internal/models"
	"github.com/commentguard/commentguard/internal/observability"
)

// MaxErrorLength is the maximum length for error strings in receipts.
const MaxErrorLength = 2048

// Session tracks command execution
type Session struct {
	ctx     context.Context
	start   time.Time
	command string
	args    []string
}

// Start session
func Start(ctx context.Context, cmd string, args []string) *Session {
	return &Session{
		ctx:     ctx,
		start:   time.Now(),
		command: cmd,
		args:    args,
	}
}

// Option configures receipt
type Option func(*Receipt)

// WithPreset records an embedded preset as the policy source
func WithPreset(name string, customRules int) Option {
	return func(r *Receipt) {
		r.Policy = &PolicyRef{Source: "preset", Preset: name, CustomRules: customRules}
	}
}

// WithPolicyFile records a settings file as the policy source, hashing it
// when readable.
func WithPolicyFile(path string, customRules int) Option {
	return func(r *Receipt) {
		if path == "" {
			return
		}
		ref := &PolicyRef{Source: "file", Path: path, CustomRules: customRules}
		if hash, err := computeSHA256(path); err == nil {
			ref.SHA256 = hash
		}
		r.Policy = ref
	}
}

// WithDecision appends the outcome for one input
func WithDecision(input string, data []byte, d models.Decision) Option {
	return func(r *Receipt) {
		kinds := make([]string, 0, len(d.Issues))
		for _, k := range d.Kinds() {
			kinds = append(kinds, string(k))
		}
		r.Decisions = append(r.Decisions, DecisionSummary{
			Input:       input,
			InputSHA256: hashBytes(data),
			Action:      string(d.Action),
			IssueKinds:  kinds,
			RuleErrors:  len(d.RuleErrors),
		})
	}
}

// WithInputError appends an input that could not be evaluated
func WithInputError(input string, data []byte, err error) Option {
	return func(r *Receipt) {
		s := DecisionSummary{Input: input, InputSHA256: hashBytes(data)}
		if err != nil {
			s.Error = truncateError(err.Error())
		}
		r.Decisions = append(r.Decisions, s)
	}
}

// Finish and write receipt
func (s *Session) Finish(err error, opts ...Option) error {
	w := From(s.ctx)
	if w == nil {
		// receipts disabled
		return nil
	}

	redactedArgs, wasRedacted := RedactArgs(s.args)

	r := Receipt{
		SchemaVersion: ReceiptSchemaVersion,
		OpID:          observability.OpID(s.ctx),
		TsStart:       s.start.Format(time.RFC3339Nano),
		TsEnd:         time.Now().Format(time.RFC3339Nano),
		Command:       s.command,
		Args:          redactedArgs,
		ArgsRedacted:  wasRedacted,
		Result:        Result{Status: "success"},
	}
	if err != nil {
		r.Result = Result{Status: "fail", Error: truncateError(err.Error())}
	}

	for _, opt := range opts {
		opt(&r)
	}
	r.Totals = tally(r.Decisions)

	return w.Write(r)
}

func tally(ds []DecisionSummary) *ActionTotals {
	if len(ds) == 0 {
		return nil
	}
	t := &ActionTotals{}
	for _, d := range ds {
		switch models.Action(d.Action) {
		case models.ActionPublish:
			t.Publish++
		case models.ActionRevise:
			t.Revise++
		case models.ActionDelete:
			t.Delete++
		default:
			t.Held++
		}
	}
	return t
}

func hashBytes(data []byte) string {
	if data == nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func computeSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

func truncateError(s string) string {
	if len(s) <= MaxErrorLength {
		return s
	}
	return s[:MaxErrorLength-3] + "..."
}
