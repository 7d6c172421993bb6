package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/commentguard/commentguard/internal/assessment"
	"github.com/commentguard/commentguard/internal/feedback"
	"github.com/commentguard/commentguard/internal/models"
	"github.com/commentguard/commentguard/internal/observability/logging"
	"github.com/commentguard/commentguard/internal/observability/otel"
	"github.com/commentguard/commentguard/internal/policy"
	"go.opentelemetry.io/otel/attribute"
)

// Request is one submitted comment with its provider assessment. A host
// whose provider call failed sets AssessmentError instead.
type Request struct {
	ID              json.RawMessage `json:"id,omitempty"`
	Assessment      json.RawMessage `json:"assessment,omitempty"`
	AssessmentError string          `json:"assessment_error,omitempty"`
}

// Response carries the outcome. Feedback is set for every outcome other
// than publish and hold.
type Response struct {
	ID           json.RawMessage  `json:"id,omitempty"`
	Outcome      Outcome          `json:"outcome,omitempty"`
	Action       models.Action    `json:"action,omitempty"`
	Issues       []models.Issue   `json:"issues,omitempty"`
	RuleErrors   []string         `json:"rule_errors,omitempty"`
	Feedback     *models.Feedback `json:"feedback,omitempty"`
	FeedbackText string           `json:"feedback_text,omitempty"`
	FeedbackHTML string           `json:"feedback_html,omitempty"`
	Error        *ErrorBody       `json:"error,omitempty"`
}

// Options tune a Processor
type Options struct {
	// Repair passes malformed assessment JSON through jsonrepair
	Repair bool
}

// Processor evaluates requests against one policy snapshot. Safe for
// concurrent use.
type Processor struct {
	engine *policy.Engine
	cfg    models.PolicyConfig
	opts   Options
}

// NewProcessor snapshots cfg; later changes to the caller's copy are not seen.
func NewProcessor(cfg *models.PolicyConfig, opts Options) (*Processor, error) {
	engine, err := policy.NewEngine()
	if err != nil {
		return nil, err
	}
	snapshot := policy.DefaultConfig()
	if cfg != nil {
		snapshot = policy.NormalizeConfig(*cfg)
	}
	return &Processor{engine: engine, cfg: snapshot, opts: opts}, nil
}

// Config returns a copy of the active policy
func (p *Processor) Config() models.PolicyConfig {
	return policy.NormalizeConfig(p.cfg)
}

// Process decides one request. It never fails: a missing or undecodable
// assessment holds the comment for manual moderation.
func (p *Processor) Process(ctx context.Context, req Request) (resp Response) {
	start := time.Now()
	ctx, end := otel.StartSpan(ctx, "pipeline.request")
	log := logging.From(ctx)

	defer func() {
		var spanErr error
		if resp.Error != nil {
			spanErr = errors.New(resp.Error.Message)
		}
		end(spanErr)

		fields := map[string]any{
			"duration_ms": time.Since(start).Milliseconds(),
			"outcome":     string(resp.Outcome),
		}
		if resp.Action != "" {
			fields["action"] = string(resp.Action)
			fields["issue_count"] = len(resp.Issues)
		}
		if resp.Error != nil {
			fields["error"] = resp.Error.Message
		}
		log.Event(ctx, "pipeline.decision", fields)
	}()

	if err := validateID(req.ID); err != nil {
		return invalidRequest(nil, err.Error())
	}

	a, err := p.decode(req)
	if err != nil {
		return Response{
			ID:      req.ID,
			Outcome: OutcomeHold,
			Error:   &ErrorBody{Code: CodeAssessmentUnavailable, Message: err.Error()},
		}
	}

	d := p.Decision(ctx, a)
	for _, re := range d.RuleErrors {
		log.Warn("pipeline", "custom rule failed", "error", re)
	}

	resp = Response{
		ID:         req.ID,
		Outcome:    OutcomeFor(d.Action),
		Action:     d.Action,
		Issues:     d.Issues,
		RuleErrors: d.RuleErrors,
	}
	if d.Action == models.ActionPublish {
		return resp
	}

	fb := feedback.Render(d, a, &p.cfg)
	resp.Feedback = &fb
	resp.FeedbackText = fb.Text()
	if html, err := feedback.HTML(fb); err != nil {
		log.Warn("pipeline", "feedback html render failed", "error", err.Error())
	} else {
		resp.FeedbackHTML = html
	}
	return resp
}

// Decision evaluates an already decoded assessment with the active policy
func (p *Processor) Decision(ctx context.Context, a *models.Assessment) models.Decision {
	_, end := otel.StartSpan(ctx, "evaluate", attribute.Int("commentguard.custom_rules", len(p.cfg.CustomRules)))
	d := p.engine.Evaluate(a, &p.cfg)
	end(nil)
	return d
}

func (p *Processor) decode(req Request) (*models.Assessment, error) {
	if req.AssessmentError != "" {
		return nil, fmt.Errorf("assessment failed: %s", req.AssessmentError)
	}
	raw := bytes.TrimSpace(req.Assessment)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, ErrNoAssessment
	}
	// providers may hand back the body as text; pass it through as-is
	if raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, fmt.Errorf("assessment undecodable: %w", err)
		}
		raw = []byte(text)
	}
	a, err := assessment.Decode(raw, assessment.DecodeOptions{Repair: p.opts.Repair})
	if err != nil {
		return nil, fmt.Errorf("assessment undecodable: %w", err)
	}
	return a, nil
}
