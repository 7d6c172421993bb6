package cli

import (
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"github.com/commentguard/commentguard/internal/assessment"
	"github.com/commentguard/commentguard/internal/feedback"
	"github.com/commentguard/commentguard/internal/models"
	"github.com/commentguard/commentguard/internal/pipeline"
	"github.com/tidwall/pretty"
)

// FailOnAction makes evaluate exit non-zero once a decision is this severe
type FailOnAction string

const (
	FailOnNever  FailOnAction = "never"
	FailOnRevise FailOnAction = "revise"
	FailOnDelete FailOnAction = "delete"
)

// ParseFailOnAction from string
func ParseFailOnAction(s string) (FailOnAction, error) {
	switch strings.ToLower(s) {
	case "", "never":
		return FailOnNever, nil
	case "revise":
		return FailOnRevise, nil
	case "delete":
		return FailOnDelete, nil
	default:
		return "", fmt.Errorf("invalid fail-on action: %s (use never, revise, or delete)", s)
	}
}

// ShouldFail reports whether an action meets the threshold
func (f FailOnAction) ShouldFail(a models.Action) bool {
	switch f {
	case FailOnRevise:
		return a.Severity() >= models.ActionRevise.Severity()
	case FailOnDelete:
		return a == models.ActionDelete
	default:
		return false
	}
}

// EvaluateResult is one evaluated input
type EvaluateResult struct {
	Input        string           `json:"input"`
	Shape        string           `json:"shape,omitempty"`
	Outcome      pipeline.Outcome `json:"outcome"`
	Action       models.Action    `json:"action,omitempty"`
	Issues       []IssueOutput    `json:"issues"`
	RuleErrors   []string         `json:"rule_errors,omitempty"`
	Feedback     *models.Feedback `json:"feedback,omitempty"`
	FeedbackHTML string           `json:"feedback_html,omitempty"`
	Error        string           `json:"error,omitempty"`
}

// IssueOutput is a triggered condition
type IssueOutput struct {
	Kind   models.IssueKind `json:"kind"`
	Action models.Action    `json:"action"`
}

// BuildEvaluateResult from a decision. Feedback is rendered for anything
// other than publish.
func BuildEvaluateResult(input string, shape assessment.Shape, d models.Decision, a *models.Assessment, cfg *models.PolicyConfig) (EvaluateResult, error) {
	r := EvaluateResult{
		Input:      input,
		Shape:      string(shape),
		Outcome:    pipeline.OutcomeFor(d.Action),
		Action:     d.Action,
		Issues:     make([]IssueOutput, 0, len(d.Issues)),
		RuleErrors: d.RuleErrors,
	}
	for _, is := range d.Issues {
		r.Issues = append(r.Issues, IssueOutput{Kind: is.Kind, Action: is.Action})
	}
	if d.Action == models.ActionPublish {
		return r, nil
	}

	fb := feedback.Render(d, a, cfg)
	r.Feedback = &fb
	html, err := feedback.HTML(fb)
	if err != nil {
		return r, err
	}
	r.FeedbackHTML = html
	return r, nil
}

// failedResult holds an input that could not be evaluated
func failedResult(input string, err error) EvaluateResult {
	return EvaluateResult{
		Input:   input,
		Outcome: pipeline.OutcomeHold,
		Issues:  []IssueOutput{},
		Error:   err.Error(),
	}
}

// FormatEvaluateJSON renders all results as an indented JSON array
func FormatEvaluateJSON(results []EvaluateResult) ([]byte, error) {
	if results == nil {
		results = []EvaluateResult{}
	}
	data, err := json.Marshal(results)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return pretty.Pretty(data), nil
}

// FormatEvaluateText renders a human summary per input
func FormatEvaluateText(results []EvaluateResult, color bool) string {
	paint := func(code, s string) string {
		if !color {
			return s
		}
		return code + s + colorReset
	}

	var sb strings.Builder
	for i, r := range results {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(paint(colorBold, r.Input))
		sb.WriteString("\n")

		if r.Error != "" {
			sb.WriteString(fmt.Sprintf("  %s %s\n", paint(colorYellow, "hold"), r.Error))
			continue
		}

		sb.WriteString(fmt.Sprintf("  %s (%s)\n", paint(actionColor(r.Action), string(r.Outcome)), r.Action))
		for _, is := range r.Issues {
			sb.WriteString(fmt.Sprintf("  - %s -> %s\n", is.Kind, is.Action))
		}
		for _, re := range r.RuleErrors {
			sb.WriteString(fmt.Sprintf("  ! %s\n", re))
		}
		if r.Feedback != nil {
			sb.WriteString("\n")
			for _, line := range strings.Split(r.Feedback.Text(), "\n") {
				if line == "" {
					sb.WriteString("\n")
					continue
				}
				sb.WriteString("  | " + line + "\n")
			}
		}
	}
	return sb.String()
}

// FormatEvaluateHTML emits the feedback fragment of each non-published
// input, wrapped in a section naming the input.
func FormatEvaluateHTML(results []EvaluateResult) string {
	var sb strings.Builder
	for _, r := range results {
		if r.FeedbackHTML == "" {
			continue
		}
		sb.WriteString(`<section data-input="` + template.HTMLEscapeString(r.Input) + `">` + "\n")
		sb.WriteString(r.FeedbackHTML)
		sb.WriteString("\n</section>\n")
	}
	return sb.String()
}

func actionColor(a models.Action) string {
	switch a {
	case models.ActionPublish:
		return colorGreen
	case models.ActionDelete:
		return colorRed
	default:
		return colorYellow
	}
}
