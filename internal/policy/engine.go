package policy

import (
	"fmt"
	"strings"

	"github.com/commentguard/commentguard/internal/models"
	"github.com/google/cel-go/cel"
)

// Engine evaluates the built-in checks plus custom CEL rules
type Engine struct {
	env *cel.Env
}

func NewEngine() (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("input", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Engine{env: env}, nil
}

// Evaluate runs Evaluate and then each custom rule in declaration order.
// Rule failures land in Decision.RuleErrors; they never fail the call.
func (e *Engine) Evaluate(a *models.Assessment, cfg *models.PolicyConfig) models.Decision {
	d := Evaluate(a, cfg)
	if a == nil || cfg == nil || len(cfg.CustomRules) == 0 {
		return d
	}
	// spam short-circuit also covers custom rules
	if d.Has(models.IssueSpam) {
		return d
	}

	input := AssessmentToMap(a)
	for _, rule := range cfg.CustomRules {
		matched, err := e.evaluateRule(rule, input)
		if err != nil {
			d.RuleErrors = append(d.RuleErrors, fmt.Sprintf("rule %q: %v", rule.Name, err))
			continue
		}
		if !matched {
			continue
		}
		action := rule.Action
		if !action.Valid() {
			action = models.ActionRevise
		}
		d.Issues = append(d.Issues, models.Issue{
			Kind:   models.IssueCustomRule,
			Action: action,
			Detail: models.CustomRuleDetail{Rule: rule.Name, Message: rule.Message},
		})
	}

	d.Action = resolveAction(d.Issues)
	return d
}

// evaluateRule reports whether the rule expression holds for input
func (e *Engine) evaluateRule(rule models.CustomRule, input map[string]interface{}) (bool, error) {
	// compile
	ast, issues := e.env.Compile(rule.Expr)
	if issues != nil && issues.Err() != nil {
		return false, fmt.Errorf("CEL compile error: %v", issues.Err())
	}

	// program
	prg, err := e.env.Program(ast)
	if err != nil {
		return false, fmt.Errorf("CEL program error: %v", err)
	}

	// eval
	out, _, err := prg.Eval(map[string]interface{}{
		"input": input,
	})
	if err != nil {
		return false, fmt.Errorf("CEL evaluation error: %v", err)
	}

	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("rule expression must return boolean, got %T", out.Value())
	}
	return matched, nil
}

// CompileAndValidate reports custom rules that do not compile
func (e *Engine) CompileAndValidate(cfg *models.PolicyConfig) error {
	var errors []string

	for _, rule := range cfg.CustomRules {
		_, issues := e.env.Compile(rule.Expr)
		if issues != nil && issues.Err() != nil {
			errors = append(errors, fmt.Sprintf("rule %q: %v", rule.Name, issues.Err()))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("policy validation failed:\n  %s", strings.Join(errors, "\n  "))
	}

	return nil
}
