package policy

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/commentguard/commentguard/internal/models"
)

// Defaults
const (
	DefaultName                  = "default"
	DefaultSpamHandling          = models.ActionDelete
	DefaultOffTopicHandling      = models.ActionPublish
	DefaultBannedTopicsMode      = models.BannedTopicsAny
	DefaultBannedTopicsThreshold = 0.1
	DefaultBannedTopicsHandling  = models.ActionRevise
	DefaultDogwhistleHandling    = models.ActionRevise
	DefaultMinScore              = 3
	DefaultToxicityThreshold     = 0.3

	MinHealthScore = 1
	MaxHealthScore = 5
)

// DefaultConfig returns the policy used when no settings are stored
func DefaultConfig() models.PolicyConfig {
	return models.PolicyConfig{
		Name: DefaultName,
		ChecksEnabled: models.ChecksEnabled{
			Spam:       true,
			Relevance:  true,
			Dogwhistle: true,
			Health:     true,
		},
		SpamHandling: DefaultSpamHandling,
		Relevance: models.RelevancePolicy{
			OffTopicHandling:      DefaultOffTopicHandling,
			BannedTopicsMode:      DefaultBannedTopicsMode,
			BannedTopicsThreshold: DefaultBannedTopicsThreshold,
			BannedTopicsHandling:  DefaultBannedTopicsHandling,
			BannedTopics:          []string{},
		},
		DogwhistleHandling: DefaultDogwhistleHandling,
		Dogwhistle: models.DogwhistleInputs{
			SensitiveTopics: []string{},
			Examples:        []string{},
		},
		Health: models.HealthPolicy{
			MinScore:                     DefaultMinScore,
			ReviseOnLowEffort:            true,
			ReviseOnLogicalFallacies:     true,
			ReviseOnObjectionablePhrases: true,
			ReviseOnNegativeTone:         true,
			ReviseOnToxicity:             true,
			ToxicityThreshold:            DefaultToxicityThreshold,
		},
		CustomRules: []models.CustomRule{},
	}
}

// Normalize builds a PolicyConfig from loosely typed settings. Missing,
// wrongly typed or out-of-range values fall back to defaults (numbers are
// clamped). It never fails. Keys may be snake_case, camelCase, or the legacy
// WordPress option names.
func Normalize(raw map[string]any) models.PolicyConfig {
	cfg := DefaultConfig()
	if raw == nil {
		return cfg
	}

	if name, ok := lookup(raw, "name").(string); ok && strings.TrimSpace(name) != "" {
		cfg.Name = strings.TrimSpace(name)
	}

	// checks
	checks := asMap(lookup(raw, "checks_enabled", "checksEnabled", "assessment_settings"))
	cfg.ChecksEnabled.Spam = boolOr(lookup(checks, "spam", "check_spam"), cfg.ChecksEnabled.Spam)
	cfg.ChecksEnabled.Relevance = boolOr(lookup(checks, "relevance", "check_relevance"), cfg.ChecksEnabled.Relevance)
	cfg.ChecksEnabled.Dogwhistle = boolOr(lookup(checks, "dogwhistle", "check_dogwhistle"), cfg.ChecksEnabled.Dogwhistle)
	cfg.ChecksEnabled.Health = boolOr(lookup(checks, "health", "assess_health"), cfg.ChecksEnabled.Health)

	cfg.SpamHandling = actionOr(lookup(raw, "spam_handling", "spamHandling"), cfg.SpamHandling)

	// relevance
	rel := asMap(lookup(raw, "relevance", "relevance_settings"))
	cfg.Relevance.OffTopicHandling = actionOr(lookup(rel, "off_topic_handling", "offTopicHandling"), cfg.Relevance.OffTopicHandling)
	cfg.Relevance.BannedTopicsMode = modeOr(lookup(rel, "banned_topics_mode", "bannedTopicsMode"), cfg.Relevance.BannedTopicsMode)
	cfg.Relevance.BannedTopicsThreshold = fractionOr(lookup(rel, "banned_topics_threshold", "bannedTopicsThreshold"), cfg.Relevance.BannedTopicsThreshold)
	cfg.Relevance.BannedTopicsHandling = actionOr(lookup(rel, "banned_topics_handling", "bannedTopicsHandling"), cfg.Relevance.BannedTopicsHandling)
	cfg.Relevance.BannedTopics = stringListOr(lookup(rel, "banned_topics", "bannedTopics"), lookup(raw, "banned_topics", "bannedTopics"))

	// dogwhistle
	dw := asMap(lookup(raw, "dogwhistle", "dogwhistle_settings"))
	if v := lookup(raw, "dogwhistle_handling", "dogwhistleHandling"); v != nil {
		cfg.DogwhistleHandling = actionOr(v, cfg.DogwhistleHandling)
	} else {
		// legacy layout keeps the handling inside the dogwhistle settings
		cfg.DogwhistleHandling = actionOr(lookup(dw, "handling", "dogwhistle_handling"), cfg.DogwhistleHandling)
	}
	cfg.Dogwhistle.SensitiveTopics = stringListOr(lookup(dw, "sensitive_topics", "sensitiveTopics"), lookup(raw, "sensitive_topics"))
	cfg.Dogwhistle.Examples = stringListOr(lookup(dw, "examples", "dogwhistle_examples"), lookup(raw, "dogwhistle_examples"))

	// health
	h := asMap(lookup(raw, "health", "revise_settings"))
	cfg.Health.MinScore = scoreOr(lookup(h, "min_score", "minScore"), cfg.Health.MinScore)
	cfg.Health.ReviseOnLowEffort = boolOr(lookup(h, "revise_on_low_effort", "reviseOnLowEffort", "low_effort"), cfg.Health.ReviseOnLowEffort)
	cfg.Health.ReviseOnLogicalFallacies = boolOr(lookup(h, "revise_on_logical_fallacies", "reviseOnLogicalFallacies", "logical_fallacies"), cfg.Health.ReviseOnLogicalFallacies)
	cfg.Health.ReviseOnObjectionablePhrases = boolOr(lookup(h, "revise_on_objectionable_phrases", "reviseOnObjectionablePhrases", "objectionable_phrases"), cfg.Health.ReviseOnObjectionablePhrases)
	cfg.Health.ReviseOnNegativeTone = boolOr(lookup(h, "revise_on_negative_tone", "reviseOnNegativeTone", "negative_tone"), cfg.Health.ReviseOnNegativeTone)
	cfg.Health.ReviseOnToxicity = boolOr(lookup(h, "revise_on_toxicity", "reviseOnToxicity", "toxicity"), cfg.Health.ReviseOnToxicity)
	cfg.Health.ToxicityThreshold = fractionOr(lookup(h, "toxicity_threshold", "toxicityThreshold"), cfg.Health.ToxicityThreshold)

	cfg.CustomRules = normalizeRules(lookup(raw, "custom_rules", "customRules"))

	return cfg
}

// NormalizeConfig enforces the same domain constraints on an already typed
// config built in code. A zero MinScore means unset.
func NormalizeConfig(cfg models.PolicyConfig) models.PolicyConfig {
	out := cfg
	if strings.TrimSpace(out.Name) == "" {
		out.Name = DefaultName
	}
	out.SpamHandling = actionOr(string(cfg.SpamHandling), DefaultSpamHandling)
	out.Relevance.OffTopicHandling = actionOr(string(cfg.Relevance.OffTopicHandling), DefaultOffTopicHandling)
	out.Relevance.BannedTopicsMode = modeOr(string(cfg.Relevance.BannedTopicsMode), DefaultBannedTopicsMode)
	out.Relevance.BannedTopicsThreshold = fractionOr(cfg.Relevance.BannedTopicsThreshold, DefaultBannedTopicsThreshold)
	out.Relevance.BannedTopicsHandling = actionOr(string(cfg.Relevance.BannedTopicsHandling), DefaultBannedTopicsHandling)
	out.Relevance.BannedTopics = cleanStrings(cfg.Relevance.BannedTopics)
	out.DogwhistleHandling = actionOr(string(cfg.DogwhistleHandling), DefaultDogwhistleHandling)
	out.Dogwhistle.SensitiveTopics = cleanStrings(cfg.Dogwhistle.SensitiveTopics)
	out.Dogwhistle.Examples = cleanStrings(cfg.Dogwhistle.Examples)
	out.Health.MinScore = DefaultMinScore
	if cfg.Health.MinScore != 0 {
		out.Health.MinScore = scoreOr(cfg.Health.MinScore, DefaultMinScore)
	}
	out.Health.ToxicityThreshold = fractionOr(cfg.Health.ToxicityThreshold, DefaultToxicityThreshold)

	rules := make([]any, 0, len(cfg.CustomRules))
	for _, r := range cfg.CustomRules {
		rules = append(rules, map[string]any{
			"name":    r.Name,
			"expr":    r.Expr,
			"action":  string(r.Action),
			"message": r.Message,
		})
	}
	out.CustomRules = normalizeRules(rules)
	return out
}

// lookup returns the first present key
func lookup(m map[string]any, keys ...string) any {
	if m == nil {
		return nil
	}
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}
	return nil
}

// asMap accepts both JSON-style and YAML-style maps
func asMap(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		return m
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out
	default:
		return nil
	}
}

func actionOr(v any, def models.Action) models.Action {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case models.Action:
		s = string(t)
	default:
		return def
	}
	if a, ok := models.ParseAction(s); ok {
		return a
	}
	return def
}

func modeOr(v any, def models.BannedTopicsMode) models.BannedTopicsMode {
	s, ok := v.(string)
	if !ok {
		return def
	}
	switch models.BannedTopicsMode(strings.ToLower(strings.TrimSpace(s))) {
	case models.BannedTopicsAny:
		return models.BannedTopicsAny
	case models.BannedTopicsThreshold:
		return models.BannedTopicsThreshold
	default:
		return def
	}
}

func boolOr(v any, def bool) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off", "":
			return false
		}
		return def
	}
	if f, ok := toFloat(v); ok {
		return f != 0
	}
	return def
}

// fractionOr clamps into [0,1]
func fractionOr(v any, def float64) float64 {
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) {
		return def
	}
	return math.Max(0, math.Min(1, f))
}

// scoreOr rounds and clamps into the health score range
func scoreOr(v any, def int) int {
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) {
		return def
	}
	n := math.Round(f)
	if n < MinHealthScore {
		return MinHealthScore
	}
	if n > MaxHealthScore {
		return MaxHealthScore
	}
	return int(n)
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// stringListOr takes the first usable list; a comma-separated string also works
func stringListOr(candidates ...any) []string {
	for _, c := range candidates {
		switch t := c.(type) {
		case []string:
			return cleanStrings(t)
		case []any:
			items := make([]string, 0, len(t))
			for _, it := range t {
				if s, ok := it.(string); ok {
					items = append(items, s)
				}
			}
			return cleanStrings(items)
		case string:
			return cleanStrings(strings.Split(t, ","))
		}
	}
	return []string{}
}

// cleanStrings trims, drops empties and duplicates, keeps order
func cleanStrings(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func normalizeRules(v any) []models.CustomRule {
	list, ok := v.([]any)
	if !ok {
		return []models.CustomRule{}
	}
	rules := make([]models.CustomRule, 0, len(list))
	for i, item := range list {
		m := asMap(item)
		expr, _ := lookup(m, "expr").(string)
		if strings.TrimSpace(expr) == "" {
			continue
		}
		name, _ := lookup(m, "name").(string)
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("rule_%d", i+1)
		}
		msg, _ := lookup(m, "message", "failure_msg").(string)
		rules = append(rules, models.CustomRule{
			Name:    strings.TrimSpace(name),
			Expr:    expr,
			Action:  actionOr(lookup(m, "action"), models.ActionRevise),
			Message: msg,
		})
	}
	return rules
}
