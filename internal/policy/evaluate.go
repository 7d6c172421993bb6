package policy

import (
	"github.com/commentguard/commentguard/internal/models"
	"github.com/shopspring/decimal"
)

// thresholdPlaces is the precision used for inclusive threshold checks, so
// provider float noise (0.30000000000000004) cannot cross a boundary
const thresholdPlaces = 6

// Evaluate applies the built-in checks to one assessment. It is pure and
// total: nil sections and nil inputs skip their checks. Custom rules are
// handled by Engine.
func Evaluate(a *models.Assessment, cfg *models.PolicyConfig) models.Decision {
	d := models.Decision{Action: models.ActionPublish, Issues: []models.Issue{}}
	if a == nil {
		return d
	}
	if cfg == nil {
		def := DefaultConfig()
		cfg = &def
	}

	// spam preempts everything else
	if cfg.ChecksEnabled.Spam && a.Spam != nil && a.Spam.IsSpam {
		d.Issues = append(d.Issues, models.Issue{
			Kind:   models.IssueSpam,
			Action: cfg.SpamHandling,
			Detail: models.SpamDetail{Confidence: a.Spam.Confidence},
		})
		d.Action = resolveAction(d.Issues)
		return d
	}

	if cfg.ChecksEnabled.Relevance && a.Relevance != nil {
		d.Issues = append(d.Issues, relevanceIssues(a.Relevance, cfg.Relevance)...)
	}

	if cfg.ChecksEnabled.Dogwhistle && a.Dogwhistle != nil {
		if a.Dogwhistle.Detected && cfg.DogwhistleHandling != models.ActionPublish {
			d.Issues = append(d.Issues, models.Issue{
				Kind:   models.IssueDogwhistle,
				Action: cfg.DogwhistleHandling,
				Detail: models.DogwhistleDetail{Terms: a.Dogwhistle.Terms},
			})
		}
	}

	if cfg.ChecksEnabled.Health && a.Health != nil {
		d.Issues = append(d.Issues, healthIssues(a.Health, cfg.Health)...)
	}

	d.Action = resolveAction(d.Issues)
	return d
}

func relevanceIssues(r *models.RelevanceResult, p models.RelevancePolicy) []models.Issue {
	var issues []models.Issue

	if !r.OnTopic.IsOnTopic && p.OffTopicHandling != models.ActionPublish {
		issues = append(issues, models.Issue{
			Kind:   models.IssueOffTopic,
			Action: p.OffTopicHandling,
			Detail: models.OffTopicDetail{Reasoning: r.OnTopic.Reasoning},
		})
	}

	if BannedTopicsTriggered(r.BannedTopics, p) {
		issues = append(issues, models.Issue{
			Kind:   models.IssueBannedTopics,
			Action: p.BannedTopicsHandling,
			Detail: models.BannedTopicsDetail{
				Topics:    r.BannedTopics.DetectedTopics,
				Quantity:  r.BannedTopics.QuantityOnBannedTopics,
				Mode:      p.BannedTopicsMode,
				Threshold: p.BannedTopicsThreshold,
			},
		})
	}

	return issues
}

// BannedTopicsTriggered reports whether detected banned topics call for the
// configured handling. In any mode the threshold is ignored.
func BannedTopicsTriggered(b models.BannedTopicsResult, p models.RelevancePolicy) bool {
	if len(b.DetectedTopics) == 0 {
		return false
	}
	if p.BannedTopicsMode != models.BannedTopicsThreshold {
		return true
	}
	return AtLeast(b.QuantityOnBannedTopics, p.BannedTopicsThreshold)
}

func healthIssues(h *models.HealthResult, p models.HealthPolicy) []models.Issue {
	var issues []models.Issue
	revise := func(kind models.IssueKind, detail models.IssueDetail) {
		issues = append(issues, models.Issue{Kind: kind, Action: models.ActionRevise, Detail: detail})
	}

	if h.OverallScore < p.MinScore {
		revise(models.IssueLowScore, models.LowScoreDetail{Score: h.OverallScore, MinScore: p.MinScore})
	}
	if p.ReviseOnLowEffort && h.AppearsLowEffort {
		revise(models.IssueLowEffort, models.LowEffortDetail{})
	}
	if p.ReviseOnLogicalFallacies && len(h.LogicalFallacies) > 0 {
		revise(models.IssueLogicalFallacies, models.FlaggedCountDetail{Kind: models.IssueLogicalFallacies, Count: len(h.LogicalFallacies)})
	}
	if p.ReviseOnObjectionablePhrases && len(h.ObjectionablePhrases) > 0 {
		revise(models.IssueObjectionablePhrases, models.FlaggedCountDetail{Kind: models.IssueObjectionablePhrases, Count: len(h.ObjectionablePhrases)})
	}
	if p.ReviseOnNegativeTone && len(h.NegativeTonePhrases) > 0 {
		revise(models.IssueNegativeTone, models.FlaggedCountDetail{Kind: models.IssueNegativeTone, Count: len(h.NegativeTonePhrases)})
	}
	if p.ReviseOnToxicity && h.ToxicityScore != nil && AtLeast(*h.ToxicityScore, p.ToxicityThreshold) {
		revise(models.IssueToxicity, models.ToxicityDetail{Score: *h.ToxicityScore, Threshold: p.ToxicityThreshold})
	}

	return issues
}

// AtLeast is an inclusive comparison of two fractions
func AtLeast(value, threshold float64) bool {
	v := decimal.NewFromFloat(value).Round(thresholdPlaces)
	t := decimal.NewFromFloat(threshold).Round(thresholdPlaces)
	return v.GreaterThanOrEqual(t)
}

// resolveAction picks the most severe action, publish when there are no issues
func resolveAction(issues []models.Issue) models.Action {
	action := models.ActionPublish
	for _, is := range issues {
		action = models.MostSevere(action, is.Action)
	}
	return action
}
