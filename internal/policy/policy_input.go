package policy

import "github.com/commentguard/commentguard/internal/models"

// AssessmentToMap builds the CEL "input" value. Every section key is always
// present so rules can read fields without has() guards; has_<section>
// tells requested sections apart from zero values.
func AssessmentToMap(a *models.Assessment) map[string]interface{} {
	if a == nil {
		a = &models.Assessment{}
	}

	return map[string]interface{}{
		"has_spam":       a.Spam != nil,
		"has_relevance":  a.Relevance != nil,
		"has_dogwhistle": a.Dogwhistle != nil,
		"has_health":     a.Health != nil,
		"spam":           spamInput(a.Spam),
		"relevance":      relevanceInput(a.Relevance),
		"dogwhistle":     dogwhistleInput(a.Dogwhistle),
		"health":         healthInput(a.Health),
	}
}

func spamInput(s *models.SpamResult) map[string]interface{} {
	if s == nil {
		s = &models.SpamResult{}
	}
	return map[string]interface{}{
		"is_spam":    s.IsSpam,
		"confidence": s.Confidence,
		"reasoning":  s.Reasoning,
	}
}

func relevanceInput(r *models.RelevanceResult) map[string]interface{} {
	if r == nil {
		r = &models.RelevanceResult{OnTopic: models.OnTopicResult{IsOnTopic: true}}
	}
	return map[string]interface{}{
		"on_topic": map[string]interface{}{
			"is_on_topic": r.OnTopic.IsOnTopic,
			"reasoning":   r.OnTopic.Reasoning,
			"confidence":  r.OnTopic.Confidence,
		},
		"banned_topics": map[string]interface{}{
			"detected_topics": stringSliceToInterface(r.BannedTopics.DetectedTopics),
			"quantity":        r.BannedTopics.QuantityOnBannedTopics,
			"reasoning":       r.BannedTopics.Reasoning,
			"confidence":      r.BannedTopics.Confidence,
		},
	}
}

func dogwhistleInput(d *models.DogwhistleResult) map[string]interface{} {
	if d == nil {
		d = &models.DogwhistleResult{}
	}
	return map[string]interface{}{
		"detected":       d.Detected,
		"reasoning":      d.Reasoning,
		"terms":          stringSliceToInterface(d.Terms),
		"categories":     stringSliceToInterface(d.Categories),
		"confidence":     d.Confidence,
		"subtlety_level": d.SubtletyLevel,
		"harm_potential": d.HarmPotential,
	}
}

func healthInput(h *models.HealthResult) map[string]interface{} {
	if h == nil {
		h = &models.HealthResult{OverallScore: MaxHealthScore}
	}

	fallacies := make([]interface{}, 0, len(h.LogicalFallacies))
	for _, f := range h.LogicalFallacies {
		fallacies = append(fallacies, map[string]interface{}{
			"name":              f.FallacyName,
			"quoted_example":    f.QuotedExample,
			"explanation":       f.Explanation,
			"suggested_rewrite": f.SuggestedRewrite,
		})
	}

	toxicity := 0.0
	if h.ToxicityScore != nil {
		toxicity = *h.ToxicityScore
	}

	return map[string]interface{}{
		"overall_score":         int64(h.OverallScore),
		"appears_low_effort":    h.AppearsLowEffort,
		"logical_fallacies":     fallacies,
		"objectionable_phrases": phrasesInput(h.ObjectionablePhrases),
		"negative_tone_phrases": phrasesInput(h.NegativeTonePhrases),
		"has_toxicity":          h.ToxicityScore != nil,
		"toxicity_score":        toxicity,
		"toxicity_explanation":  h.ToxicityExplanation,
	}
}

func phrasesInput(phrases []models.FlaggedPhrase) []interface{} {
	out := make([]interface{}, 0, len(phrases))
	for _, p := range phrases {
		out = append(out, map[string]interface{}{
			"quoted_phrase":     p.QuotedPhrase,
			"explanation":       p.Explanation,
			"suggested_rewrite": p.SuggestedRewrite,
		})
	}
	return out
}

func stringSliceToInterface(s []string) []interface{} {
	result := make([]interface{}, len(s))
	for i, v := range s {
		result[i] = v
	}
	return result
}
