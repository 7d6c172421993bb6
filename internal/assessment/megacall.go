package assessment

import (
	"encoding/json"
	"fmt"

	"github.com/commentguard/commentguard/internal/models"
)

// wire types for the provider's combined endpoint

type megacallResult struct {
	CommentScore    *commentScore    `json:"commentScore"`
	SpamCheck       *spamCheck       `json:"spamCheck"`
	RelevanceCheck  *relevanceCheck  `json:"relevanceCheck"`
	DogwhistleCheck *dogwhistleCheck `json:"dogwhistleCheck"`
}

type commentScore struct {
	LogicalFallacies []struct {
		FallacyName                 string `json:"fallacyName"`
		QuotedLogicalFallacyExample string `json:"quotedLogicalFallacyExample"`
		Explanation                 string `json:"explanation"`
		SuggestedRewrite            string `json:"suggestedRewrite"`
	} `json:"logicalFallacies"`
	ObjectionablePhrases []struct {
		QuotedObjectionablePhrase string `json:"quotedObjectionablePhrase"`
		Explanation               string `json:"explanation"`
		SuggestedRewrite          string `json:"suggestedRewrite"`
	} `json:"objectionablePhrases"`
	NegativeTonePhrases []struct {
		QuotedNegativeTonePhrase string `json:"quotedNegativeTonePhrase"`
		Explanation              string `json:"explanation"`
		SuggestedRewrite         string `json:"suggestedRewrite"`
	} `json:"negativeTonePhrases"`
	AppearsLowEffort    bool     `json:"appearsLowEffort"`
	OverallScore        float64  `json:"overallScore"`
	ToxicityScore       *float64 `json:"toxicityScore"`
	ToxicityExplanation string   `json:"toxicityExplanation"`
}

type spamCheck struct {
	Reasoning  string  `json:"reasoning"`
	IsSpam     bool    `json:"isSpam"`
	Confidence float64 `json:"confidence"`
}

type relevanceCheck struct {
	OnTopic struct {
		Reasoning  string  `json:"reasoning"`
		OnTopic    bool    `json:"onTopic"`
		Confidence float64 `json:"confidence"`
	} `json:"onTopic"`
	BannedTopics struct {
		Reasoning              string   `json:"reasoning"`
		BannedTopics           []string `json:"bannedTopics"`
		QuantityOnBannedTopics float64  `json:"quantityOnBannedTopics"`
		Confidence             float64  `json:"confidence"`
	} `json:"bannedTopics"`
}

type dogwhistleCheck struct {
	Detection struct {
		Reasoning           string  `json:"reasoning"`
		DogwhistlesDetected bool    `json:"dogwhistlesDetected"`
		Confidence          float64 `json:"confidence"`
	} `json:"detection"`
	Details *struct {
		DogwhistleTerms []string `json:"dogwhistleTerms"`
		Categories      []string `json:"categories"`
		SubtletyLevel   float64  `json:"subtletyLevel"`
		HarmPotential   float64  `json:"harmPotential"`
	} `json:"details"`
}

func decodeMegacall(data []byte) (*models.Assessment, error) {
	var m megacallResult
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode megacall assessment: %w", err)
	}

	a := &models.Assessment{}

	if s := m.SpamCheck; s != nil {
		a.Spam = &models.SpamResult{IsSpam: s.IsSpam, Confidence: s.Confidence, Reasoning: s.Reasoning}
	}

	if r := m.RelevanceCheck; r != nil {
		a.Relevance = &models.RelevanceResult{
			OnTopic: models.OnTopicResult{
				IsOnTopic:  r.OnTopic.OnTopic,
				Reasoning:  r.OnTopic.Reasoning,
				Confidence: r.OnTopic.Confidence,
			},
			BannedTopics: models.BannedTopicsResult{
				DetectedTopics:         r.BannedTopics.BannedTopics,
				QuantityOnBannedTopics: r.BannedTopics.QuantityOnBannedTopics,
				Reasoning:              r.BannedTopics.Reasoning,
				Confidence:             r.BannedTopics.Confidence,
			},
		}
	}

	if d := m.DogwhistleCheck; d != nil {
		a.Dogwhistle = &models.DogwhistleResult{
			Detected:   d.Detection.DogwhistlesDetected,
			Reasoning:  d.Detection.Reasoning,
			Confidence: d.Detection.Confidence,
		}
		if d.Details != nil {
			a.Dogwhistle.Terms = d.Details.DogwhistleTerms
			a.Dogwhistle.Categories = d.Details.Categories
			a.Dogwhistle.SubtletyLevel = d.Details.SubtletyLevel
			a.Dogwhistle.HarmPotential = d.Details.HarmPotential
		}
	}

	if c := m.CommentScore; c != nil {
		h := &models.HealthResult{
			OverallScore:        roundScore(c.OverallScore),
			AppearsLowEffort:    c.AppearsLowEffort,
			ToxicityScore:       c.ToxicityScore,
			ToxicityExplanation: c.ToxicityExplanation,
		}
		for _, f := range c.LogicalFallacies {
			h.LogicalFallacies = append(h.LogicalFallacies, models.LogicalFallacy{
				FallacyName:      f.FallacyName,
				QuotedExample:    f.QuotedLogicalFallacyExample,
				Explanation:      f.Explanation,
				SuggestedRewrite: f.SuggestedRewrite,
			})
		}
		for _, p := range c.ObjectionablePhrases {
			h.ObjectionablePhrases = append(h.ObjectionablePhrases, models.FlaggedPhrase{
				QuotedPhrase:     p.QuotedObjectionablePhrase,
				Explanation:      p.Explanation,
				SuggestedRewrite: p.SuggestedRewrite,
			})
		}
		for _, p := range c.NegativeTonePhrases {
			h.NegativeTonePhrases = append(h.NegativeTonePhrases, models.FlaggedPhrase{
				QuotedPhrase:     p.QuotedNegativeTonePhrase,
				Explanation:      p.Explanation,
				SuggestedRewrite: p.SuggestedRewrite,
			})
		}
		a.Health = h
	}

	return a, nil
}
