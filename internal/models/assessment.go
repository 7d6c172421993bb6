package models

// Assessment is the provider's analysis of one comment. A nil section means
// the check was not requested, which is never a failing condition.
type Assessment struct {
	Spam       *SpamResult       `json:"spam,omitempty"`
	Relevance  *RelevanceResult  `json:"relevance,omitempty"`
	Dogwhistle *DogwhistleResult `json:"dogwhistle,omitempty"`
	Health     *HealthResult     `json:"health,omitempty"`
}

type SpamResult struct {
	IsSpam     bool    `json:"isSpam"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning,omitempty"`
}

type RelevanceResult struct {
	OnTopic      OnTopicResult      `json:"onTopic"`
	BannedTopics BannedTopicsResult `json:"bannedTopics"`
}

type OnTopicResult struct {
	IsOnTopic  bool    `json:"isOnTopic"`
	Reasoning  string  `json:"reasoning"`
	Confidence float64 `json:"confidence,omitempty"`
}

type BannedTopicsResult struct {
	DetectedTopics         []string `json:"detectedTopics"`
	QuantityOnBannedTopics float64  `json:"quantityOnBannedTopics"` // 0..1
	Reasoning              string   `json:"reasoning"`
	Confidence             float64  `json:"confidence,omitempty"`
}

type DogwhistleResult struct {
	Detected      bool     `json:"detected"`
	Reasoning     string   `json:"reasoning"`
	Terms         []string `json:"terms,omitempty"`
	Categories    []string `json:"categories,omitempty"`
	Confidence    float64  `json:"confidence,omitempty"`
	SubtletyLevel float64  `json:"subtletyLevel,omitempty"`
	HarmPotential float64  `json:"harmPotential,omitempty"`
}

// HealthResult is the multi-dimensional quality score
type HealthResult struct {
	OverallScore         int              `json:"overallScore"` // 1..5
	AppearsLowEffort     bool             `json:"appearsLowEffort"`
	LogicalFallacies     []LogicalFallacy `json:"logicalFallacies,omitempty"`
	ObjectionablePhrases []FlaggedPhrase  `json:"objectionablePhrases,omitempty"`
	NegativeTonePhrases  []FlaggedPhrase  `json:"negativeTonePhrases,omitempty"`
	ToxicityScore        *float64         `json:"toxicityScore,omitempty"` // 0..1, nil when not scored
	ToxicityExplanation  string           `json:"toxicityExplanation,omitempty"`
}

type LogicalFallacy struct {
	FallacyName      string `json:"fallacyName,omitempty"`
	QuotedExample    string `json:"quotedExample"`
	Explanation      string `json:"explanation"`
	SuggestedRewrite string `json:"suggestedRewrite,omitempty"`
}

// FlaggedPhrase is an objectionable or negative-tone excerpt
type FlaggedPhrase struct {
	QuotedPhrase     string `json:"quotedPhrase"`
	Explanation      string `json:"explanation"`
	SuggestedRewrite string `json:"suggestedRewrite,omitempty"`
}
