package models

// BannedTopicsMode selects how detected banned topics trigger an action
type BannedTopicsMode string

const (
	// BannedTopicsAny acts on any mention of a banned topic.
	BannedTopicsAny BannedTopicsMode = "any"
	// BannedTopicsThreshold acts once the banned share reaches the threshold.
	BannedTopicsThreshold BannedTopicsMode = "threshold"
)

// PolicyConfig is the normalized site moderation policy. Build it with
// policy.Normalize; a zero value is not a valid policy.
type PolicyConfig struct {
	Name               string           `yaml:"name" json:"name"`
	ChecksEnabled      ChecksEnabled    `yaml:"checks_enabled" json:"checks_enabled"`
	SpamHandling       Action           `yaml:"spam_handling" json:"spam_handling"`
	Relevance          RelevancePolicy  `yaml:"relevance" json:"relevance"`
	DogwhistleHandling Action           `yaml:"dogwhistle_handling" json:"dogwhistle_handling"`
	Dogwhistle         DogwhistleInputs `yaml:"dogwhistle" json:"dogwhistle"`
	Health             HealthPolicy     `yaml:"health" json:"health"`
	CustomRules        []CustomRule     `yaml:"custom_rules" json:"custom_rules"`
}

type ChecksEnabled struct {
	Spam       bool `yaml:"spam" json:"spam"`
	Relevance  bool `yaml:"relevance" json:"relevance"`
	Dogwhistle bool `yaml:"dogwhistle" json:"dogwhistle"`
	Health     bool `yaml:"health" json:"health"`
}

type RelevancePolicy struct {
	OffTopicHandling      Action           `yaml:"off_topic_handling" json:"off_topic_handling"`
	BannedTopicsMode      BannedTopicsMode `yaml:"banned_topics_mode" json:"banned_topics_mode"`
	BannedTopicsThreshold float64          `yaml:"banned_topics_threshold" json:"banned_topics_threshold"`
	BannedTopicsHandling  Action           `yaml:"banned_topics_handling" json:"banned_topics_handling"`
	// BannedTopics is forwarded to the assessment provider
	BannedTopics []string `yaml:"banned_topics" json:"banned_topics"`
}

// DogwhistleInputs are forwarded to the assessment provider
type DogwhistleInputs struct {
	SensitiveTopics []string `yaml:"sensitive_topics" json:"sensitive_topics"`
	Examples        []string `yaml:"examples" json:"examples"`
}

type HealthPolicy struct {
	MinScore                     int     `yaml:"min_score" json:"min_score"`
	ReviseOnLowEffort            bool    `yaml:"revise_on_low_effort" json:"revise_on_low_effort"`
	ReviseOnLogicalFallacies     bool    `yaml:"revise_on_logical_fallacies" json:"revise_on_logical_fallacies"`
	ReviseOnObjectionablePhrases bool    `yaml:"revise_on_objectionable_phrases" json:"revise_on_objectionable_phrases"`
	ReviseOnNegativeTone         bool    `yaml:"revise_on_negative_tone" json:"revise_on_negative_tone"`
	ReviseOnToxicity             bool    `yaml:"revise_on_toxicity" json:"revise_on_toxicity"`
	ToxicityThreshold            float64 `yaml:"toxicity_threshold" json:"toxicity_threshold"`
}

// CustomRule is a site-defined CEL rule evaluated after the built-in checks
type CustomRule struct {
	Name    string `yaml:"name" json:"name"`
	Expr    string `yaml:"expr" json:"expr"`
	Action  Action `yaml:"action" json:"action"`
	Message string `yaml:"message" json:"message"`
}
