package models

// IssueKind names a triggered policy condition
type IssueKind string

const (
	IssueSpam                 IssueKind = "spam"
	IssueOffTopic             IssueKind = "off_topic"
	IssueBannedTopics         IssueKind = "banned_topics"
	IssueDogwhistle           IssueKind = "dogwhistle"
	IssueLowScore             IssueKind = "low_score"
	IssueLowEffort            IssueKind = "low_effort"
	IssueLogicalFallacies     IssueKind = "logical_fallacies"
	IssueObjectionablePhrases IssueKind = "objectionable_phrases"
	IssueNegativeTone         IssueKind = "negative_tone"
	IssueToxicity             IssueKind = "toxicity"
	IssueCustomRule           IssueKind = "custom_rule"
)

// Decision is the engine output for one comment
type Decision struct {
	Action     Action   `json:"action"`
	Issues     []Issue  `json:"issues"`
	RuleErrors []string `json:"rule_errors,omitempty"`
}

// Issue is one triggered condition with the action it asks for
type Issue struct {
	Kind   IssueKind   `json:"kind"`
	Action Action      `json:"action"`
	Detail IssueDetail `json:"detail,omitempty"`
}

// IssueDetail is the per-kind payload of an Issue
type IssueDetail interface {
	IssueKind() IssueKind
}

type SpamDetail struct {
	Confidence float64 `json:"confidence"`
}

type OffTopicDetail struct {
	Reasoning string `json:"reasoning"`
}

type BannedTopicsDetail struct {
	Topics    []string         `json:"topics"`
	Quantity  float64          `json:"quantity"`
	Mode      BannedTopicsMode `json:"mode"`
	Threshold float64          `json:"threshold"`
}

type DogwhistleDetail struct {
	Terms []string `json:"terms,omitempty"`
}

type LowScoreDetail struct {
	Score    int `json:"score"`
	MinScore int `json:"min_score"`
}

type LowEffortDetail struct{}

// FlaggedCountDetail carries the item count for the list-based health checks
type FlaggedCountDetail struct {
	Kind  IssueKind `json:"-"`
	Count int       `json:"count"`
}

type ToxicityDetail struct {
	Score     float64 `json:"score"`
	Threshold float64 `json:"threshold"`
}

type CustomRuleDetail struct {
	Rule    string `json:"rule"`
	Message string `json:"message,omitempty"`
}

func (SpamDetail) IssueKind() IssueKind           { return IssueSpam }
func (OffTopicDetail) IssueKind() IssueKind       { return IssueOffTopic }
func (BannedTopicsDetail) IssueKind() IssueKind   { return IssueBannedTopics }
func (DogwhistleDetail) IssueKind() IssueKind     { return IssueDogwhistle }
func (LowScoreDetail) IssueKind() IssueKind       { return IssueLowScore }
func (LowEffortDetail) IssueKind() IssueKind      { return IssueLowEffort }
func (d FlaggedCountDetail) IssueKind() IssueKind { return d.Kind }
func (ToxicityDetail) IssueKind() IssueKind       { return IssueToxicity }
func (CustomRuleDetail) IssueKind() IssueKind     { return IssueCustomRule }

// Has reports whether the decision carries an issue of the given kind
func (d Decision) Has(kind IssueKind) bool {
	for _, is := range d.Issues {
		if is.Kind == kind {
			return true
		}
	}
	return false
}

// Kinds lists issue kinds in decision order
func (d Decision) Kinds() []IssueKind {
	kinds := make([]IssueKind, 0, len(d.Issues))
	for _, is := range d.Issues {
		kinds = append(kinds, is.Kind)
	}
	return kinds
}
