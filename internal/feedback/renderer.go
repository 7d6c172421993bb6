// Package feedback turns a moderation decision into the explanation shown to
// the comment author.
package feedback

import (
	"github.com/commentguard/commentguard/internal/models"
	"github.com/commentguard/commentguard/internal/policy"
)

// Author-facing messages
const (
	MsgSpam                 = "Your comment was identified as spam and cannot be posted."
	MsgOffTopic             = "Your comment doesn't seem to relate to the topic of this discussion."
	MsgBannedTopics         = "Your comment touches on topics that aren't discussed on this site."
	MsgDogwhistle           = "Your comment may contain coded language that can be read as harmful."
	MsgLowScore             = "Your comment could add more to the conversation. Consider expanding on your point with some detail or a fresh perspective."
	MsgLowEffort            = "Your comment seems low effort. Could you share a bit more of your thinking?"
	MsgLogicalFallacies     = "Your comment contains reasoning that may not hold up:"
	MsgObjectionablePhrases = "Some phrases in your comment may come across as objectionable:"
	MsgNegativeTone         = "Some phrases in your comment may come across as negative:"
	MsgToxicity             = "Your comment may come across as hostile to other readers."
	MsgCustomRule           = "Your comment doesn't meet this site's discussion guidelines."
	MsgFallback             = "Please revise your comment before posting."
)

// priority is the order in which issue kinds are explained. Only the first
// match is rendered.
var priority = []models.IssueKind{
	models.IssueSpam,
	models.IssueOffTopic,
	models.IssueBannedTopics,
	models.IssueDogwhistle,
	models.IssueLowScore,
	models.IssueLowEffort,
	models.IssueLogicalFallacies,
	models.IssueObjectionablePhrases,
	models.IssueNegativeTone,
	models.IssueToxicity,
	models.IssueCustomRule,
}

// Render explains the highest priority issue of d. It never returns an empty
// message; when nothing qualifies the generic fallback is used.
func Render(d models.Decision, a *models.Assessment, cfg *models.PolicyConfig) models.Feedback {
	if a == nil {
		a = &models.Assessment{}
	}
	for _, kind := range priority {
		for _, is := range d.Issues {
			if is.Kind != kind {
				continue
			}
			if fb, ok := renderIssue(is, a, cfg); ok {
				return fb
			}
		}
	}
	return models.Feedback{Message: MsgFallback}
}

func renderIssue(is models.Issue, a *models.Assessment, cfg *models.PolicyConfig) (models.Feedback, bool) {
	switch is.Kind {
	case models.IssueSpam:
		return models.Feedback{Kind: is.Kind, Message: MsgSpam}, true

	case models.IssueOffTopic:
		fb := models.Feedback{Kind: is.Kind, Message: MsgOffTopic}
		if a.Relevance != nil {
			fb.Reasoning = a.Relevance.OnTopic.Reasoning
		} else if d, ok := is.Detail.(models.OffTopicDetail); ok {
			fb.Reasoning = d.Reasoning
		}
		return fb, true

	case models.IssueBannedTopics:
		// explained only while the trigger still holds for this config
		if a.Relevance == nil {
			return models.Feedback{}, false
		}
		rel := policy.DefaultConfig().Relevance
		if cfg != nil {
			rel = cfg.Relevance
		}
		if !policy.BannedTopicsTriggered(a.Relevance.BannedTopics, rel) {
			return models.Feedback{}, false
		}
		return models.Feedback{
			Kind:      is.Kind,
			Message:   MsgBannedTopics,
			Reasoning: a.Relevance.BannedTopics.Reasoning,
		}, true

	case models.IssueDogwhistle:
		fb := models.Feedback{Kind: is.Kind, Message: MsgDogwhistle}
		if a.Dogwhistle != nil {
			fb.Reasoning = a.Dogwhistle.Reasoning
			fb.Terms = a.Dogwhistle.Terms
		} else if d, ok := is.Detail.(models.DogwhistleDetail); ok {
			fb.Terms = d.Terms
		}
		return fb, true

	case models.IssueLowScore:
		return models.Feedback{Kind: is.Kind, Message: MsgLowScore}, true

	case models.IssueLowEffort:
		return models.Feedback{Kind: is.Kind, Message: MsgLowEffort}, true

	case models.IssueLogicalFallacies:
		if a.Health == nil || len(a.Health.LogicalFallacies) == 0 {
			return models.Feedback{}, false
		}
		items := make([]models.FeedbackItem, 0, len(a.Health.LogicalFallacies))
		for _, f := range a.Health.LogicalFallacies {
			items = append(items, models.FeedbackItem{
				Label:       f.FallacyName,
				Quote:       f.QuotedExample,
				Explanation: f.Explanation,
				Suggestion:  f.SuggestedRewrite,
			})
		}
		return models.Feedback{Kind: is.Kind, Message: MsgLogicalFallacies, Items: items}, true

	case models.IssueObjectionablePhrases:
		if a.Health == nil || len(a.Health.ObjectionablePhrases) == 0 {
			return models.Feedback{}, false
		}
		return models.Feedback{Kind: is.Kind, Message: MsgObjectionablePhrases, Items: phraseItems(a.Health.ObjectionablePhrases)}, true

	case models.IssueNegativeTone:
		if a.Health == nil || len(a.Health.NegativeTonePhrases) == 0 {
			return models.Feedback{}, false
		}
		return models.Feedback{Kind: is.Kind, Message: MsgNegativeTone, Items: phraseItems(a.Health.NegativeTonePhrases)}, true

	case models.IssueToxicity:
		fb := models.Feedback{Kind: is.Kind, Message: MsgToxicity}
		if a.Health != nil {
			fb.Reasoning = a.Health.ToxicityExplanation
		}
		return fb, true

	case models.IssueCustomRule:
		fb := models.Feedback{Kind: is.Kind, Message: MsgCustomRule}
		if d, ok := is.Detail.(models.CustomRuleDetail); ok && d.Message != "" {
			fb.Message = d.Message
		}
		return fb, true
	}

	return models.Feedback{}, false
}

func phraseItems(phrases []models.FlaggedPhrase) []models.FeedbackItem {
	items := make([]models.FeedbackItem, 0, len(phrases))
	for _, p := range phrases {
		items = append(items, models.FeedbackItem{
			Quote:       p.QuotedPhrase,
			Explanation: p.Explanation,
			Suggestion:  p.SuggestedRewrite,
		})
	}
	return items
}
