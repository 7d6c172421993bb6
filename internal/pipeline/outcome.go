// Package pipeline connects the policy engine to a comment submission flow:
// decode the provider assessment, decide, render feedback and map the action
// to what the host does with the comment.
package pipeline

import "github.com/commentguard/commentguard/internal/models"

// Outcome is what the host does with a submitted comment
type Outcome string

const (
	OutcomePublish           Outcome = "publish"
	OutcomeReturnForRevision Outcome = "return_for_revision"
	OutcomeReject            Outcome = "reject"
	// OutcomeHold sends the comment to manual moderation. Used when no
	// assessment could be obtained.
	OutcomeHold Outcome = "hold"
)

// OutcomeFor maps an engine action to a host outcome. Unknown actions hold.
func OutcomeFor(a models.Action) Outcome {
	switch a {
	case models.ActionPublish:
		return OutcomePublish
	case models.ActionRevise:
		return OutcomeReturnForRevision
	case models.ActionDelete:
		return OutcomeReject
	default:
		return OutcomeHold
	}
}
