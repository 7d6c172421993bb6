package models

import "strings"

// Action is the disposition of a comment
type Action string

const (
	ActionPublish Action = "publish"
	ActionRevise  Action = "revise"
	ActionDelete  Action = "delete"
)

// legacy option values stored by the WordPress plugin
var actionAliases = map[string]Action{
	"publish":              ActionPublish,
	"post":                 ActionPublish,
	"approve":              ActionPublish,
	"revise":               ActionRevise,
	"reject_with_feedback": ActionRevise,
	"delete":               ActionDelete,
	"trash":                ActionDelete,
	"reject":               ActionDelete,
}

// ParseAction accepts canonical names and legacy aliases, case-insensitive.
func ParseAction(s string) (Action, bool) {
	a, ok := actionAliases[strings.ToLower(strings.TrimSpace(s))]
	return a, ok
}

// Valid reports whether a is one of the three canonical actions
func (a Action) Valid() bool {
	switch a {
	case ActionPublish, ActionRevise, ActionDelete:
		return true
	default:
		return false
	}
}

// Severity ranks actions: publish < revise < delete. Unknown actions rank as publish.
func (a Action) Severity() int {
	switch a {
	case ActionRevise:
		return 1
	case ActionDelete:
		return 2
	default:
		return 0
	}
}

// MostSevere returns the harsher of two actions
func MostSevere(a, b Action) Action {
	if b.Severity() > a.Severity() {
		return b
	}
	if !a.Valid() {
		return ActionPublish
	}
	return a
}
