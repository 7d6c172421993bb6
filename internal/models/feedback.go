package models

import "strings"

// Feedback is the explanation shown to a comment author. Only one issue is
// explained at a time.
type Feedback struct {
	Kind      IssueKind      `json:"kind,omitempty"`
	Message   string         `json:"message"`
	Reasoning string         `json:"reasoning,omitempty"`
	Terms     []string       `json:"terms,omitempty"`
	Items     []FeedbackItem `json:"items,omitempty"`
}

// FeedbackItem is one quoted excerpt with its explanation
type FeedbackItem struct {
	Label       string `json:"label,omitempty"`
	Quote       string `json:"quote"`
	Explanation string `json:"explanation"`
	Suggestion  string `json:"suggestion,omitempty"`
}

// Text renders the feedback as plain text. User strings are kept verbatim.
func (f Feedback) Text() string {
	var sb strings.Builder
	sb.WriteString(f.Message)
	if f.Reasoning != "" {
		sb.WriteString("\n\n")
		sb.WriteString(f.Reasoning)
	}
	if len(f.Terms) > 0 {
		sb.WriteString("\n\nDetected terms: ")
		sb.WriteString(strings.Join(f.Terms, ", "))
	}
	for _, it := range f.Items {
		sb.WriteString("\n\n- ")
		if it.Label != "" {
			sb.WriteString(it.Label)
			sb.WriteString(": ")
		}
		sb.WriteString("\"")
		sb.WriteString(it.Quote)
		sb.WriteString("\"")
		if it.Explanation != "" {
			sb.WriteString("\n  ")
			sb.WriteString(it.Explanation)
		}
		if it.Suggestion != "" {
			sb.WriteString("\n  try: ")
			sb.WriteString(it.Suggestion)
		}
	}
	return sb.String()
}
