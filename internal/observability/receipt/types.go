// Package receipt writes one audit record per command: what ran, with which
// policy, and what was decided for each comment.
package receipt

// ReceiptSchemaVersion current
const ReceiptSchemaVersion = "1.0"

// Receipt structure
type Receipt struct {
	SchemaVersion string            `json:"schema_version"`
	OpID          string            `json:"op_id"`
	TsStart       string            `json:"ts_start"`
	TsEnd         string            `json:"ts_end"`
	Command       string            `json:"command"`
	Args          []string          `json:"args"`
	ArgsRedacted  bool              `json:"args_redacted,omitempty"`
	Result        Result            `json:"result"`
	Policy        *PolicyRef        `json:"policy,omitempty"`
	Decisions     []DecisionSummary `json:"decisions,omitempty"`
	Totals        *ActionTotals     `json:"totals,omitempty"`
}

// Result status
type Result struct {
	Status string `json:"status"` // "success" or "fail"
	Error  string `json:"error,omitempty"`
}

// PolicyRef identifies the settings a command evaluated with
type PolicyRef struct {
	Source      string `json:"source"` // preset|file
	Preset      string `json:"preset,omitempty"`
	Path        string `json:"path,omitempty"`
	SHA256      string `json:"sha256,omitempty"`
	CustomRules int    `json:"custom_rules"`
}

// DecisionSummary is one evaluated comment. Input is a file name, a line
// number or a request id; the comment body itself is never stored.
type DecisionSummary struct {
	Input       string   `json:"input"`
	InputSHA256 string   `json:"input_sha256,omitempty"`
	Action      string   `json:"action,omitempty"`
	IssueKinds  []string `json:"issue_kinds,omitempty"`
	RuleErrors  int      `json:"rule_errors,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// ActionTotals counts decisions by action. Failed inputs count as held.
type ActionTotals struct {
	Publish int `json:"publish"`
	Revise  int `json:"revise"`
	Delete  int `json:"delete"`
	Held    int `json:"held"`
}
