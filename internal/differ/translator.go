package differ

import (
	"encoding/json"
	"strings"

	"github.com/wI2L/jsondiff"
)

// Translate patches to corrections, dropping duplicates
func Translate(patches jsondiff.Patch) []Correction {
	if len(patches) == 0 {
		return nil
	}

	var corrections []Correction
	seen := make(map[string]bool)

	for _, op := range patches {
		c, ok := translateOperation(op)
		if !ok {
			continue
		}
		key := string(c.Kind) + " " + c.Path
		if seen[key] {
			continue
		}
		seen[key] = true
		corrections = append(corrections, c)
	}

	return corrections
}

func translateOperation(op jsondiff.Operation) (Correction, bool) {
	path := dottedPath(string(op.Path))

	var c Correction
	switch op.Type {
	case jsondiff.OperationAdd:
		c = Correction{Path: path, Kind: CorrectionAdded, Message: path + ": missing, defaulted to " + formatValue(op.Value)}
	case jsondiff.OperationRemove:
		c = Correction{Path: path, Kind: CorrectionRemoved, Message: path + ": unknown or legacy key removed"}
	case jsondiff.OperationReplace:
		c = Correction{Path: path, Kind: CorrectionReplaced, Message: path + ": value replaced with " + formatValue(op.Value)}
	default:
		return Correction{}, false
	}
	c.Severity = SeverityString(GetSeverity(c.Kind))
	return c, true
}

// dottedPath turns a JSON pointer into a.b.0.c
func dottedPath(pointer string) string {
	if pointer == "" || pointer == "/" {
		return "(root)"
	}
	parts := strings.Split(strings.TrimPrefix(pointer, "/"), "/")
	for i, p := range parts {
		p = strings.ReplaceAll(p, "~1", "/")
		parts[i] = strings.ReplaceAll(p, "~0", "~")
	}
	return strings.Join(parts, ".")
}

func formatValue(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "?"
	}
	return string(b)
}

// SeverityLevel 0=info, 1=moderate, 2=critical
type SeverityLevel int

const (
	SeveritySafe SeverityLevel = iota
	SeverityModerate
	SeverityCritical
)

// GetSeverity ranks a correction. A replaced value means the stored setting
// was not honored; a removed key was ignored entirely.
func GetSeverity(kind CorrectionKind) SeverityLevel {
	switch kind {
	case CorrectionReplaced:
		return SeverityCritical
	case CorrectionRemoved:
		return SeverityModerate
	default:
		return SeveritySafe
	}
}

// SeverityString to lowercase
func SeverityString(s SeverityLevel) string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityModerate:
		return "moderate"
	case SeveritySafe:
		return "info"
	default:
		return "unknown"
	}
}
