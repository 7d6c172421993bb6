package receipt

import (
	"regexp"
	"strings"
)

const redactedValue = "[REDACTED]"

// secretFlags take a value that must never reach a receipt. Provider
// credentials are an account email plus an API key.
var secretFlags = map[string]bool{
	"api-key":       true,
	"apikey":        true,
	"key":           true,
	"token":         true,
	"access-token":  true,
	"bearer":        true,
	"auth":          true,
	"password":      true,
	"secret":        true,
	"email":         true,
	"account-email": true,
	"credentials":   true,
}

var secretPrefixes = []string{
	"sk-",
	"ghp_",
	"github_pat_",
	"xoxb-",
	"xoxp-",
	"AKIA",
	"AIza",
	"ya29.",
}

var (
	jwtPattern    = regexp.MustCompile(`^[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}$`)
	emailPattern  = regexp.MustCompile(`^[^@\s/]+@[^@\s/]+\.[A-Za-z]{2,}$`)
	opaquePattern = regexp.MustCompile(`^[A-Za-z0-9+/=_-]{32,}$`)
	// UUID-shaped API keys
	uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
)

// RedactArgs masks credential values in CLI arguments, both after a known
// flag (--api-key X, --api-key=X) and standalone values that look like
// secrets or email addresses. The second result reports whether anything
// was masked.
func RedactArgs(args []string) ([]string, bool) {
	if len(args) == 0 {
		return args, false
	}

	out := make([]string, len(args))
	masked := false
	maskNext := false

	for i, arg := range args {
		if maskNext {
			out[i] = redactedValue
			masked = true
			maskNext = false
			continue
		}

		if name, value, ok := splitFlag(arg); ok {
			if secretFlags[name] || looksSecret(value) {
				out[i] = arg[:len(arg)-len(value)] + redactedValue
				masked = true
			} else {
				out[i] = arg
			}
			continue
		}

		if strings.HasPrefix(arg, "-") && secretFlags[flagName(arg)] {
			out[i] = arg
			maskNext = i+1 < len(args)
			continue
		}

		if looksSecret(arg) {
			out[i] = redactedValue
			masked = true
			continue
		}
		out[i] = arg
	}

	return out, masked
}

// splitFlag handles the --name=value form
func splitFlag(arg string) (name, value string, ok bool) {
	if !strings.HasPrefix(arg, "-") {
		return "", "", false
	}
	eq := strings.IndexByte(arg, '=')
	if eq <= 0 {
		return "", "", false
	}
	return flagName(arg[:eq]), arg[eq+1:], true
}

func flagName(s string) string {
	return strings.ToLower(strings.TrimLeft(s, "-"))
}

func looksSecret(v string) bool {
	for _, p := range secretPrefixes {
		if strings.HasPrefix(v, p) {
			return true
		}
	}
	if jwtPattern.MatchString(v) || emailPattern.MatchString(v) || uuidPattern.MatchString(v) {
		return true
	}
	// paths and hostnames are long too
	if strings.ContainsAny(v, "/.") {
		return false
	}
	return opaquePattern.MatchString(v)
}
