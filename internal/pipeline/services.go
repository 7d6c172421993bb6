package pipeline

import "github.com/commentguard/commentguard/internal/models"

// Provider endpoint names, one per check
const (
	ServiceAntispam         = "antispam"
	ServiceCommentRelevance = "commentrelevance"
	ServiceDogwhistle       = "dogwhistle"
	ServiceCommentScore     = "commentscore"
)

// ProviderServices lists the provider endpoints to request for the enabled
// checks, in a fixed order. A non-empty allowed list (the plan's allowed
// endpoints) filters the result.
func ProviderServices(cfg *models.PolicyConfig, allowed []string) []string {
	if cfg == nil {
		return []string{}
	}

	wanted := make([]string, 0, 4)
	if cfg.ChecksEnabled.Spam {
		wanted = append(wanted, ServiceAntispam)
	}
	if cfg.ChecksEnabled.Relevance {
		wanted = append(wanted, ServiceCommentRelevance)
	}
	if cfg.ChecksEnabled.Dogwhistle {
		wanted = append(wanted, ServiceDogwhistle)
	}
	if cfg.ChecksEnabled.Health {
		wanted = append(wanted, ServiceCommentScore)
	}

	if len(allowed) == 0 {
		return wanted
	}
	ok := make(map[string]bool, len(allowed))
	for _, s := range allowed {
		ok[s] = true
	}
	out := wanted[:0]
	for _, s := range wanted {
		if ok[s] {
			out = append(out, s)
		}
	}
	return out
}
