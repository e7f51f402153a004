package engage

import (
	"github.com/lysyi3m/topic-agent/app/ledger"
	"github.com/lysyi3m/topic-agent/app/scoring"
	"github.com/lysyi3m/topic-agent/app/topic"
)

// Policy selects exactly one clearance strategy.
type Policy struct {
	Mode               string
	RelevanceThreshold float64
	IntersectionMin    int
}

func PolicyFromSettings(settings topic.Settings) Policy {
	return Policy{
		Mode:               settings.Clearance.Mode,
		RelevanceThreshold: settings.Clearance.RelevanceThreshold,
		IntersectionMin:    settings.Clearance.IntersectionMin,
	}
}

// WithDerivedMin replaces the intersection minimum with max(1, floor(avgTitleWords/divider))
// when divider is positive.
func (p Policy) WithDerivedMin(avgTitleWords float64, divider int) Policy {
	if divider <= 0 || p.Mode != topic.ClearanceIntersection {
		return p
	}
	p.IntersectionMin = max(1, int(avgTitleWords/float64(divider)))
	return p
}

// Clearance decides whether record may be replied to. Items in the ledger are never
// cleared. A record without data for the policy's mode is not cleared.
func Clearance(record *scoring.AnalysisRecord, l ledger.Ledger, policy Policy) bool {
	if l.Contains(record.ItemID) {
		return false
	}

	switch policy.Mode {
	case topic.ClearanceRelevance:
		sum, ok := record.RelevanceSum()
		return ok && sum > policy.RelevanceThreshold
	case topic.ClearanceIntersection:
		threshold := float64(policy.IntersectionMin)
		if record.TitleIntersectionSize != nil && *record.TitleIntersectionSize >= threshold {
			return true
		}
		return record.ArticleIntersectionSize != nil && *record.ArticleIntersectionSize >= threshold
	default:
		return false
	}
}
