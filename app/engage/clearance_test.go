package engage

import (
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"

	"github.com/lysyi3m/topic-agent/app/feed"
	"github.com/lysyi3m/topic-agent/app/scoring"
	"github.com/lysyi3m/topic-agent/app/topic"
)

type memLedger map[string]struct{}

func (m memLedger) Contains(id string) bool {
	_, ok := m[id]
	return ok
}

func ptr[T any](v T) *T { return &v }

func recordWith(id string, title, article, titleScore, articleScore *float64) *scoring.AnalysisRecord {
	rec := scoring.NewAnalysisRecord(feed.Item{ID: id})
	rec.TitleIntersectionSize = title
	rec.ArticleIntersectionSize = article
	rec.TitleRelevanceScore = titleScore
	rec.ArticleRelevanceScore = articleScore
	return rec
}

func TestClearance_IntersectionBelowMin(t *testing.T) {
	rec := recordWith("t3_b", ptr(2.0), ptr(1.0), nil, nil)
	policy := Policy{Mode: topic.ClearanceIntersection, IntersectionMin: 3}

	assert.False(t, Clearance(rec, memLedger{}, policy))
}

func TestClearance_IntersectionEitherSide(t *testing.T) {
	policy := Policy{Mode: topic.ClearanceIntersection, IntersectionMin: 3}

	assert.True(t, Clearance(recordWith("a", ptr(3.0), nil, nil, nil), memLedger{}, policy))
	assert.True(t, Clearance(recordWith("b", ptr(0.0), ptr(4.0), nil, nil), memLedger{}, policy))
	assert.True(t, Clearance(recordWith("c", nil, ptr(3.0), nil, nil), memLedger{}, policy))
}

func TestClearance_RelevanceSum(t *testing.T) {
	rec := recordWith("t3_c", nil, nil, ptr(0.4), ptr(0.3))

	assert.True(t, Clearance(rec, memLedger{}, Policy{Mode: topic.ClearanceRelevance, RelevanceThreshold: 0.65}))
	assert.False(t, Clearance(rec, memLedger{}, Policy{Mode: topic.ClearanceRelevance, RelevanceThreshold: 0.7}), "sum must exceed the threshold")

	titleOnly := recordWith("t3_d", nil, nil, ptr(6.0), nil)
	assert.True(t, Clearance(titleOnly, memLedger{}, Policy{Mode: topic.ClearanceRelevance, RelevanceThreshold: 5}))
}

func TestClearance_OnlySelectedModeIsEvaluated(t *testing.T) {
	rec := recordWith("t3_e", ptr(10.0), ptr(10.0), nil, nil)
	assert.False(t, Clearance(rec, memLedger{}, Policy{Mode: topic.ClearanceRelevance, RelevanceThreshold: 0}))

	rec = recordWith("t3_f", nil, nil, ptr(10.0), ptr(10.0))
	assert.False(t, Clearance(rec, memLedger{}, Policy{Mode: topic.ClearanceIntersection, IntersectionMin: 1}))
}

func TestClearance_NoDataIsFalse(t *testing.T) {
	rec := recordWith("t3_g", nil, nil, nil, nil)

	for _, policy := range []Policy{
		{Mode: topic.ClearanceRelevance, RelevanceThreshold: -100},
		{Mode: topic.ClearanceIntersection, IntersectionMin: 0},
		{Mode: "unknown"},
	} {
		assert.False(t, Clearance(rec, memLedger{}, policy), policy.Mode)
	}
}

func TestClearance_LedgerAlwaysWins(t *testing.T) {
	ledger := memLedger{"t3_seen": {}}

	property := func(title, article, titleScore, articleScore float64, threshold float64, minSize uint8) bool {
		rec := recordWith("t3_seen", &title, &article, &titleScore, &articleScore)
		relevance := Policy{Mode: topic.ClearanceRelevance, RelevanceThreshold: threshold}
		intersection := Policy{Mode: topic.ClearanceIntersection, IntersectionMin: int(minSize)}
		return !Clearance(rec, ledger, relevance) && !Clearance(rec, ledger, intersection)
	}

	if err := quick.Check(property, nil); err != nil {
		t.Error(err)
	}
}

func TestPolicy_WithDerivedMin(t *testing.T) {
	base := Policy{Mode: topic.ClearanceIntersection, IntersectionMin: 3}

	assert.Equal(t, 3, base.WithDerivedMin(7, 0).IntersectionMin)
	assert.Equal(t, 3, base.WithDerivedMin(7, 2).IntersectionMin)
	assert.Equal(t, 2, base.WithDerivedMin(10, 4).IntersectionMin)
	assert.Equal(t, 1, base.WithDerivedMin(1, 5).IntersectionMin)

	relevance := Policy{Mode: topic.ClearanceRelevance, RelevanceThreshold: 0.5}
	assert.Equal(t, relevance, relevance.WithDerivedMin(10, 2))
}
