package scoring

import (
	"errors"
	"time"

	"github.com/lysyi3m/topic-agent/app/feed"
)

// ErrScoringSkipped marks an item that could not be scored this pass. Such items are
// never gated and never recorded as engaged, so a later run may retry them.
var ErrScoringSkipped = errors.New("scoring skipped")

const UndefinedUtterance = "UNDEFINED"

const (
	OutcomeScored         = "scored"
	OutcomeScoringSkipped = "scoring_skipped"
	OutcomeAlreadyEngaged = "already_engaged"
	OutcomeNotCleared     = "not_cleared"
	OutcomeCleared        = "cleared" // cleared but left for a later pass
	OutcomeTooShort       = "too_short"
	OutcomeReplied        = "replied"
	OutcomeDryRun         = "dry_run"
	OutcomeRateLimited    = "reply_rate_limited"
	OutcomeReplyFailed    = "reply_failed"
	OutcomeDuplicateReply = "duplicate_reply"
	OutcomeNoUtterance    = "no_utterance"
)

// AnalysisRecord is the per-item result of one pipeline pass. Keyword sets are stored sorted.
// Optional analyses are nil when they were disabled or produced no data.
type AnalysisRecord struct {
	ItemID       string `json:"item_id"`
	Kind         string `json:"kind"`
	Title        string `json:"title"`
	Permalink    string `json:"permalink"`
	CommentCount *int   `json:"comment_count,omitempty"`

	TitleKeywords         []string `json:"title_keywords"`
	TitleIntersection     []string `json:"title_intersection"`
	TitleIntersectionSize *float64 `json:"title_intersection_size"`

	ArticleURL              string   `json:"article_url,omitempty"`
	ArticleKeywords         []string `json:"article_keywords"`
	ArticleIntersection     []string `json:"article_intersection"`
	ArticleIntersectionSize *float64 `json:"article_intersection_size"`

	TitleRelevanceScore   *float64 `json:"title_relevance_score"`
	ArticleRelevanceScore *float64 `json:"article_relevance_score"`

	UtteranceContent string     `json:"utterance_content"`
	EngagementTime   *time.Time `json:"engagement_time"`
	Outcome          string     `json:"outcome"`
	Error            string     `json:"error,omitempty"`

	// Item is the live content handle, needed only for replying. Never archived.
	Item *feed.Item `json:"-"`
}

func NewAnalysisRecord(item feed.Item) *AnalysisRecord {
	return &AnalysisRecord{
		ItemID:           item.ID,
		Kind:             item.Kind,
		Title:            item.Title,
		Permalink:        item.Permalink,
		UtteranceContent: UndefinedUtterance,
		Item:             &item,
	}
}

// RelevanceSum returns the sum of the present relevance scores and whether any was present.
func (r *AnalysisRecord) RelevanceSum() (float64, bool) {
	var sum float64
	present := false
	for _, score := range []*float64{r.TitleRelevanceScore, r.ArticleRelevanceScore} {
		if score != nil {
			sum += *score
			present = true
		}
	}
	return sum, present
}

// MarkEngaged records the reply text and when it was submitted.
func (r *AnalysisRecord) MarkEngaged(text string, at time.Time, outcome string) {
	r.UtteranceContent = text
	r.EngagementTime = &at
	r.Outcome = outcome
}
