package scoring

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/topic-agent/app/feed"
	"github.com/lysyi3m/topic-agent/app/keyword"
	"github.com/lysyi3m/topic-agent/app/provider"
	"github.com/lysyi3m/topic-agent/app/topic"
)

// CommentCounter reports how many comments a submission has.
type CommentCounter interface {
	CountComments(ctx context.Context, submissionID string) (int, error)
}

// Scorer runs the analyses a topic enables against single items.
type Scorer struct {
	profile   *topic.Profile
	extractor provider.KeywordExtractor
	relevance provider.RelevanceScorer
	counter   CommentCounter
}

// NewScorer wires the boundaries the topic's analyses need. counter may be nil.
func NewScorer(profile *topic.Profile, extractor provider.KeywordExtractor, relevance provider.RelevanceScorer, counter CommentCounter) *Scorer {
	return &Scorer{
		profile:   profile,
		extractor: extractor,
		relevance: relevance,
		counter:   counter,
	}
}

// Score always returns a record. On a boundary failure the record carries
// OutcomeScoringSkipped and the error wraps ErrScoringSkipped; a canceled
// context is returned as is.
func (s *Scorer) Score(ctx context.Context, item feed.Item) (*AnalysisRecord, error) {
	record := NewAnalysisRecord(item)
	settings := s.profile.Settings()

	if settings.AnalyzeTitles {
		tokens := keyword.Normalize(item.Title)
		intersection := s.profile.Intersect(tokens)
		size := float64(intersection.Len())
		record.TitleKeywords = tokens.Sorted()
		record.TitleIntersection = intersection.Sorted()
		record.TitleIntersectionSize = &size
	}

	if settings.AnalyzeArticles && item.LinkedURL != "" {
		record.ArticleURL = item.LinkedURL
		weights, err := s.extractor.ExtractKeywords(ctx, item.LinkedURL)
		if err != nil {
			return s.skip(ctx, record, "article_keywords", err)
		}

		phrases := make([]string, 0, len(weights))
		for phrase := range weights {
			phrases = append(phrases, phrase)
		}
		tokens := keyword.Normalize(phrases...)
		intersection := s.profile.Intersect(tokens)
		size := float64(intersection.Len())
		record.ArticleKeywords = tokens.Sorted()
		record.ArticleIntersection = intersection.Sorted()
		record.ArticleIntersectionSize = &size
	}

	if settings.AnalyzeRelevance {
		inputs := []string{item.Title}
		if second := cmp.Or(item.LinkedURL, item.Body); second != "" {
			inputs = append(inputs, second)
		}

		scores, err := s.relevance.ScoreRelevance(ctx, inputs, []string{s.profile.Title()})
		if err != nil {
			return s.skip(ctx, record, "relevance", err)
		}
		if len(scores) != len(inputs) || len(scores[0]) == 0 {
			return s.skip(ctx, record, "relevance", fmt.Errorf("unexpected result shape for %d inputs", len(inputs)))
		}

		titleScore := scores[0][0]
		record.TitleRelevanceScore = &titleScore
		if len(inputs) > 1 && len(scores[1]) > 0 {
			articleScore := scores[1][0]
			record.ArticleRelevanceScore = &articleScore
		}
	}

	if settings.CountComments && item.Kind == feed.KindSubmission && s.counter != nil {
		count, err := s.counter.CountComments(ctx, item.ID)
		if err != nil {
			if ctx.Err() != nil {
				return record, ctx.Err()
			}
			slog.Warn("Failed to count comments", "topic", s.profile.ID(), "item_id", item.ID, "error", err)
		} else {
			record.CommentCount = &count
		}
	}

	record.Outcome = OutcomeScored

	slog.Debug("Item scored",
		"topic", s.profile.ID(),
		"item_id", item.ID,
		"title_intersection", record.TitleIntersection,
		"article_intersection", record.ArticleIntersection)

	return record, nil
}

func (s *Scorer) skip(ctx context.Context, record *AnalysisRecord, phase string, err error) (*AnalysisRecord, error) {
	if ctx.Err() != nil {
		return record, ctx.Err()
	}

	record.Outcome = OutcomeScoringSkipped
	record.Error = err.Error()

	if errors.Is(err, provider.ErrInvalidInput) {
		slog.Warn("Scoring skipped, input rejected",
			"topic", s.profile.ID(), "item_id", record.ItemID, "phase", phase, "error", err)
	} else {
		slog.Error("Scoring failed",
			"topic", s.profile.ID(), "item_id", record.ItemID, "phase", phase, "error", err)
	}

	return record, fmt.Errorf("%w: %s: %w", ErrScoringSkipped, phase, err)
}
