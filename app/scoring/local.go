package scoring

import (
	"context"
	"strings"

	"github.com/lysyi3m/topic-agent/app/keyword"
	"github.com/lysyi3m/topic-agent/app/provider"
	"github.com/lysyi3m/topic-agent/app/topic"
)

// LocalRelevance scores inputs against topic titles without a remote model.
// A score is the salience-weighted overlap between the input's keywords and the
// keywords of the topic whose title is the label. Labels that name no known topic
// are normalized and weighted 1 per token. Scores are unbounded.
type LocalRelevance struct {
	extractor provider.KeywordExtractor
	labels    map[string]*topic.Profile
}

func NewLocalRelevance(extractor provider.KeywordExtractor, profiles ...*topic.Profile) *LocalRelevance {
	labels := make(map[string]*topic.Profile, len(profiles))
	for _, p := range profiles {
		labels[p.Title()] = p
	}
	return &LocalRelevance{
		extractor: extractor,
		labels:    labels,
	}
}

var _ provider.RelevanceScorer = (*LocalRelevance)(nil)

func (l *LocalRelevance) ScoreRelevance(ctx context.Context, inputs []string, labels []string) ([][]float64, error) {
	results := make([][]float64, len(inputs))
	for i, input := range inputs {
		weights, err := l.inputWeights(ctx, input)
		if err != nil {
			return nil, err
		}

		results[i] = make([]float64, len(labels))
		for j, label := range labels {
			results[i][j] = l.score(weights, label)
		}
	}
	return results, nil
}

func (l *LocalRelevance) inputWeights(ctx context.Context, input string) (map[string]float64, error) {
	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		raw, err := l.extractor.ExtractKeywords(ctx, input)
		if err != nil {
			return nil, err
		}
		weights := make(map[string]float64, len(raw))
		for phrase, w := range raw {
			for tok := range keyword.Normalize(phrase) {
				weights[tok] = max(weights[tok], w)
			}
		}
		return weights, nil
	}

	weights := make(map[string]float64)
	for tok := range keyword.Normalize(input) {
		weights[tok] = 1
	}
	return weights, nil
}

func (l *LocalRelevance) score(weights map[string]float64, label string) float64 {
	var total float64
	if profile, ok := l.labels[label]; ok {
		for tok, w := range weights {
			if profile.HasKeyword(tok) {
				total += w * profile.Salience(tok)
			}
		}
		return total
	}

	for tok := range keyword.Normalize(label) {
		total += weights[tok]
	}
	return total
}
