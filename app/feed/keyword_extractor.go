package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/lysyi3m/topic-agent/app/keyword"
	"github.com/lysyi3m/topic-agent/app/provider"
)

const (
	defaultMaxKeywords = 20
	extractorCacheSize = 1024
	extractorCacheTTL  = 6 * time.Hour
)

// KeywordExtractor derives weighted keywords from article pages or raw text.
// Salience is term frequency relative to the most frequent non-stopword token.
type KeywordExtractor struct {
	fetcher     *Fetcher
	extractor   *ContentExtractor
	maxKeywords int
	cache       *expirable.LRU[string, map[string]float64]
}

func NewKeywordExtractor(fetcher *Fetcher, extractor *ContentExtractor, maxKeywords int) *KeywordExtractor {
	if maxKeywords <= 0 {
		maxKeywords = defaultMaxKeywords
	}
	return &KeywordExtractor{
		fetcher:     fetcher,
		extractor:   extractor,
		maxKeywords: maxKeywords,
		cache:       expirable.NewLRU[string, map[string]float64](extractorCacheSize, nil, extractorCacheTTL),
	}
}

var _ provider.KeywordExtractor = (*KeywordExtractor)(nil)

// ExtractKeywords accepts an http(s) URL or plain text. Pages that cannot be used as
// input (non-HTML, oversized, no text) are reported as provider.ErrInvalidInput.
func (e *KeywordExtractor) ExtractKeywords(ctx context.Context, textOrURL string) (map[string]float64, error) {
	if !isURL(textOrURL) {
		return e.rank(textOrURL)
	}

	if cached, ok := e.cache.Get(textOrURL); ok {
		slog.Debug("Keyword cache hit", "url", textOrURL)
		return copyWeights(cached), nil
	}

	data, err := e.fetcher.FetchArticle(ctx, textOrURL)
	if err != nil {
		if errors.Is(err, ErrNotHTML) || errors.Is(err, ErrTooLarge) {
			return nil, fmt.Errorf("%w: %v", provider.ErrInvalidInput, err)
		}
		return nil, err
	}

	title, text, err := e.extractor.Run(data, textOrURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", provider.ErrInvalidInput, err)
	}

	weights, err := e.rank(title + "\n" + text)
	if err != nil {
		return nil, err
	}

	e.cache.Add(textOrURL, weights)

	return copyWeights(weights), nil
}

func (e *KeywordExtractor) rank(text string) (map[string]float64, error) {
	counts := make(map[string]int)
	for _, tok := range keyword.Tokenize(text) {
		if keyword.IsStopword(tok) || len([]rune(tok)) < 2 {
			continue
		}
		counts[tok]++
	}
	if len(counts) == 0 {
		return nil, fmt.Errorf("%w: no keywords in input", provider.ErrInvalidInput)
	}

	tokens := make([]string, 0, len(counts))
	for tok := range counts {
		tokens = append(tokens, tok)
	}
	sort.Slice(tokens, func(i, j int) bool {
		if counts[tokens[i]] != counts[tokens[j]] {
			return counts[tokens[i]] > counts[tokens[j]]
		}
		return tokens[i] < tokens[j]
	})
	if len(tokens) > e.maxKeywords {
		tokens = tokens[:e.maxKeywords]
	}

	top := float64(counts[tokens[0]])
	weights := make(map[string]float64, len(tokens))
	for _, tok := range tokens {
		weights[tok] = float64(counts[tok]) / top
	}
	return weights, nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func copyWeights(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
