// Package provider defines the external scoring and generation boundaries and their HTTP clients.
package provider

import (
	"context"
	"errors"
)

var (
	// ErrInvalidInput is returned when a provider rejects an input as malformed or too large.
	ErrInvalidInput = errors.New("provider rejected input")
	ErrRateLimited  = errors.New("provider rate limited")
)

// KeywordExtractor maps text or a URL to keywords and their salience.
type KeywordExtractor interface {
	ExtractKeywords(ctx context.Context, textOrURL string) (map[string]float64, error)
}

// RelevanceScorer returns, for every input, one score per label.
type RelevanceScorer interface {
	ScoreRelevance(ctx context.Context, inputs []string, labels []string) ([][]float64, error)
}

// Responder produces a conversational reply to a piece of text.
type Responder interface {
	Respond(ctx context.Context, sessionID, text string) (string, error)
}
