// Package utterance produces reply text for cleared items.
package utterance

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/lysyi3m/topic-agent/app/feed"
	"github.com/lysyi3m/topic-agent/app/provider"
)

var ErrCorpusExhausted = errors.New("utterance corpus exhausted")

// Generator returns the reply for an item. input is the text being replied to.
type Generator interface {
	Generate(ctx context.Context, item feed.Item, input string) (string, error)
}

// RandomGenerator picks sentences uniformly from a fixed corpus. With noRepeat set,
// every sentence is issued at most once until Reset.
type RandomGenerator struct {
	corpus   []string
	noRepeat bool
	rng      *rand.Rand
	issued   map[int]struct{}
	mu       sync.Mutex
}

// NewRandomGenerator copies corpus. A nil rng uses a randomly seeded source.
func NewRandomGenerator(corpus []string, noRepeat bool, rng *rand.Rand) *RandomGenerator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	lines := make([]string, len(corpus))
	copy(lines, corpus)

	return &RandomGenerator{
		corpus:   lines,
		noRepeat: noRepeat,
		rng:      rng,
		issued:   make(map[int]struct{}),
	}
}

func (g *RandomGenerator) Generate(ctx context.Context, item feed.Item, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.noRepeat {
		if len(g.corpus) == 0 {
			return "", ErrCorpusExhausted
		}
		return g.corpus[g.rng.IntN(len(g.corpus))], nil
	}

	remaining := make([]int, 0, len(g.corpus)-len(g.issued))
	for i := range g.corpus {
		if _, ok := g.issued[i]; !ok {
			remaining = append(remaining, i)
		}
	}
	if len(remaining) == 0 {
		return "", ErrCorpusExhausted
	}

	pick := remaining[g.rng.IntN(len(remaining))]
	g.issued[pick] = struct{}{}
	return g.corpus[pick], nil
}

// Reset forgets which sentences were issued, starting a new run.
func (g *RandomGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.issued = make(map[int]struct{})
}

// ResponderGenerator asks a conversational provider for the reply.
// All items of one run share a session.
type ResponderGenerator struct {
	responder provider.Responder
	sessionID string
}

func NewResponderGenerator(responder provider.Responder, sessionID string) *ResponderGenerator {
	return &ResponderGenerator{
		responder: responder,
		sessionID: sessionID,
	}
}

func (g *ResponderGenerator) Generate(ctx context.Context, item feed.Item, input string) (string, error) {
	if input == "" {
		input = item.Text()
	}
	reply, err := g.responder.Respond(ctx, g.sessionID, input)
	if err != nil {
		return "", fmt.Errorf("failed to generate reply for %s: %w", item.ID, err)
	}
	return reply, nil
}
