package scoring

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lysyi3m/topic-agent/app/feed"
	"github.com/lysyi3m/topic-agent/app/provider"
	"github.com/lysyi3m/topic-agent/app/topic"
)

type fakeExtractor struct {
	weights map[string]map[string]float64
	err     error
	calls   []string
}

func (f *fakeExtractor) ExtractKeywords(ctx context.Context, textOrURL string) (map[string]float64, error) {
	f.calls = append(f.calls, textOrURL)
	if f.err != nil {
		return nil, f.err
	}
	return f.weights[textOrURL], nil
}

type fakeRelevance struct {
	scores [][]float64
	err    error
	inputs []string
	labels []string
}

func (f *fakeRelevance) ScoreRelevance(ctx context.Context, inputs []string, labels []string) ([][]float64, error) {
	f.inputs, f.labels = inputs, labels
	if f.err != nil {
		return nil, f.err
	}
	return f.scores, nil
}

type fakeCounter struct{ count int }

func (f fakeCounter) CountComments(ctx context.Context, submissionID string) (int, error) {
	return f.count, nil
}

func testProfile(settings topic.Settings) *topic.Profile {
	return topic.NewProfile("aid", "Humanitarian aid", map[string]float64{"crisis": 0.9, "aid": 0.8, "relief effort": 0.5}, settings, nil)
}

var linkItem = feed.Item{
	ID:        "t3_8x2k1q",
	Kind:      feed.KindSubmission,
	Title:     "Crisis Aid Sent",
	LinkedURL: "https://example.com/aid",
	Permalink: "https://www.reddit.com/r/news/comments/8x2k1q/",
}

func TestScore_TitleIntersection(t *testing.T) {
	scorer := NewScorer(testProfile(topic.Settings{AnalyzeTitles: true}), nil, nil, nil)

	record, err := scorer.Score(context.Background(), linkItem)
	require.NoError(t, err)

	assert.Equal(t, []string{"aid", "crisis", "sent"}, record.TitleKeywords)
	assert.Equal(t, []string{"aid", "crisis"}, record.TitleIntersection)
	require.NotNil(t, record.TitleIntersectionSize)
	assert.Equal(t, 2.0, *record.TitleIntersectionSize)
	assert.Nil(t, record.ArticleIntersectionSize)
	assert.Nil(t, record.TitleRelevanceScore)
	assert.Equal(t, UndefinedUtterance, record.UtteranceContent)
	assert.Equal(t, OutcomeScored, record.Outcome)
	require.NotNil(t, record.Item)
	assert.Equal(t, linkItem.ID, record.Item.ID)
}

func TestScore_ArticleIntersection(t *testing.T) {
	extractor := &fakeExtractor{weights: map[string]map[string]float64{
		"https://example.com/aid": {"Relief": 1, "convoys": 0.5, "the": 0.2},
	}}
	scorer := NewScorer(testProfile(topic.Settings{AnalyzeArticles: true}), extractor, nil, nil)

	record, err := scorer.Score(context.Background(), linkItem)
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/aid", record.ArticleURL)
	assert.Equal(t, []string{"convoys", "relief"}, record.ArticleKeywords)
	assert.Equal(t, []string{"relief"}, record.ArticleIntersection)
	require.NotNil(t, record.ArticleIntersectionSize)
	assert.Equal(t, 1.0, *record.ArticleIntersectionSize)
	assert.Nil(t, record.TitleIntersectionSize)
}

func TestScore_ArticleAnalysisNeedsLink(t *testing.T) {
	extractor := &fakeExtractor{}
	scorer := NewScorer(testProfile(topic.Settings{AnalyzeArticles: true}), extractor, nil, nil)

	item := linkItem
	item.LinkedURL = ""
	record, err := scorer.Score(context.Background(), item)
	require.NoError(t, err)

	assert.Nil(t, record.ArticleIntersectionSize)
	assert.Empty(t, extractor.calls)
}

func TestScore_Relevance(t *testing.T) {
	relevance := &fakeRelevance{scores: [][]float64{{0.4}, {0.3}}}
	scorer := NewScorer(testProfile(topic.Settings{AnalyzeRelevance: true}), nil, relevance, nil)

	record, err := scorer.Score(context.Background(), linkItem)
	require.NoError(t, err)

	assert.Equal(t, []string{"Crisis Aid Sent", "https://example.com/aid"}, relevance.inputs)
	assert.Equal(t, []string{"Humanitarian aid"}, relevance.labels)
	require.NotNil(t, record.TitleRelevanceScore)
	require.NotNil(t, record.ArticleRelevanceScore)

	sum, ok := record.RelevanceSum()
	assert.True(t, ok)
	assert.InDelta(t, 0.7, sum, 1e-9)
}

func TestScore_RelevanceFallsBackToBody(t *testing.T) {
	relevance := &fakeRelevance{scores: [][]float64{{5}}}
	scorer := NewScorer(testProfile(topic.Settings{AnalyzeRelevance: true}), nil, relevance, nil)

	item := feed.Item{ID: "t1_c1", Kind: feed.KindComment, Title: "/u/x on thread"}
	_, err := scorer.Score(context.Background(), item)
	require.NoError(t, err)
	assert.Len(t, relevance.inputs, 1)

	item.Body = "aid is on the way"
	relevance.scores = [][]float64{{5}, {6}}
	record, err := scorer.Score(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, "aid is on the way", relevance.inputs[1])
	assert.Equal(t, 6.0, *record.ArticleRelevanceScore)
}

func TestScore_SkippedOnInvalidInput(t *testing.T) {
	extractor := &fakeExtractor{err: provider.ErrInvalidInput}
	scorer := NewScorer(testProfile(topic.Settings{AnalyzeTitles: true, AnalyzeArticles: true}), extractor, nil, nil)

	record, err := scorer.Score(context.Background(), linkItem)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrScoringSkipped))
	assert.True(t, errors.Is(err, provider.ErrInvalidInput))
	assert.Equal(t, OutcomeScoringSkipped, record.Outcome)
	assert.Equal(t, linkItem.ID, record.ItemID)
}

func TestScore_SkippedOnOtherError(t *testing.T) {
	relevance := &fakeRelevance{err: errors.New("HTTP error: 502 Bad Gateway")}
	scorer := NewScorer(testProfile(topic.Settings{AnalyzeRelevance: true}), nil, relevance, nil)

	record, err := scorer.Score(context.Background(), linkItem)
	assert.True(t, errors.Is(err, ErrScoringSkipped))
	assert.False(t, errors.Is(err, provider.ErrInvalidInput))
	assert.Equal(t, OutcomeScoringSkipped, record.Outcome)
	assert.Contains(t, record.Error, "502")
}

func TestScore_BadResultShape(t *testing.T) {
	relevance := &fakeRelevance{scores: [][]float64{{0.1}}}
	scorer := NewScorer(testProfile(topic.Settings{AnalyzeRelevance: true}), nil, relevance, nil)

	_, err := scorer.Score(context.Background(), linkItem)
	assert.True(t, errors.Is(err, ErrScoringSkipped))
}

func TestScore_CanceledIsNotSkip(t *testing.T) {
	extractor := &fakeExtractor{err: context.Canceled}
	scorer := NewScorer(testProfile(topic.Settings{AnalyzeArticles: true}), extractor, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := scorer.Score(ctx, linkItem)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, errors.Is(err, ErrScoringSkipped))
}

func TestScore_CountComments(t *testing.T) {
	scorer := NewScorer(testProfile(topic.Settings{AnalyzeTitles: true, CountComments: true}), nil, nil, fakeCounter{count: 42})

	record, err := scorer.Score(context.Background(), linkItem)
	require.NoError(t, err)
	require.NotNil(t, record.CommentCount)
	assert.Equal(t, 42, *record.CommentCount)
}

func TestLocalRelevance(t *testing.T) {
	profile := testProfile(topic.Settings{AnalyzeRelevance: true})
	extractor := &fakeExtractor{weights: map[string]map[string]float64{
		"https://example.com/aid": {"crisis": 1, "relief": 0.5, "weather": 1},
	}}
	local := NewLocalRelevance(extractor, profile)

	scores, err := local.ScoreRelevance(context.Background(),
		[]string{"Crisis Aid Sent", "https://example.com/aid"},
		[]string{"Humanitarian aid", "weather report"})
	require.NoError(t, err)
	require.Len(t, scores, 2)

	assert.InDelta(t, 0.9+0.8, scores[0][0], 1e-9)
	assert.InDelta(t, 0.0, scores[0][1], 1e-9)
	assert.InDelta(t, 0.9+0.5*0.5, scores[1][0], 1e-9)
	assert.InDelta(t, 1.0, scores[1][1], 1e-9)
}
