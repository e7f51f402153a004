package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/time/rate"
)

// ErrNotHTML is returned when an article URL serves something other than an HTML page.
var ErrNotHTML = errors.New("content type is not HTML")

// ErrTooLarge is returned when an article body exceeds the configured limit.
var ErrTooLarge = errors.New("content exceeds size limit")

// Fetcher reads listing feeds and article pages. All requests share one rate limiter.
type Fetcher struct {
	httpClient      *http.Client
	parser          *Parser
	limiter         *rate.Limiter
	baseURL         string
	userAgent       string
	articleMaxBytes int64
}

func NewFetcher(httpClient *http.Client, parser *Parser, baseURL, userAgent string, requestsPerMin int, articleMaxBytes int64) *Fetcher {
	limit := rate.Inf
	if requestsPerMin > 0 {
		limit = rate.Limit(float64(requestsPerMin) / 60.0)
	}

	return &Fetcher{
		httpClient:      httpClient,
		parser:          parser,
		limiter:         rate.NewLimiter(limit, 1),
		baseURL:         strings.TrimRight(baseURL, "/"),
		userAgent:       userAgent,
		articleMaxBytes: articleMaxBytes,
	}
}

func (f *Fetcher) sourceURL(source Source, limit int) string {
	if source.IsComments() {
		return fmt.Sprintf("%s/comments/%s/.rss?limit=%d", f.baseURL, strings.TrimPrefix(source.Submission, "t3_"), limit)
	}
	return fmt.Sprintf("%s/r/%s/%s/.rss?limit=%d", f.baseURL, source.Community, source.Listing, limit)
}

// FetchItems returns up to limit items of the source in feed order. Comment sweeps
// only return comments; the submission entry at the top of the feed is dropped.
func (f *Fetcher) FetchItems(ctx context.Context, source Source, limit int) ([]Item, error) {
	url := f.sourceURL(source, limit)

	data, _, err := f.get(ctx, url, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}

	items, err := f.parser.Run(data)
	if err != nil {
		return nil, err
	}

	if source.IsComments() {
		comments := items[:0]
		for _, item := range items {
			if item.Kind == KindComment {
				comments = append(comments, item)
			}
		}
		items = comments
	}

	if len(items) > limit {
		items = items[:limit]
	}

	slog.Debug("Fetched items", "url", url, "count", len(items))

	return items, nil
}

// CountComments returns the number of comments currently listed for a submission.
func (f *Fetcher) CountComments(ctx context.Context, submissionID string) (int, error) {
	items, err := f.FetchItems(ctx, Source{Submission: submissionID}, 500)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// FetchArticle downloads an HTML page, refusing non-HTML responses and bodies over the size limit.
func (f *Fetcher) FetchArticle(ctx context.Context, url string) ([]byte, error) {
	data, contentType, err := f.get(ctx, url, f.articleMaxBytes)
	if err != nil {
		return nil, err
	}

	if !strings.Contains(strings.ToLower(contentType), "text/html") {
		return nil, fmt.Errorf("%w: %s", ErrNotHTML, contentType)
	}

	return data, nil
}

func (f *Fetcher) get(ctx context.Context, url string, maxBytes int64) ([]byte, string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	var body io.Reader = resp.Body
	if maxBytes > 0 {
		if resp.ContentLength > maxBytes {
			return nil, "", fmt.Errorf("%w: %d bytes", ErrTooLarge, resp.ContentLength)
		}
		body = io.LimitReader(resp.Body, maxBytes+1)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response body: %w", err)
	}

	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, "", fmt.Errorf("%w: more than %d bytes", ErrTooLarge, maxBytes)
	}

	return data, resp.Header.Get("Content-Type"), nil
}
