package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Client posts JSON to a provider endpoint and classifies its failures.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	userAgent  string
}

func NewClient(httpClient *http.Client, endpoint, apiKey, userAgent string) *Client {
	return &Client{
		httpClient: httpClient,
		endpoint:   endpoint,
		apiKey:     apiKey,
		userAgent:  userAgent,
	}
}

func (c *Client) post(ctx context.Context, in any, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call provider: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest,
		resp.StatusCode == http.StatusRequestEntityTooLarge,
		resp.StatusCode == http.StatusUnprocessableEntity:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %d %s", ErrInvalidInput, resp.StatusCode, bytes.TrimSpace(msg))
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, resp.Status)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode provider response: %w", err)
	}
	return nil
}

type relevanceRequest struct {
	Inputs []string `json:"inputs"`
	Labels []string `json:"labels"`
}

type relevanceResponse struct {
	Results [][]float64 `json:"results"`
}

// RelevanceClient scores inputs against labels over HTTP.
type RelevanceClient struct {
	*Client
}

var _ RelevanceScorer = (*RelevanceClient)(nil)

func NewRelevanceClient(c *Client) *RelevanceClient {
	return &RelevanceClient{Client: c}
}

func (c *RelevanceClient) ScoreRelevance(ctx context.Context, inputs []string, labels []string) ([][]float64, error) {
	var resp relevanceResponse
	if err := c.post(ctx, relevanceRequest{Inputs: inputs, Labels: labels}, &resp); err != nil {
		return nil, err
	}

	if len(resp.Results) != len(inputs) {
		return nil, fmt.Errorf("provider returned %d results for %d inputs", len(resp.Results), len(inputs))
	}
	for i, scores := range resp.Results {
		if len(scores) != len(labels) {
			return nil, fmt.Errorf("provider returned %d scores for input %d, expected %d", len(scores), i, len(labels))
		}
	}
	return resp.Results, nil
}

type respondRequest struct {
	Session string `json:"session"`
	Text    string `json:"text"`
}

type respondResponse struct {
	FulfillmentText string `json:"fulfillment_text"`
}

// ResponderClient asks a conversational provider for a reply.
type ResponderClient struct {
	*Client
}

var _ Responder = (*ResponderClient)(nil)

func NewResponderClient(c *Client) *ResponderClient {
	return &ResponderClient{Client: c}
}

func (c *ResponderClient) Respond(ctx context.Context, sessionID, text string) (string, error) {
	var resp respondResponse
	if err := c.post(ctx, respondRequest{Session: sessionID, Text: text}, &resp); err != nil {
		return "", err
	}
	if resp.FulfillmentText == "" {
		return "", fmt.Errorf("%w: empty response", ErrInvalidInput)
	}
	return resp.FulfillmentText, nil
}
