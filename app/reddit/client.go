package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// tokens are refreshed this long before they expire
const tokenExpiryDelta = time.Minute

type Credentials struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
}

// Client posts comments through the OAuth API using a script-app password grant.
type Client struct {
	config      *oauth2.Config
	credentials Credentials
	baseCtx     context.Context // carries the transport used for token requests
	timeout     time.Duration
	apiURL      string

	mu     sync.Mutex
	client *http.Client
}

func NewClient(httpClient *http.Client, apiURL, authURL, userAgent string, credentials Credentials) *Client {
	base := &http.Client{
		Transport: userAgentTransport{base: httpClient.Transport, userAgent: userAgent},
		Timeout:   httpClient.Timeout,
	}

	return &Client{
		config: &oauth2.Config{
			ClientID:     credentials.ClientID,
			ClientSecret: credentials.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  authURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		credentials: credentials,
		baseCtx:     context.WithValue(context.Background(), oauth2.HTTPClient, base),
		timeout:     httpClient.Timeout,
		apiURL:      strings.TrimRight(apiURL, "/"),
	}
}

type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	return base.RoundTrip(req)
}

type tokenSourceFunc func() (*oauth2.Token, error)

func (f tokenSourceFunc) Token() (*oauth2.Token, error) {
	return f()
}

// password grants carry no refresh token; a new grant is requested once the cached one nears expiry
func (c *Client) passwordToken() (*oauth2.Token, error) {
	token, err := c.config.PasswordCredentialsToken(c.baseCtx, c.credentials.Username, c.credentials.Password)
	if err != nil {
		return nil, err
	}
	slog.Debug("Obtained access token", "expiry", token.Expiry)
	return token, nil
}

func (c *Client) authorizedClient() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		source := oauth2.ReuseTokenSourceWithExpiry(nil, tokenSourceFunc(c.passwordToken), tokenExpiryDelta)
		c.client = oauth2.NewClient(c.baseCtx, source)
		c.client.Timeout = c.timeout
	}
	return c.client
}

// dropToken forgets the cached token so the next request authenticates again.
func (c *Client) dropToken() {
	c.mu.Lock()
	c.client = nil
	c.mu.Unlock()
}

type commentResponse struct {
	JSON struct {
		Errors [][]any `json:"errors"`
	} `json:"json"`
}

// PostReply submits text as a reply to itemID. Rate limiting is reported as
// ErrRateLimited; every other platform failure as ErrReplyFailed.
func (c *Client) PostReply(ctx context.Context, itemID, text string) error {
	form := url.Values{
		"api_type": {"json"},
		"thing_id": {itemID},
		"text":     {text},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/api/comment", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.authorizedClient().Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrReplyFailed, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, resp.Status)
	case http.StatusUnauthorized:
		c.dropToken()
		return fmt.Errorf("%w: %s", ErrReplyFailed, resp.Status)
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s %s", ErrReplyFailed, resp.Status, strings.TrimSpace(string(msg)))
	}

	var result commentResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", ErrReplyFailed, err)
	}

	for _, apiErr := range result.JSON.Errors {
		if len(apiErr) == 0 {
			continue
		}
		code, _ := apiErr[0].(string)
		if code == "RATELIMIT" {
			return fmt.Errorf("%w: %v", ErrRateLimited, apiErr)
		}
		return fmt.Errorf("%w: %v", ErrReplyFailed, apiErr)
	}

	return nil
}
