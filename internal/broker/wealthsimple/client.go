package wealthsimple

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"wealthlink/internal/broker"
	apperrors "wealthlink/internal/errors"
)

const (
	defaultTimeout           = 30 * time.Second
	defaultRequestsPerSecond = 4
	graphqlPath              = "/graphql"
)

// Config holds client construction parameters. The base URL is injected
// explicitly so tests run against local mock servers without any process
// state.
type Config struct {
	// BaseURL is the API origin, e.g. https://trade-service.example.com.
	BaseURL string
	// ClientID is the fixed OAuth client identifier sent on token requests.
	ClientID string
	// HTTPClient is the underlying transport. Optional.
	HTTPClient *http.Client
	// RequestsPerSecond throttles outgoing calls. Optional.
	RequestsPerSecond float64
	// Logger is the component logger. Optional.
	Logger zerolog.Logger
	// Now overrides the clock, used in tests. Optional.
	Now func() time.Time
}

// Client is an authenticated HTTP client for the brokerage web API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	log        zerolog.Logger
	now        func() time.Time
	tokens     *TokenManager
}

// NewClient creates a client wired to the given credential storage and
// interactive authentication prompt.
func NewClient(cfg Config, storage broker.TokenStorage, prompt broker.AuthPrompt) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("wealthsimple: base URL is required")
	}
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("wealthsimple: client ID is required")
	}
	if storage == nil {
		return nil, fmt.Errorf("wealthsimple: token storage is required")
	}
	if prompt == nil {
		return nil, fmt.Errorf("wealthsimple: auth prompt is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRequestsPerSecond
	}
	limiter := rate.NewLimiter(rate.Limit(rps), 1)
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	c := &Client{
		httpClient: httpClient,
		baseURL:    cfg.BaseURL,
		limiter:    limiter,
		log:        cfg.Logger.With().Str("component", "wealthsimple").Logger(),
		now:        now,
	}
	c.tokens = NewTokenManager(TokenManagerConfig{
		BaseURL:    cfg.BaseURL,
		ClientID:   cfg.ClientID,
		HTTPClient: httpClient,
		Limiter:    limiter,
		Storage:    storage,
		Prompt:     prompt,
		Logger:     c.log,
		Now:        cfg.Now,
	})
	return c, nil
}

// TokenManager exposes the client's credential lifecycle manager.
func (c *Client) TokenManager() *TokenManager {
	return c.tokens
}

// InvalidateCredential drops the in-memory credential so the next call
// re-authenticates. Used by callers after a credential-kind failure.
func (c *Client) InvalidateCredential() {
	c.tokens.Invalidate()
}

// doGet performs an authenticated GET against an API path and returns the
// response body.
func (c *Client) doGet(ctx context.Context, path string, query url.Values) ([]byte, error) {
	cred, err := c.tokens.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, apperrors.Transport(0, "building request", err)
	}
	req.Header.Set("Accept", "application/json")
	if err := cred.AuthorizeRequest(req); err != nil {
		return nil, apperrors.Credential("attaching credential", err)
	}

	return c.do(req)
}

// doGraphQL posts a typed GraphQL request and returns the response's data
// payload. GraphQL-level errors abort the call.
func (c *Client) doGraphQL(ctx context.Context, gql *graphqlRequest) (json.RawMessage, error) {
	cred, err := c.tokens.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(gql)
	if err != nil {
		return nil, apperrors.Internal("encoding graphql request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+graphqlPath, bytes.NewReader(payload))
	if err != nil {
		return nil, apperrors.Transport(0, "building request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if err := cred.AuthorizeRequest(req); err != nil {
		return nil, apperrors.Credential("attaching credential", err)
	}

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var resp graphqlResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apperrors.MalformedBody("graphql response is not valid JSON", body, err)
	}
	if len(resp.Errors) > 0 {
		return nil, apperrors.Transport(0,
			fmt.Sprintf("graphql %s: %s", gql.OperationName, resp.Errors[0].Message), nil)
	}
	if resp.Data == nil {
		return nil, apperrors.MissingField("data", body)
	}
	return resp.Data, nil
}

// do executes a prepared request with client-side throttling and maps
// HTTP-level failures into the error taxonomy.
func (c *Client) do(req *http.Request) ([]byte, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, apperrors.Transport(0, "request cancelled", err)
	}

	c.log.Debug().Str("method", req.Method).Str("path", req.URL.Path).Msg("api request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Transport(0, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Transport(0, "reading response body", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, apperrors.Credential("access token rejected", ErrCredentialRejected)
	case resp.StatusCode != http.StatusOK:
		return nil, apperrors.Transport(resp.StatusCode,
			fmt.Sprintf("unexpected status %d from %s", resp.StatusCode, req.URL.Path), nil)
	}

	return body, nil
}
