package wealthsimple

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"wealthlink/internal/broker"
	apperrors "wealthlink/internal/errors"
)

const (
	tokenPath     = "/oauth/v2/token"
	tokenInfoPath = "/oauth/v2/token/info"

	// The client is strictly read-only; token requests never ask for write
	// scopes.
	tokenScope = "invest.read trade.read tax.read"

	grantPassword     = "password"
	grantRefreshToken = "refresh_token"
)

// Storage keys for the persisted credential. A credential is only usable
// when all three entries decode; partial contents are treated as absent.
const (
	storageKeyAccessToken  = "access_token"
	storageKeyRefreshToken = "refresh_token"
	storageKeyExpiry       = "token_expiry"
)

// Credential is the bearer token pair plus its absolute expiry. It is
// replaced wholesale on every transition, never field-mutated.
type Credential struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Valid reports whether the credential can still be used. An expiry equal
// to now already requires a refresh; only a strictly future expiry is valid.
func (c *Credential) Valid(now time.Time) bool {
	return now.Before(c.ExpiresAt)
}

// AuthorizeRequest attaches the access token as a bearer header. It is
// fallible at the interface boundary so that a future credential source
// (e.g. hardware-backed storage) can fail here.
func (c *Credential) AuthorizeRequest(req *http.Request) error {
	if c == nil || c.AccessToken == "" {
		return ErrNoCredential
	}
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	return nil
}

// TokenManagerConfig holds token manager construction parameters.
type TokenManagerConfig struct {
	BaseURL    string
	ClientID   string
	HTTPClient *http.Client
	Limiter    *rate.Limiter
	Storage    broker.TokenStorage
	Prompt     broker.AuthPrompt
	Logger     zerolog.Logger
	Now        func() time.Time
}

// TokenManager owns the credential lifecycle: acquiring, persisting,
// validating and transparently refreshing the bearer credential. State
// transitions are serialized by a mutex within one manager; the persisted
// storage itself stays last-write-wins across processes.
type TokenManager struct {
	mu         sync.Mutex
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	clientID   string
	storage    broker.TokenStorage
	prompt     broker.AuthPrompt
	log        zerolog.Logger
	now        func() time.Time

	cred *Credential
}

// NewTokenManager creates a token manager.
func NewTokenManager(cfg TokenManagerConfig) *TokenManager {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Limit(defaultRequestsPerSecond), 1)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &TokenManager{
		httpClient: httpClient,
		limiter:    limiter,
		baseURL:    cfg.BaseURL,
		clientID:   cfg.ClientID,
		storage:    cfg.Storage,
		prompt:     cfg.Prompt,
		log:        cfg.Logger.With().Str("component", "tokens").Logger(),
		now:        now,
	}
}

// Authenticate returns a currently valid credential. A held credential is
// refreshed in place when expired; otherwise a candidate is loaded from
// storage and validated against the server. When neither path yields a
// usable credential the interactive prompt is invoked and a password grant
// performed.
func (m *TokenManager) Authenticate(ctx context.Context) (*Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cred != nil {
		return m.ensureValidLocked(ctx)
	}

	if cand := m.loadLocked(); cand != nil {
		if cand.Valid(m.now()) {
			if m.validateLocked(ctx, cand) {
				m.cred = cand
				return cand, nil
			}
			m.log.Debug().Msg("stored credential rejected by server")
		} else {
			refreshed, err := m.refreshLocked(ctx, cand)
			if err == nil {
				m.cred = refreshed
				m.persistLocked(refreshed)
				return refreshed, nil
			}
			m.log.Debug().Err(err).Msg("stored credential refresh failed")
		}
	}

	return m.interactiveLocked(ctx)
}

// Invalidate drops the in-memory credential so the next Authenticate call
// re-establishes one from storage or interactively.
func (m *TokenManager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = nil
}

// ensureValidLocked refreshes the held credential if its expiry has passed,
// falling through to the interactive path when the refresh is rejected.
func (m *TokenManager) ensureValidLocked(ctx context.Context) (*Credential, error) {
	if m.cred.Valid(m.now()) {
		return m.cred, nil
	}

	refreshed, err := m.refreshLocked(ctx, m.cred)
	if err != nil {
		m.log.Debug().Err(err).Msg("refresh failed, re-authenticating")
		m.cred = nil
		return m.interactiveLocked(ctx)
	}
	m.cred = refreshed
	m.persistLocked(refreshed)
	return refreshed, nil
}

// interactiveLocked obtains username/password/OTP from the caller-supplied
// prompt and performs the password grant. The prompt is invoked at most
// once per authentication attempt.
func (m *TokenManager) interactiveLocked(ctx context.Context) (*Credential, error) {
	creds, err := m.prompt.Prompt(ctx)
	if err != nil {
		return nil, apperrors.Credential("interactive authentication aborted", err)
	}

	cred, err := m.requestTokenLocked(ctx, tokenRequest{
		GrantType: grantPassword,
		ClientID:  m.clientID,
		Scope:     tokenScope,
		Username:  creds.Username,
		Password:  creds.Password,
		OTP:       creds.OTP,
	})
	if err != nil {
		return nil, err
	}
	m.cred = cred
	m.persistLocked(cred)
	m.log.Info().Time("expires_at", cred.ExpiresAt).Msg("authenticated")
	return cred, nil
}

// refreshLocked performs the refresh-token grant for cand.
func (m *TokenManager) refreshLocked(ctx context.Context, cand *Credential) (*Credential, error) {
	if cand.RefreshToken == "" {
		return nil, apperrors.Credential("no refresh token", ErrNoCredential)
	}
	return m.requestTokenLocked(ctx, tokenRequest{
		GrantType:    grantRefreshToken,
		ClientID:     m.clientID,
		RefreshToken: cand.RefreshToken,
	})
}

// tokenRequest is the token endpoint POST body.
type tokenRequest struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	Scope        string `json:"scope,omitempty"`
	Username     string `json:"username,omitempty"`
	Password     string `json:"password,omitempty"`
	OTP          string `json:"otp,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// requestTokenLocked posts a token grant and decodes the resulting
// credential. Expiry is computed from the server-supplied created_at and
// expires_in, both integer seconds since epoch.
func (m *TokenManager) requestTokenLocked(ctx context.Context, payload tokenRequest) (*Credential, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.Internal("encoding token request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+tokenPath, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.Transport(0, "building token request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	if err := m.limiter.Wait(ctx); err != nil {
		return nil, apperrors.Transport(0, "token request cancelled", err)
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Transport(0, "token request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Transport(0, "reading token response", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		if payload.GrantType == grantRefreshToken {
			return nil, apperrors.Credential("refresh token rejected", ErrCredentialRejected)
		}
		return nil, apperrors.Credential("login rejected", ErrAuthenticationFailed)
	case resp.StatusCode != http.StatusOK:
		return nil, apperrors.Transport(resp.StatusCode,
			fmt.Sprintf("token endpoint returned status %d", resp.StatusCode), nil)
	}

	var token tokenResponse
	if err := json.Unmarshal(respBody, &token); err != nil {
		return nil, apperrors.MalformedBody("token response is not valid JSON", respBody, err)
	}
	if token.Error != "" {
		return nil, apperrors.Credential(
			fmt.Sprintf("token error: %s - %s", token.Error, token.ErrorDescription),
			ErrAuthenticationFailed)
	}
	if token.AccessToken == "" {
		return nil, apperrors.MissingField("access_token", respBody)
	}
	if token.ExpiresIn == 0 {
		return nil, apperrors.MissingField("expires_in", respBody)
	}
	if token.CreatedAt == 0 {
		return nil, apperrors.MissingField("created_at", respBody)
	}

	return &Credential{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    time.Unix(token.CreatedAt+token.ExpiresIn, 0),
	}, nil
}

// validateLocked confirms a storage candidate with the token-introspection
// endpoint. Only a 200 response keeps the candidate; any other outcome,
// network failures included, discards it.
func (m *TokenManager) validateLocked(ctx context.Context, cand *Credential) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+tokenInfoPath, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Accept", "application/json")
	if err := cand.AuthorizeRequest(req); err != nil {
		return false
	}

	if err := m.limiter.Wait(ctx); err != nil {
		return false
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK
}

// loadLocked reads the persisted credential. Any missing or undecodable
// entry makes the whole candidate absent.
func (m *TokenManager) loadLocked() *Credential {
	access, err := m.storage.Read(storageKeyAccessToken)
	if err != nil || access == "" {
		return nil
	}
	refresh, err := m.storage.Read(storageKeyRefreshToken)
	if err != nil || refresh == "" {
		return nil
	}
	expiryStr, err := m.storage.Read(storageKeyExpiry)
	if err != nil || expiryStr == "" {
		return nil
	}
	expiry, err := strconv.ParseInt(expiryStr, 10, 64)
	if err != nil {
		m.log.Warn().Str("value", expiryStr).Msg("stored expiry is not a unix timestamp")
		return nil
	}
	return &Credential{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    time.Unix(expiry, 0),
	}
}

// persistLocked writes the credential's three entries. A persistence
// failure is logged but does not invalidate the in-memory credential.
func (m *TokenManager) persistLocked(cred *Credential) {
	entries := []struct{ key, value string }{
		{storageKeyAccessToken, cred.AccessToken},
		{storageKeyRefreshToken, cred.RefreshToken},
		{storageKeyExpiry, strconv.FormatInt(cred.ExpiresAt.Unix(), 10)},
	}
	for _, e := range entries {
		if err := m.storage.Save(e.key, e.value); err != nil {
			m.log.Warn().Err(err).Str("key", e.key).Msg("persisting credential entry failed")
			return
		}
	}
}
