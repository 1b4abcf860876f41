package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/splitr/splitr/internal/metrics"
)

const (
	lookupPath   = "/v1/accounts:lookup"
	signUpPath   = "/v1/accounts:signUp"
	mintPath     = "/v1/tokens:mint"
	exchangePath = "/v1/accounts:signInWithCustomToken"

	// exchangeRetryDelay is the pause before the single retry of a failed
	// token exchange. The exchange is the one multi-hop dependency in the
	// login path, so it alone gets a transient-error retry.
	exchangeRetryDelay = 200 * time.Millisecond
)

// RESTConfig configures the REST provider client.
type RESTConfig struct {
	// BaseURL of the provider API. Overridable for tests.
	BaseURL string
	// APIKey authenticates end-user token operations (exchange, verify).
	APIKey string
	// ServiceAccountCredential authenticates admin operations
	// (lookup, create, mint) as a bearer token.
	ServiceAccountCredential string
	HTTPClient               *http.Client
	Logger                   *slog.Logger
	Metrics                  metrics.Recorder
}

// RESTProvider talks to the identity provider over its JSON REST API.
// Safe for concurrent use; construct once at startup and share.
type RESTProvider struct {
	baseURL    string
	apiKey     string
	adminCred  string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    metrics.Recorder
}

// NewRESTProvider creates a provider client from cfg.
func NewRESTProvider(cfg RESTConfig) *RESTProvider {
	client := cfg.HTTPClient
	if client == nil {
		client = NewHTTPClient(10 * time.Second)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &RESTProvider{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		adminCred:  cfg.ServiceAccountCredential,
		httpClient: client,
		logger:     logger,
		metrics:    recorder,
	}
}

// apiError is the provider's error envelope.
type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// accountsResponse covers both lookup and signUp response shapes.
type accountsResponse struct {
	LocalID string `json:"localId"`
	Email   string `json:"email"`
	Users   []struct {
		LocalID string `json:"localId"`
		Email   string `json:"email"`
	} `json:"users"`
}

// LookupUserByEmail implements Provider.
func (p *RESTProvider) LookupUserByEmail(ctx context.Context, email string) (*UserRecord, error) {
	var resp accountsResponse
	code, perr, err := p.post(ctx, "lookup", lookupPath, true, map[string]any{
		"email": []string{email},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if code != http.StatusOK {
		if perr == "EMAIL_NOT_FOUND" || perr == "USER_NOT_FOUND" {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %s", ErrUpstream, providerDetail(code, perr))
	}
	if len(resp.Users) == 0 {
		return nil, ErrUserNotFound
	}
	return &UserRecord{UID: resp.Users[0].LocalID, Email: resp.Users[0].Email}, nil
}

// CreateUser implements Provider.
func (p *RESTProvider) CreateUser(ctx context.Context, email, password string) (*UserRecord, error) {
	var resp accountsResponse
	code, perr, err := p.post(ctx, "create", signUpPath, true, map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": false,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if code != http.StatusOK {
		if perr == "EMAIL_EXISTS" {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("%w: %s", ErrUpstream, providerDetail(code, perr))
	}
	if resp.LocalID == "" {
		return nil, fmt.Errorf("%w: response missing uid", ErrUpstream)
	}
	return &UserRecord{UID: resp.LocalID, Email: email}, nil
}

// MintCustomToken implements Provider.
func (p *RESTProvider) MintCustomToken(ctx context.Context, uid string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	code, perr, err := p.post(ctx, "mint", mintPath, false, map[string]any{
		"uid": uid,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if code != http.StatusOK {
		return "", fmt.Errorf("%w: %s", ErrUpstream, providerDetail(code, perr))
	}
	if resp.Token == "" {
		return "", fmt.Errorf("%w: response missing custom token", ErrUpstream)
	}
	return resp.Token, nil
}

// ExchangeCustomToken implements Provider.
// A transient network failure is retried once after a short delay; any other
// failure, including a response without an idToken, is terminal.
func (p *RESTProvider) ExchangeCustomToken(ctx context.Context, customToken string) (string, error) {
	body := map[string]any{
		"token":             customToken,
		"returnSecureToken": true,
	}

	var resp struct {
		IDToken string `json:"idToken"`
	}
	code, perr, err := p.post(ctx, "exchange", exchangePath, true, body, &resp)
	if err != nil {
		p.logger.Warn("token exchange failed, retrying once", "error", err.Error())
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", ErrUpstream, ctx.Err())
		case <-time.After(exchangeRetryDelay):
		}
		code, perr, err = p.post(ctx, "exchange", exchangePath, true, body, &resp)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if code != http.StatusOK {
		return "", fmt.Errorf("%w: %s", ErrUpstream, providerDetail(code, perr))
	}
	if resp.IDToken == "" {
		return "", fmt.Errorf("%w: exchange response missing idToken", ErrUpstream)
	}
	return resp.IDToken, nil
}

// VerifyIDToken implements Provider.
func (p *RESTProvider) VerifyIDToken(ctx context.Context, idToken string) (*UserRecord, error) {
	var resp accountsResponse
	code, perr, err := p.post(ctx, "verify", lookupPath, true, map[string]any{
		"idToken": idToken,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if code != http.StatusOK {
		switch perr {
		case "INVALID_ID_TOKEN", "TOKEN_EXPIRED", "USER_NOT_FOUND", "USER_DISABLED":
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("%w: %s", ErrUpstream, providerDetail(code, perr))
	}
	if len(resp.Users) == 0 {
		return nil, ErrInvalidToken
	}
	return &UserRecord{UID: resp.Users[0].LocalID, Email: resp.Users[0].Email}, nil
}

// post sends a JSON POST to the provider and decodes the response into out.
// When withKey is true the API key is appended as a query parameter;
// otherwise the service-account credential is sent as a bearer token.
// Returns the HTTP status, the provider error message for non-2xx responses,
// and a non-nil error only for transport-level failures.
func (p *RESTProvider) post(ctx context.Context, op, path string, withKey bool, body any, out any) (int, string, error) {
	start := time.Now()
	defer func() {
		p.metrics.ObserveProviderLatency(op, time.Since(start))
	}()

	payload, err := json.Marshal(body)
	if err != nil {
		return 0, "", fmt.Errorf("marshal request: %w", err)
	}

	reqURL := p.baseURL + path
	if withKey {
		reqURL += "?key=" + p.apiKey
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return 0, "", transportError(op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if !withKey {
		req.Header.Set("Authorization", "Bearer "+p.adminCred)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, "", transportError(op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var perr apiError
		// Non-JSON error bodies are reported by status code alone
		_ = json.Unmarshal(data, &perr)
		p.logger.Warn("identity provider call failed",
			slog.String("op", op),
			slog.Int("status", resp.StatusCode),
			slog.String("provider_message", perr.Error.Message),
		)
		return resp.StatusCode, perr.Error.Message, nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return 0, "", fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, "", nil
}

// transportError reports a transport-level failure without the request URL.
// End-user request URLs carry the API key as a query parameter, and transport
// error detail ends up in logs and client-facing error bodies.
func transportError(op string, err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	return fmt.Errorf("%s call: %w", op, err)
}

// providerDetail renders a provider failure for error wrapping without
// exposing the raw response payload.
func providerDetail(status int, message string) string {
	if message == "" {
		return fmt.Sprintf("status %d", status)
	}
	return fmt.Sprintf("status %d (%s)", status, message)
}
