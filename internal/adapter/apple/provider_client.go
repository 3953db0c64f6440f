package apple

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	domainapple "github.com/smallbiznis/appleid-token/internal/domain/apple"
)

const (
	tokenPath  = "/auth/token"
	revokePath = "/auth/revoke"

	maxBodyBytes = 1 << 20
)

// ClientCredentials authenticate the calling service to Apple.
type ClientCredentials struct {
	ClientID     string
	ClientSecret string
}

// ProviderClient encapsulates outbound HTTP calls to Apple's OAuth endpoints.
type ProviderClient interface {
	ExchangeCode(ctx context.Context, creds ClientCredentials, code string) (*domainapple.TokenResponse, error)
	RevokeToken(ctx context.Context, creds ClientCredentials, refreshToken string) error
}

// ProviderError describes a non-2xx answer from Apple.
type ProviderError struct {
	Endpoint    string
	StatusCode  int
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("apple %s: status %d", e.Endpoint, e.StatusCode)
	if e.Code != "" {
		msg += ": " + e.Code
	}
	if e.Description != "" {
		msg += " (" + e.Description + ")"
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return domainapple.ErrProviderRejected
}

// Options configure HTTPProviderClient.
type Options struct {
	BaseURL       string
	Timeout       time.Duration
	MaxRetries    int
	RetryInterval time.Duration
	HTTPClient    *http.Client
	Logger        *zap.Logger
}

// HTTPProviderClient is the default HTTP implementation.
type HTTPProviderClient struct {
	httpClient    *http.Client
	baseURL       string
	maxRetries    int
	retryInterval time.Duration
	logger        *zap.Logger
}

var _ ProviderClient = (*HTTPProviderClient)(nil)

// NewHTTPProviderClient constructs the default ProviderClient.
func NewHTTPProviderClient(opts Options) *HTTPProviderClient {
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		client = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = domainapple.Audience
	}
	retryInterval := opts.RetryInterval
	if retryInterval <= 0 {
		retryInterval = 200 * time.Millisecond
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &HTTPProviderClient{
		httpClient:    client,
		baseURL:       baseURL,
		maxRetries:    maxRetries,
		retryInterval: retryInterval,
		logger:        logger,
	}
}

// ExchangeCode trades an authorization code for Apple tokens.
func (c *HTTPProviderClient) ExchangeCode(ctx context.Context, creds ClientCredentials, code string) (*domainapple.TokenResponse, error) {
	data := url.Values{}
	data.Set("code", code)
	data.Set("client_id", creds.ClientID)
	data.Set("client_secret", creds.ClientSecret)
	data.Set("grant_type", "authorization_code")

	res, err := c.post(ctx, tokenPath, data)
	if err != nil {
		return nil, fmt.Errorf("token exchange request: %w", err)
	}

	raw := map[string]any{}
	if len(res.body) > 0 {
		if err := json.Unmarshal(res.body, &raw); err != nil && res.ok() {
			return nil, fmt.Errorf("decode token response: %w", err)
		}
	}

	c.logger.Debug("apple token response",
		zap.Int("status", res.status),
		zap.Any("body", redact(raw)),
	)

	if !res.ok() {
		return nil, newProviderError("token endpoint", res.status, raw)
	}

	token := &domainapple.TokenResponse{
		AccessToken:  stringValue(raw["access_token"]),
		RefreshToken: stringValue(raw["refresh_token"]),
		IDToken:      stringValue(raw["id_token"]),
		TokenType:    stringValue(raw["token_type"]),
		Raw:          raw,
	}
	if exp := raw["expires_in"]; exp != nil {
		token.ExpiresIn = int64Value(exp)
	}
	return token, nil
}

// RevokeToken invalidates a refresh token. Only the HTTP status is inspected.
func (c *HTTPProviderClient) RevokeToken(ctx context.Context, creds ClientCredentials, refreshToken string) error {
	data := url.Values{}
	data.Set("token", refreshToken)
	data.Set("client_id", creds.ClientID)
	data.Set("client_secret", creds.ClientSecret)
	data.Set("token_type_hint", "refresh_token")

	res, err := c.post(ctx, revokePath, data)
	if err != nil {
		return fmt.Errorf("revoke request: %w", err)
	}

	c.logger.Debug("apple revoke response", zap.Int("status", res.status))

	if !res.ok() {
		raw := map[string]any{}
		_ = json.Unmarshal(res.body, &raw)
		return newProviderError("revoke endpoint", res.status, raw)
	}
	return nil
}

type rawResponse struct {
	status int
	body   []byte
}

func (r rawResponse) ok() bool {
	return r.status >= 200 && r.status < 300
}

// post sends the form, retrying transport failures and 5xx answers up to maxRetries times.
func (c *HTTPProviderClient) post(ctx context.Context, path string, form url.Values) (rawResponse, error) {
	endpoint := c.baseURL + path
	attempt := 0

	operation := func() (rawResponse, error) {
		attempt++
		res, err := c.send(ctx, endpoint, form)
		if err != nil {
			c.logAttemptFailure(path, attempt, err)
			return rawResponse{}, err
		}
		if res.status >= 500 {
			err := fmt.Errorf("%s: status %d", path, res.status)
			c.logAttemptFailure(path, attempt, err)
			return rawResponse{}, &retryableStatus{res: res, err: err}
		}
		return res, nil
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.retryInterval
	eb.MaxInterval = 10 * c.retryInterval

	res, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(eb),
		backoff.WithMaxTries(uint(c.maxRetries)+1),
	)
	if err != nil {
		var status *retryableStatus
		if errors.As(err, &status) {
			// Out of attempts on a 5xx; hand the last answer back for normal classification.
			return status.res, nil
		}
		return rawResponse{}, err
	}
	return res, nil
}

func (c *HTTPProviderClient) send(ctx context.Context, endpoint string, form url.Values) (rawResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return rawResponse{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return rawResponse{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return rawResponse{}, fmt.Errorf("read response: %w", err)
	}
	return rawResponse{status: resp.StatusCode, body: body}, nil
}

func (c *HTTPProviderClient) logAttemptFailure(path string, attempt int, err error) {
	if attempt > c.maxRetries {
		return
	}
	c.logger.Warn("apple request failed, retrying",
		zap.String("path", path),
		zap.Int("attempt", attempt),
		zap.Error(err),
	)
}

type retryableStatus struct {
	res rawResponse
	err error
}

func (e *retryableStatus) Error() string {
	return e.err.Error()
}

func newProviderError(endpoint string, status int, raw map[string]any) *ProviderError {
	return &ProviderError{
		Endpoint:    endpoint,
		StatusCode:  status,
		Code:        stringValue(raw["error"]),
		Description: stringValue(raw["error_description"]),
	}
}

var sensitiveFields = map[string]struct{}{
	"access_token":  {},
	"refresh_token": {},
	"id_token":      {},
}

func redact(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		if _, secret := sensitiveFields[k]; secret {
			out[k] = "[redacted]"
			continue
		}
		out[k] = v
	}
	return out
}

func stringValue(input any) string {
	switch v := input.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

func int64Value(input any) int64 {
	switch v := input.(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case json.Number:
		n, _ := v.Int64()
		return n
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return 0
}
