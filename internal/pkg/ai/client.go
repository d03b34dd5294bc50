package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/aicommit/aicommit/internal/pkg/config"
	apperrors "github.com/aicommit/aicommit/internal/pkg/errors"
	"github.com/aicommit/aicommit/internal/pkg/security"
)

// marshalRequest is replaced in tests to simulate encoding failures.
var marshalRequest = func(v any) ([]byte, error) { return json.Marshal(v) }

// RawResult is the undecoded reply of one completion exchange.
type RawResult struct {
	StatusCode int
	Body       string
}

// Client performs completion exchanges over HTTP. It keeps the raw status
// and body so that Reconcile can classify every reply.
type Client struct {
	httpClient *http.Client
	fallback   bool
	logger     *apperrors.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *apperrors.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
			c.fallback = false
		}
	}
}

// NewClient builds a client for provider with the DefaultTimeout ceiling.
// If the provider's transport settings are unusable the client degrades to a
// plain client with the same timeout; UsingFallback reports that case.
func NewClient(provider config.ProviderConfig, opts ...ClientOption) *Client {
	c := &Client{logger: apperrors.Default()}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient != nil {
		return c
	}

	hc, err := newHTTPClient(provider, DefaultTimeout)
	if err != nil {
		c.logger.Warn("using default HTTP client for provider %s: %v", provider.Name, err)
		c.httpClient = &http.Client{Timeout: DefaultTimeout}
		c.fallback = true
		return c
	}
	c.httpClient = hc
	return c
}

func newHTTPClient(provider config.ProviderConfig, timeout time.Duration) (*http.Client, error) {
	if timeout <= 0 {
		return nil, fmt.Errorf("invalid timeout %v", timeout)
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	if provider.Proxy != "" {
		u, err := url.Parse(provider.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid proxy URL %q: scheme and host are required", provider.Proxy)
		}
		transport.Proxy = http.ProxyURL(u)
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}, nil
}

// UsingFallback reports whether the client runs on the degraded default
// HTTP client.
func (c *Client) UsingFallback() bool {
	return c.fallback
}

// Send POSTs req to provider.Endpoint once and returns the raw reply.
// Errors are *apperrors.AppError with code ErrSerialization, ErrTransport or
// ErrTimeout; any HTTP status, including failures, is a RawResult.
func (c *Client) Send(ctx context.Context, req ChatRequest, provider config.ProviderConfig) (*RawResult, error) {
	body, err := marshalRequest(req)
	if err != nil {
		return nil, apperrors.NewSerializationError(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, provider.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.NewTransportError("build completion request", err).
			WithContext("endpoint", provider.Endpoint)
	}

	auth, ok := security.BearerHeader(provider.APIKey)
	if !ok {
		c.logger.Warn("API key for provider %s cannot be sent as a header; sending a placeholder credential", provider.Name)
	}
	httpReq.Header.Set("Authorization", auth)
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.LogAPIRequest(provider.Name, provider.Endpoint, req.Model, len(body))
	start := time.Now()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return nil, apperrors.NewTimeoutError(err).
				WithContext("endpoint", provider.Endpoint)
		}
		return nil, apperrors.NewTransportError("send completion request", err).
			WithContext("endpoint", provider.Endpoint)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewTransportError("read completion response", err).
			WithContext("status", resp.StatusCode)
	}

	c.logger.LogAPIResponse(provider.Name, resp.StatusCode, len(data), time.Since(start))
	if resp.StatusCode >= 300 {
		c.logger.Debug("response body: %s", security.SanitizeForLogging(string(data)))
	}

	return &RawResult{StatusCode: resp.StatusCode, Body: string(data)}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
