package wmsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/erp/wmsconnector/internal/domain/wms"
)

// maxResponseSize is the maximum allowed response size from the WMS API (10MB)
const maxResponseSize = 10 * 1024 * 1024

const (
	tokenPath  = "/auth/token"
	tracerName = "github.com/erp/wmsconnector/wmsapi"
)

// Client is a WMS API client.
// Each client owns its token cache; create one client per execution context.
type Client struct {
	config     *ClientConfig
	configErr  error
	httpClient *http.Client
	tokens     *TokenCache
	limiter    *rate.Limiter
	logger     *zap.Logger
	tracer     trace.Tracer
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger.Named("wms_client")
	}
}

// WithTokenCache sets the token cache, e.g. to seed a token in tests
func WithTokenCache(tokens *TokenCache) ClientOption {
	return func(c *Client) {
		c.tokens = tokens
	}
}

// NewClient creates a new WMS API client.
// An invalid configuration does not fail construction: every request then returns
// the configuration error without touching the network.
func NewClient(cfg *ClientConfig, opts ...ClientOption) *Client {
	if cfg == nil {
		cfg = NewClientConfig()
	}
	c := &Client{
		config:    cfg,
		configErr: cfg.Validate(),
		tokens:    NewTokenCache(),
		logger:    zap.NewNop(),
		tracer:    otel.Tracer(tracerName),
	}
	c.httpClient = &http.Client{
		Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
	if cfg.RateLimitPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), 1)
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// AuthMode returns the authentication scheme in use
func (c *Client) AuthMode() AuthMode {
	return c.config.AuthMode()
}

// ConfigError returns the configuration validation error, nil when usable
func (c *Client) ConfigError() error {
	return c.configErr
}

// Request performs one API call and returns the decoded body.
// On a 401 with bearer authentication the token is refreshed and the request is replayed once.
func (c *Client) Request(ctx context.Context, method, path string, body any, query url.Values) (*Response, error) {
	if c.configErr != nil {
		return nil, c.configErr
	}

	ctx, span := c.tracer.Start(ctx, "wms."+method+" "+path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("wms.path", path),
			attribute.String("wms.auth_mode", c.AuthMode().String()),
		),
	)
	defer span.End()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("wms: failed to encode request body: %w", err)
		}
	}

	resp, err := c.send(ctx, method, path, payload, query)
	if err != nil && c.AuthMode() == AuthBearer && wms.IsUnauthorized(err) {
		c.logger.Info("WMS rejected bearer token, re-authenticating",
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("token_age", c.tokens.Age()),
		)
		span.AddEvent("token_refresh")
		c.tokens.Invalidate()
		resp, err = c.send(ctx, method, path, payload, query)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return resp, nil
}

// send performs exactly one HTTP round trip
func (c *Client) send(ctx context.Context, method, path string, payload []byte, query url.Values) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %v", wms.ErrTransport, err)
		}
	}

	fullURL := c.buildURL(path, query)

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("wms: failed to create request: %w", err)
	}
	c.setHeaders(req, payload != nil)

	switch c.AuthMode() {
	case AuthBearer:
		token, err := c.bearerToken(ctx)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	case AuthBasic:
		req.SetBasicAuth(c.config.Username, c.config.Password)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", wms.ErrTransport, method, fullURL, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s %s: %v", wms.ErrTransport, method, fullURL, err)
	}

	c.logger.Debug("WMS request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, wms.NewRemoteStatusError(method, fullURL, resp.StatusCode, respBody)
	}

	return ParseResponse(respBody)
}

// bearerToken returns the cached token, fetching one when the cache is empty
func (c *Client) bearerToken(ctx context.Context) (string, error) {
	if token, ok := c.tokens.Get(); ok {
		return token, nil
	}
	token, err := c.fetchToken(ctx)
	if err != nil {
		return "", err
	}
	c.tokens.Set(token)
	return token, nil
}

// fetchToken exchanges the client credentials for a bearer token
func (c *Client) fetchToken(ctx context.Context) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"clientId":     c.config.ClientID,
		"clientSecret": c.config.ClientSecret,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", wms.ErrAuthentication, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL(tokenPath, nil), bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %v", wms.ErrAuthentication, err)
	}
	c.setHeaders(req, true)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: token request: %v", wms.ErrAuthentication, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("%w: reading token response: %v", wms.ErrAuthentication, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: token endpoint returned HTTP %d", wms.ErrAuthentication, resp.StatusCode)
	}

	parsed, err := ParseResponse(body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", wms.ErrAuthentication, err)
	}
	token := parsed.Object().String(tokenAliases...)
	if token == "" {
		return "", fmt.Errorf("%w: token missing in response", wms.ErrAuthentication)
	}

	c.logger.Debug("WMS bearer token fetched")
	return token, nil
}

func (c *Client) buildURL(path string, query url.Values) string {
	u := c.config.BaseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) setHeaders(req *http.Request, hasBody bool) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
}
