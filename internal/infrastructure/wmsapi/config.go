package wmsapi

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/erp/wmsconnector/internal/domain/wms"
)

const (
	// DefaultBaseURL is the versioned production API endpoint
	DefaultBaseURL = "https://api-v6.monta.nl"
	// DefaultTimeoutSeconds is the per-request HTTP timeout
	DefaultTimeoutSeconds = 30
	// DefaultUserAgent is sent on every request
	DefaultUserAgent = "ERP WMS Connector"
)

// AuthMode is the authentication scheme selected from the configured credentials
type AuthMode int

const (
	AuthNone AuthMode = iota
	AuthBearer
	AuthBasic
)

// String returns the string representation
func (m AuthMode) String() string {
	switch m {
	case AuthBearer:
		return "bearer"
	case AuthBasic:
		return "basic"
	default:
		return "none"
	}
}

// ClientConfig holds configuration for the WMS API client
type ClientConfig struct {
	// BaseURL is the API root, without trailing slash
	BaseURL string `validate:"required,url"`
	// Username and Password select HTTP basic authentication
	Username string
	Password string
	// ClientID and ClientSecret select bearer token authentication and take precedence
	ClientID     string
	ClientSecret string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int `validate:"gte=0"`
	// RateLimitPerSecond paces outgoing requests; 0 disables pacing
	RateLimitPerSecond float64 `validate:"gte=0"`
	UserAgent          string
}

var configValidator = validator.New()

// NewClientConfig creates a configuration with defaults
func NewClientConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:        DefaultBaseURL,
		TimeoutSeconds: DefaultTimeoutSeconds,
		UserAgent:      DefaultUserAgent,
	}
}

// AuthMode returns the authentication scheme. A complete client credential pair wins
// over basic credentials.
func (c *ClientConfig) AuthMode() AuthMode {
	if c.ClientID != "" && c.ClientSecret != "" {
		return AuthBearer
	}
	if c.Username != "" && c.Password != "" {
		return AuthBasic
	}
	return AuthNone
}

// Validate fills defaults and validates the configuration.
// Every failure wraps wms.ErrConfiguration.
func (c *ClientConfig) Validate() error {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", wms.ErrConfiguration, err)
	}
	if c.AuthMode() == AuthNone {
		return fmt.Errorf("%w: set client_id and client_secret, or username and password", wms.ErrConfiguration)
	}
	return nil
}
