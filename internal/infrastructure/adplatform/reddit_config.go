package adplatform

import (
	"errors"
)

// RedditConfig holds configuration for the Reddit Ads API integration
type RedditConfig struct {
	// ClientID is the application id from the Reddit developer portal
	ClientID string
	// ClientSecret is the application secret
	ClientSecret string
	// AccessToken is the OAuth2 bearer token for API authorization
	AccessToken string
	// APIBaseURL is the base URL for the Reddit Ads API
	APIBaseURL string
	// IsSandbox indicates if this is a sandbox environment
	IsSandbox bool
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

const (
	// RedditProductionAPIURL is the production API endpoint
	RedditProductionAPIURL = "https://ads-api.reddit.com/api/v3"
	// RedditSandboxAPIURL is the sandbox API endpoint
	RedditSandboxAPIURL = "https://ads-api-sandbox.reddit.com/api/v3"
)

// Errors for Reddit configuration
var (
	ErrRedditConfigMissingClientID     = errors.New("reddit: client id is required")
	ErrRedditConfigMissingClientSecret = errors.New("reddit: client secret is required")
	ErrRedditConfigMissingAccessToken  = errors.New("reddit: access token is required")
)

// NewRedditConfig creates a new Reddit configuration with defaults
func NewRedditConfig(clientID, clientSecret, accessToken string) *RedditConfig {
	return &RedditConfig{
		ClientID:       clientID,
		ClientSecret:   clientSecret,
		AccessToken:    accessToken,
		APIBaseURL:     RedditProductionAPIURL,
		IsSandbox:      false,
		TimeoutSeconds: 30,
	}
}

// Validate validates the Reddit configuration
func (c *RedditConfig) Validate() error {
	if c.ClientID == "" {
		return ErrRedditConfigMissingClientID
	}
	if c.ClientSecret == "" {
		return ErrRedditConfigMissingClientSecret
	}
	if c.AccessToken == "" {
		return ErrRedditConfigMissingAccessToken
	}
	if c.APIBaseURL == "" {
		if c.IsSandbox {
			c.APIBaseURL = RedditSandboxAPIURL
		} else {
			c.APIBaseURL = RedditProductionAPIURL
		}
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}
