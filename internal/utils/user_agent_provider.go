package utils

//go:generate $MOCKGEN -source=user_agent_provider.go -destination=mocks/user_agent_provider_mock.go

import "strings"

// UserAgentProvider is an interface that defines a method for retrieving a User-Agent string.
type UserAgentProvider interface {
	// GetUserAgent returns a User-Agent string.
	GetUserAgent() string
}

// StaticUserAgentProvider returns the User-Agent chosen at construction time.
type StaticUserAgentProvider struct {
	userAgent string
}

// NewUserAgentProvider returns a provider for the configured User-Agent,
// falling back to fallback when configured is blank.
func NewUserAgentProvider(configured, fallback string) UserAgentProvider {
	userAgent := strings.TrimSpace(configured)
	if userAgent == "" {
		userAgent = fallback
	}

	return &StaticUserAgentProvider{userAgent: userAgent}
}

// GetUserAgent returns a User-Agent string.
func (p *StaticUserAgentProvider) GetUserAgent() string {
	return p.userAgent
}
