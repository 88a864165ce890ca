package config

import (
	"errors"
	"fmt"
)

var (
	ErrMarvelEndpointRequired = errors.New("marvel endpoint is required")
	ErrMarvelAPIKeyRequired   = errors.New("marvel api key is required")
	ErrOpenAIAPIKeyRequired   = errors.New("openai api key is required")
	ErrJWTSecretRequired      = errors.New("jwt secret is required")
	ErrInvalidRetention       = errors.New("retention keep must be positive and not above the threshold")
)

func (c *Config) Validate() error {
	switch c.Marvel.Provider {
	case ProviderMarvel:
		if c.Marvel.Endpoint == "" {
			return ErrMarvelEndpointRequired
		}
		if c.Marvel.APIKey == "" {
			return ErrMarvelAPIKeyRequired
		}
	case ProviderOpenAI:
		if c.OpenAI.OpenAIAPIKey == "" {
			return ErrOpenAIAPIKeyRequired
		}
	default:
		return fmt.Errorf("unknown provider %q", c.Marvel.Provider)
	}
	if c.HTTP.JWTSecret == "" {
		return ErrJWTSecretRequired
	}
	if c.Chat.RetentionKeep <= 0 || c.Chat.RetentionKeep > c.Chat.RetentionThreshold {
		return ErrInvalidRetention
	}
	return nil
}
