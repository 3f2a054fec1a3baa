package types

import (
	"errors"
	"time"
)

// Provider identifiers
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Config configures a text-generation provider. It is passed explicitly at
// construction time; a disabled or incomplete config fails in the factory,
// not on a per-call basis.
type Config struct {
	Enabled   bool
	Provider  string
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if !c.Enabled {
		return errors.New("ai provider is not enabled")
	}
	if c.Provider == "" {
		return errors.New("ai provider name is required")
	}
	if c.APIKey == "" {
		return errors.New("ai provider api key is required")
	}
	if c.Model == "" {
		return errors.New("ai provider model is required")
	}
	if c.MaxTokens <= 0 {
		return errors.New("ai provider max_tokens must be greater than 0")
	}
	if c.Timeout <= 0 {
		return errors.New("ai provider timeout must be greater than 0")
	}
	return nil
}
