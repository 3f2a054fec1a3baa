package factory

import (
	"context"
	"fmt"

	"github.com/sheetlens/sheetlens-backend/internal/ai/provider/anthropic"
	"github.com/sheetlens/sheetlens-backend/internal/ai/provider/openai"
	"github.com/sheetlens/sheetlens-backend/internal/ai/provider/types"
)

// NewProvider builds a provider from its config. A disabled or incomplete
// config fails here, at wiring time.
func NewProvider(cfg *types.Config) (types.Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case types.ProviderAnthropic:
		return anthropic.New(cfg)
	case types.ProviderOpenAI:
		return openai.New(cfg)
	default:
		return nil, fmt.Errorf("unsupported ai provider: %q", cfg.Provider)
	}
}

// Client folds provider errors into the SendResult shape so callers never
// see a raw transport error.
type Client struct {
	provider types.Provider
}

// NewClient wraps a provider
func NewClient(provider types.Provider) *Client {
	return &Client{provider: provider}
}

// Name returns the underlying provider identifier
func (c *Client) Name() string {
	return c.provider.Name()
}

// SendMessage sends prompt (with an optional system instruction) and
// returns the outcome shape. Failures populate Error; they do not escape.
func (c *Client) SendMessage(ctx context.Context, prompt, system string) types.SendResult {
	resp, err := c.provider.SendMessage(ctx, types.SendRequest{
		Prompt: prompt,
		System: system,
	})
	if err != nil {
		return types.SendResult{
			Success: false,
			Error:   err.Error(),
		}
	}

	return types.SendResult{
		Success: true,
		Content: resp.Content,
		Model:   resp.Model,
		Usage:   resp.Usage,
	}
}
