package openai

import (
	"context"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sheetlens/sheetlens-backend/internal/ai/provider/types"
)

// Provider implements types.Provider via the OpenAI chat completions API.
// Any OpenAI-compatible endpoint works through BaseURL.
type Provider struct {
	config *types.Config
	client *openai.Client
}

// New creates an OpenAI provider
func New(config *types.Config) (*Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{Timeout: config.Timeout}

	return &Provider{
		config: config,
		client: openai.NewClientWithConfig(clientConfig),
	}, nil
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return types.ProviderOpenAI
}

// SendMessage sends a single-turn message via chat completions
func (p *Provider) SendMessage(ctx context.Context, req types.SendRequest) (*types.SendResponse, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     p.config.Model,
		MaxTokens: p.config.MaxTokens,
		Messages:  messages,
	})
	if err != nil {
		return nil, types.NewProviderError(p.Name(), "request failed", err)
	}

	var content string
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	return &types.SendResponse{
		Content: content,
		Model:   resp.Model,
		Usage: types.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}
