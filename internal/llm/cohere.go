package llm

import (
	"context"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/gitquill/gitquill/internal/config"
)

const (
	// CohereDefaultBaseURL is the OpenAI-compatible endpoint for Cohere
	CohereDefaultBaseURL = "https://api.cohere.ai/compatibility/v1"
)

// CohereProvider implements Provider for Cohere
// Cohere exposes an OpenAI-compatible compatibility API
type CohereProvider struct {
	cfg config.ModelConfig
}

// NewCohereProvider creates a new Cohere provider
func NewCohereProvider(cfg config.ModelConfig) *CohereProvider {
	// Set default base URL if not specified
	if cfg.BaseURL == "" {
		cfg.BaseURL = CohereDefaultBaseURL
	}
	return &CohereProvider{cfg: cfg}
}

// Name returns the provider name
func (p *CohereProvider) Name() string {
	return "cohere"
}

// GetConfig returns the model configuration
func (p *CohereProvider) GetConfig() config.ModelConfig {
	return p.cfg
}

// CreateChatModel creates an Eino ChatModel for Cohere
func (p *CohereProvider) CreateChatModel(ctx context.Context) (model.ChatModel, error) {
	cfg := &openai.ChatModelConfig{
		APIKey:  p.cfg.APIKey,
		Model:   p.cfg.Model,
		BaseURL: p.cfg.BaseURL,
	}

	return openai.NewChatModel(ctx, cfg)
}
