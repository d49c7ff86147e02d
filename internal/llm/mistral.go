package llm

import (
	"context"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/gitquill/gitquill/internal/config"
)

const (
	// MistralDefaultBaseURL is the default API base URL for Mistral
	MistralDefaultBaseURL = "https://api.mistral.ai/v1"
)

// MistralProvider implements Provider for Mistral
// Mistral uses OpenAI-compatible API
type MistralProvider struct {
	cfg config.ModelConfig
}

// NewMistralProvider creates a new Mistral provider
func NewMistralProvider(cfg config.ModelConfig) *MistralProvider {
	// Set default base URL if not specified
	if cfg.BaseURL == "" {
		cfg.BaseURL = MistralDefaultBaseURL
	}
	return &MistralProvider{cfg: cfg}
}

// Name returns the provider name
func (p *MistralProvider) Name() string {
	return "mistral"
}

// GetConfig returns the model configuration
func (p *MistralProvider) GetConfig() config.ModelConfig {
	return p.cfg
}

// CreateChatModel creates an Eino ChatModel for Mistral
func (p *MistralProvider) CreateChatModel(ctx context.Context) (model.ChatModel, error) {
	// Mistral uses OpenAI-compatible API
	cfg := &openai.ChatModelConfig{
		APIKey:  p.cfg.APIKey,
		Model:   p.cfg.Model,
		BaseURL: p.cfg.BaseURL,
	}

	return openai.NewChatModel(ctx, cfg)
}
