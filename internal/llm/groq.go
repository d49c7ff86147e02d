package llm

import (
	"context"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/gitquill/gitquill/internal/config"
)

const (
	// GroqDefaultBaseURL is the default API base URL for Groq
	GroqDefaultBaseURL = "https://api.groq.com/openai/v1"
)

// GroqProvider implements Provider for Groq
// Groq uses OpenAI-compatible API
type GroqProvider struct {
	cfg config.ModelConfig
}

// NewGroqProvider creates a new Groq provider
func NewGroqProvider(cfg config.ModelConfig) *GroqProvider {
	// Set default base URL if not specified
	if cfg.BaseURL == "" {
		cfg.BaseURL = GroqDefaultBaseURL
	}
	return &GroqProvider{cfg: cfg}
}

// Name returns the provider name
func (p *GroqProvider) Name() string {
	return "groq"
}

// GetConfig returns the model configuration
func (p *GroqProvider) GetConfig() config.ModelConfig {
	return p.cfg
}

// CreateChatModel creates an Eino ChatModel for Groq
func (p *GroqProvider) CreateChatModel(ctx context.Context) (model.ChatModel, error) {
	// Groq uses OpenAI-compatible API
	cfg := &openai.ChatModelConfig{
		APIKey:  p.cfg.APIKey,
		Model:   p.cfg.Model,
		BaseURL: p.cfg.BaseURL,
	}

	return openai.NewChatModel(ctx, cfg)
}
