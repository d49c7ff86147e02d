package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Supported providers
var supportedProviders = map[string]bool{
	"openai":  true,
	"groq":    true,
	"ollama":  true,
	"cohere":  true,
	"gemini":  true,
	"mistral": true,
}

// SupportedProviders returns a list of supported providers
func SupportedProviders() []string {
	providers := make([]string, 0, len(supportedProviders))
	for p := range supportedProviders {
		providers = append(providers, p)
	}
	return providers
}

// Config represents the application configuration
type Config struct {
	DefaultModel string                 `yaml:"default_model" mapstructure:"default_model"`
	Models       map[string]ModelConfig `yaml:"models" mapstructure:"models"`
	Language     string                 `yaml:"language" mapstructure:"language"`
	Cache        *CacheConfig           `yaml:"cache" mapstructure:"cache"`
	Chunk        *ChunkConfig           `yaml:"chunk" mapstructure:"chunk"`
	Retry        *RetryConfig           `yaml:"retry" mapstructure:"retry"`
}

// CacheConfig represents the commit message cache configuration
type CacheConfig struct {
	Dir          string `yaml:"dir" mapstructure:"dir"`
	MaxAgeDays   int    `yaml:"max_age_days" mapstructure:"max_age_days"`
	MaxEntries   int    `yaml:"max_entries" mapstructure:"max_entries"`
	FastLookup   bool   `yaml:"fast_lookup" mapstructure:"fast_lookup"`     // opt-in key-only memory lookup
	WriteTimeout int    `yaml:"write_timeout" mapstructure:"write_timeout"` // in seconds
	Disabled     bool   `yaml:"disabled" mapstructure:"disabled"`
}

// DefaultCacheConfig returns the default cache configuration
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		MaxAgeDays:   7,
		MaxEntries:   200,
		FastLookup:   false,
		WriteTimeout: 3, // 3 seconds
	}
}

// ChunkConfig represents the diff size management configuration
type ChunkConfig struct {
	MaxChunkSize  int `yaml:"max_chunk_size" mapstructure:"max_chunk_size"`
	MaxDiffLines  int `yaml:"max_diff_lines" mapstructure:"max_diff_lines"`
	MaxLineLength int `yaml:"max_line_length" mapstructure:"max_line_length"`
}

// DefaultChunkConfig returns the default chunk configuration
func DefaultChunkConfig() *ChunkConfig {
	return &ChunkConfig{
		MaxChunkSize:  4000,
		MaxDiffLines:  1000,
		MaxLineLength: 300,
	}
}

// RetryConfig represents the retry configuration
type RetryConfig struct {
	Enabled     bool    `yaml:"enabled" mapstructure:"enabled"`
	MaxAttempts int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	BackoffBase float64 `yaml:"backoff_base" mapstructure:"backoff_base"` // in seconds
	BackoffMax  float64 `yaml:"backoff_max" mapstructure:"backoff_max"`   // in seconds
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		Enabled:     true,
		MaxAttempts: 3,
		BackoffBase: 1.0,
		BackoffMax:  8.0,
	}
}

// Validate validates the retry configuration
func (r *RetryConfig) Validate() error {
	if r.MaxAttempts < 0 {
		return fmt.Errorf("max_attempts must be non-negative")
	}
	if r.BackoffBase < 0 {
		return fmt.Errorf("backoff_base must be non-negative")
	}
	if r.BackoffMax < r.BackoffBase {
		return fmt.Errorf("backoff_max must be greater than or equal to backoff_base")
	}
	return nil
}

// Validate validates the cache configuration
func (c *CacheConfig) Validate() error {
	if c.MaxAgeDays < 0 {
		return fmt.Errorf("max_age_days must be non-negative")
	}
	if c.MaxEntries < 0 {
		return fmt.Errorf("max_entries must be non-negative")
	}
	if c.WriteTimeout < 0 {
		return fmt.Errorf("write_timeout must be non-negative")
	}
	return nil
}

// Validate validates the chunk configuration
func (c *ChunkConfig) Validate() error {
	if c.MaxChunkSize < 0 {
		return fmt.Errorf("max_chunk_size must be non-negative")
	}
	if c.MaxDiffLines < 0 {
		return fmt.Errorf("max_diff_lines must be non-negative")
	}
	if c.MaxLineLength < 0 {
		return fmt.Errorf("max_line_length must be non-negative")
	}
	return nil
}

// ModelConfig represents a single model configuration
type ModelConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"`
	APIKey   string `yaml:"api_key" mapstructure:"api_key"`
	Model    string `yaml:"model" mapstructure:"model"`
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
}

// Validate validates the model configuration
func (m *ModelConfig) Validate() error {
	if m.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if !supportedProviders[m.Provider] {
		return fmt.Errorf("unsupported provider: %s", m.Provider)
	}
	if m.Model == "" {
		return fmt.Errorf("model is required")
	}
	// API key is required for all providers except ollama
	if m.Provider != "ollama" && m.APIKey == "" {
		return fmt.Errorf("api_key is required for provider %s", m.Provider)
	}
	return nil
}

// Validate validates the entire configuration
func (c *Config) Validate() error {
	if len(c.Models) == 0 {
		return fmt.Errorf("no models configured")
	}

	// Validate default model exists
	if c.DefaultModel != "" {
		if _, ok := c.Models[c.DefaultModel]; !ok {
			return fmt.Errorf("default model '%s' not found in models configuration", c.DefaultModel)
		}
	}

	// Validate each model
	for name, model := range c.Models {
		if err := model.Validate(); err != nil {
			return fmt.Errorf("invalid model '%s': %w", name, err)
		}
	}

	if c.Cache != nil {
		if err := c.Cache.Validate(); err != nil {
			return fmt.Errorf("invalid cache configuration: %w", err)
		}
	}

	if c.Chunk != nil {
		if err := c.Chunk.Validate(); err != nil {
			return fmt.Errorf("invalid chunk configuration: %w", err)
		}
	}

	if c.Retry != nil {
		if err := c.Retry.Validate(); err != nil {
			return fmt.Errorf("invalid retry configuration: %w", err)
		}
	}

	return nil
}

// GetModel returns the model configuration by name
// Priority: parameter > env variable (GITQUILL_MODEL) > default_model
func (c *Config) GetModel(modelName string) (*ModelConfig, error) {
	// If modelName is empty, check env variable
	if modelName == "" {
		modelName = os.Getenv("GITQUILL_MODEL")
	}

	// If still empty, use default model
	if modelName == "" {
		modelName = c.DefaultModel
	}

	// If still empty, return error
	if modelName == "" {
		return nil, fmt.Errorf("no model specified and no default model configured")
	}

	model, ok := c.Models[modelName]
	if !ok {
		return nil, fmt.Errorf("model '%s' not found in configuration", modelName)
	}

	// Expand environment variables in API key
	model.APIKey = expandEnv(model.APIKey)

	return &model, nil
}

// GetLanguage returns the language to use
// Priority: parameter > env variable (GITQUILL_LANG) > config file > default (en)
func (c *Config) GetLanguage(langParam string) string {
	// Parameter has highest priority
	if langParam != "" {
		return langParam
	}

	// Check env variable
	if envLang := os.Getenv("GITQUILL_LANG"); envLang != "" {
		return envLang
	}

	// Use config file value
	if c.Language != "" {
		return c.Language
	}

	// Default to English
	return "en"
}

// GetCacheConfig returns the cache configuration with defaults applied
func (c *Config) GetCacheConfig() *CacheConfig {
	if c.Cache == nil {
		return DefaultCacheConfig()
	}
	// Apply defaults for unset values
	defaults := DefaultCacheConfig()
	if c.Cache.MaxAgeDays <= 0 {
		c.Cache.MaxAgeDays = defaults.MaxAgeDays
	}
	if c.Cache.MaxEntries <= 0 {
		c.Cache.MaxEntries = defaults.MaxEntries
	}
	if c.Cache.WriteTimeout <= 0 {
		c.Cache.WriteTimeout = defaults.WriteTimeout
	}
	return c.Cache
}

// GetChunkConfig returns the chunk configuration with defaults applied
func (c *Config) GetChunkConfig() *ChunkConfig {
	if c.Chunk == nil {
		return DefaultChunkConfig()
	}
	// Apply defaults for unset values
	defaults := DefaultChunkConfig()
	if c.Chunk.MaxChunkSize <= 0 {
		c.Chunk.MaxChunkSize = defaults.MaxChunkSize
	}
	if c.Chunk.MaxDiffLines <= 0 {
		c.Chunk.MaxDiffLines = defaults.MaxDiffLines
	}
	if c.Chunk.MaxLineLength <= 0 {
		c.Chunk.MaxLineLength = defaults.MaxLineLength
	}
	return c.Chunk
}

// GetRetryConfig returns the retry configuration with defaults applied
func (c *Config) GetRetryConfig() *RetryConfig {
	if c.Retry == nil {
		return DefaultRetryConfig()
	}
	// Apply defaults for unset values
	defaults := DefaultRetryConfig()
	if c.Retry.MaxAttempts < 0 {
		c.Retry.MaxAttempts = defaults.MaxAttempts
	}
	if c.Retry.BackoffBase < 0 {
		c.Retry.BackoffBase = defaults.BackoffBase
	}
	if c.Retry.BackoffMax < 0 {
		c.Retry.BackoffMax = defaults.BackoffMax
	}
	return c.Retry
}

// expandEnv expands environment variables in the format ${VAR} or $VAR
func expandEnv(s string) string {
	// Handle ${VAR} format
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		envName := s[2 : len(s)-1]
		return os.Getenv(envName)
	}
	// Handle $VAR format
	if strings.HasPrefix(s, "$") {
		envName := s[1:]
		return os.Getenv(envName)
	}
	return s
}

// LoadFromFile loads configuration from a file
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Load loads configuration with the following priority:
// 1. Custom path if provided
// 2. Current directory .gitquill.yaml
// 3. Home directory ~/.gitquill.yaml
func Load(customPath string) (*Config, error) {
	// If custom path is provided, use it exclusively
	if customPath != "" {
		return LoadFromFile(customPath)
	}

	// Try current directory first
	if cfg, err := LoadFromFile(".gitquill.yaml"); err == nil {
		return cfg, nil
	}

	// Try home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	homeCfgPath := filepath.Join(homeDir, ".gitquill.yaml")
	if cfg, err := LoadFromFile(homeCfgPath); err == nil {
		return cfg, nil
	}

	return nil, fmt.Errorf("no configuration file found. Run 'gitquill init' to create one")
}
