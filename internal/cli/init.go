package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const defaultConfigTemplate = `# GitQuill Configuration File

# Default language for generated commit messages (en, zh, ja, es, de, fr, ...)
language: en

# Default model to use (must match a key in the models section)
default_model: openai

# LLM Model configurations
models:
  # OpenAI
  openai:
    provider: openai
    api_key: ${OPENAI_API_KEY}
    model: gpt-4o-mini
    # base_url: https://api.openai.com/v1  # optional, uses default

  # Groq
  # groq:
  #   provider: groq
  #   api_key: ${GROQ_API_KEY}
  #   model: llama-3.3-70b-versatile

  # Ollama (local)
  # ollama:
  #   provider: ollama
  #   model: llama3.2
  #   base_url: http://localhost:11434/v1

  # Cohere
  # cohere:
  #   provider: cohere
  #   api_key: ${COHERE_API_KEY}
  #   model: command-r-plus

  # Google Gemini
  # gemini:
  #   provider: gemini
  #   api_key: ${GOOGLE_API_KEY}
  #   model: gemini-2.0-flash

  # Mistral
  # mistral:
  #   provider: mistral
  #   api_key: ${MISTRAL_API_KEY}
  #   model: mistral-large-latest

# Result cache (optional)
# cache:
#   dir: ""            # default: <git dir>/gitquill-cache
#   max_age_days: 7
#   max_entries: 200
#   fast_lookup: false # key-only memory lookup, skips fingerprint checks
#   write_timeout: 3   # seconds
#   disabled: false

# Diff size budgets (optional)
# chunk:
#   max_chunk_size: 4000
#   max_diff_lines: 1000
#   max_line_length: 300

# Retry policy for provider calls (optional)
# retry:
#   enabled: true
#   max_attempts: 3
#   backoff_base: 1.0
#   backoff_max: 8.0
`

var (
	initForce bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize GitQuill configuration",
	Long: `Create a default configuration file (~/.gitquill.yaml).

This command creates a template configuration file with example settings
for the supported LLM providers. Edit the file to add your API keys and
customize settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		configPath := filepath.Join(homeDir, ".gitquill.yaml")

		// Check if file exists
		if _, err := os.Stat(configPath); err == nil && !initForce {
			return fmt.Errorf("config file already exists: %s\nUse --force to overwrite", configPath)
		}

		// Write config file
		err = os.WriteFile(configPath, []byte(defaultConfigTemplate), 0600)
		if err != nil {
			return fmt.Errorf("failed to write config file: %w", err)
		}

		fmt.Printf("✅ Configuration file created: %s\n", configPath)
		fmt.Println("\nNext steps:")
		fmt.Println("  1. Edit the config file and add your API keys")
		fmt.Println("  2. Set environment variables for sensitive keys (recommended)")
		fmt.Println("  3. Run 'gitquill commit' to generate a commit message")

		return nil
	},
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite existing config file")
	rootCmd.AddCommand(initCmd)
}
