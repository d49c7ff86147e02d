package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gitquill/gitquill/internal/cache"
	"github.com/gitquill/gitquill/internal/config"
	"github.com/gitquill/gitquill/internal/diffchunk"
	"github.com/gitquill/gitquill/internal/generate"
	"github.com/gitquill/gitquill/internal/git"
	"github.com/gitquill/gitquill/internal/llm"
	"github.com/gitquill/gitquill/internal/log"
	"github.com/gitquill/gitquill/internal/retry"
	"github.com/gitquill/gitquill/internal/ui"
	"github.com/spf13/cobra"
)

var (
	commitContext     string
	commitLanguage    string
	commitAutoYes     bool
	commitNoCache     bool
	commitHookMode    bool
	commitMessageFile string
)

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Generate and create a commit",
	Long: `Generate commit messages using AI based on staged changes.

This command will:
1. Analyze your staged changes (git diff --cached)
2. Generate candidate commit messages following Conventional Commits
3. Let you pick one and ask for confirmation before committing

Repeated runs over the same staged diff are served from the local cache.

Examples:
  gitquill commit
  gitquill commit -c "Bug fix for user authentication"
  gitquill commit --language zh
  gitquill commit -m groq`,
	RunE: runCommit,
}

func init() {
	commitCmd.Flags().StringVarP(&commitContext, "context", "c", "", "Additional context to help AI generate better messages")
	commitCmd.Flags().StringVarP(&commitLanguage, "language", "l", "", "Output language (en, zh, ja, etc.)")
	commitCmd.Flags().BoolVarP(&commitAutoYes, "yes", "y", false, "Auto-confirm the commit without prompting")
	commitCmd.Flags().BoolVar(&commitNoCache, "no-cache", false, "Skip the result cache for this run")

	// Hook mode: invoked by the prepare-commit-msg hook. Writes the best
	// candidate into the message file instead of committing.
	commitCmd.Flags().BoolVar(&commitHookMode, "hook", false, "")
	commitCmd.Flags().StringVar(&commitMessageFile, "message-file", "", "")
	_ = commitCmd.Flags().MarkHidden("hook")
	_ = commitCmd.Flags().MarkHidden("message-file")

	rootCmd.AddCommand(commitCmd)
}

func runCommit(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	startTime := time.Now()

	// Load configuration
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log.DebugConfig("Configuration", cfg)

	modelConfig, err := cfg.GetModel(modelName)
	if err != nil {
		return fmt.Errorf("failed to get model config: %w", err)
	}

	language := cfg.GetLanguage(commitLanguage)
	log.Debug("Using model provider=%s, language=%s", modelConfig.Provider, language)

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}
	gitExec := git.NewExecutor(cwd)

	diff, err := gitExec.DiffCached(ctx)
	if err != nil {
		return fmt.Errorf("failed to get staged changes: %w", err)
	}
	if diff == "" {
		if commitHookMode {
			return nil
		}
		fmt.Println("No staged changes found.")
		fmt.Println("\nTo stage changes, use:")
		fmt.Println("  git add <file>")
		fmt.Println("  git add -A")
		return nil
	}

	// Create LLM provider
	factory := llm.NewProviderFactory()
	provider, err := factory.Create(*modelConfig)
	if err != nil {
		return fmt.Errorf("failed to create LLM provider: %w", err)
	}

	// Open the result cache unless disabled
	cacheCfg := cfg.GetCacheConfig()
	var store *cache.Cache
	if !cacheCfg.Disabled && !commitNoCache {
		store = cache.New(cache.Options{
			Dir:          resolveCacheDir(ctx, gitExec, cacheCfg.Dir),
			MaxAgeDays:   cacheCfg.MaxAgeDays,
			MaxEntries:   cacheCfg.MaxEntries,
			WriteTimeout: time.Duration(cacheCfg.WriteTimeout) * time.Second,
		})
		defer store.Close()
	}

	retryCfg := cfg.GetRetryConfig()
	chunkCfg := cfg.GetChunkConfig()

	var printer *ui.StreamPrinter
	if !commitHookMode {
		printer = ui.NewStreamPrinter(os.Stdout, ui.WithVerbose(debugMode))
	}

	svc, err := generate.New(generate.Options{
		Provider:   provider,
		Cache:      store,
		Language:   language,
		Printer:    printer,
		FastLookup: cacheCfg.FastLookup,
		Chunk: diffchunk.Options{
			MaxChunkSize:  chunkCfg.MaxChunkSize,
			MaxDiffLines:  chunkCfg.MaxDiffLines,
			MaxLineLength: chunkCfg.MaxLineLength,
		},
		Retry: retry.Config{
			Enabled:     retryCfg.Enabled,
			MaxAttempts: retryCfg.MaxAttempts,
			BackoffBase: retryCfg.BackoffBase,
			BackoffMax:  retryCfg.BackoffMax,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create generation service: %w", err)
	}

	if printer != nil {
		if stats, err := gitExec.NumStat(ctx); err == nil && stats.FilesChanged > 0 {
			_ = printer.PrintInfo(fmt.Sprintf("Staged: %d file(s), +%d -%d",
				stats.FilesChanged, stats.Insertions, stats.Deletions))
		}
		_ = printer.PrintThinking("Generating commit messages...")
	}

	result, err := svc.Generate(ctx, generate.Request{Diff: diff, Context: commitContext})
	if err != nil {
		return fmt.Errorf("failed to generate commit message: %w", err)
	}

	if commitHookMode {
		return writeHookMessage(result.Messages[0])
	}

	message, err := chooseMessage(result.Messages)
	if err != nil {
		return err
	}

	if err := ui.ShowCommitMessage(message, os.Stdout); err != nil {
		return err
	}

	_ = printer.PrintStats(&ui.ExecutionStats{
		StartTime:        startTime,
		EndTime:          time.Now(),
		PromptTokens:     result.PromptTokens,
		CompletionTokens: result.CompletionTokens,
		TotalTokens:      result.TotalTokens,
		FromCache:        result.FromCache,
	})

	// Ask for confirmation (default is Yes)
	if !commitAutoYes {
		confirmed, err := ui.ConfirmWithDefault("\nDo you want to commit with this message?", true, os.Stdin, os.Stdout)
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Commit cancelled.")
			return nil
		}
	}

	if err := gitExec.Commit(ctx, message); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	_ = printer.Newline()
	_ = printer.PrintSuccess("Commit created successfully!")
	return nil
}

// chooseMessage lets the user pick among candidates. With --yes or a single
// candidate the first one wins.
func chooseMessage(candidates []string) (string, error) {
	if len(candidates) == 0 {
		return "", fmt.Errorf("no commit message generated")
	}
	if commitAutoYes || len(candidates) == 1 {
		return candidates[0], nil
	}

	idx, err := ui.SelectOption("Pick a commit message:", candidates, 0, os.Stdin, os.Stdout)
	if err != nil {
		return "", err
	}
	return candidates[idx], nil
}

// writeHookMessage fills the prepare-commit-msg buffer with the draft.
func writeHookMessage(message string) error {
	if commitMessageFile == "" {
		return fmt.Errorf("--hook requires --message-file")
	}
	if err := os.WriteFile(commitMessageFile, []byte(message+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write commit message file: %w", err)
	}
	return nil
}

// resolveCacheDir picks the cache directory: explicit config first, then
// <git dir>/gitquill-cache, then ~/.gitquill/cache.
func resolveCacheDir(ctx context.Context, gitExec git.Executor, configured string) string {
	if configured != "" {
		return configured
	}
	if gitDir, err := gitExec.GitDir(ctx); err == nil && gitDir != "" {
		return filepath.Join(gitDir, "gitquill-cache")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "gitquill-cache")
	}
	return filepath.Join(home, ".gitquill", "cache")
}
