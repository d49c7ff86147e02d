package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/gitquill/gitquill/internal/cache"
	"github.com/gitquill/gitquill/internal/config"
	"github.com/gitquill/gitquill/internal/git"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the commit message cache",
	Long:  `Commands for inspecting and maintaining the local result cache.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCache()
		if err != nil {
			return err
		}
		defer store.Close()

		stats := store.Stats()

		bold := color.New(color.Bold)
		cyan := color.New(color.FgCyan)

		bold.Println("Cache Statistics:")
		cyan.Printf("  Disk entries:   %d (%.2f MB)\n", stats.DiskEntries, stats.DiskMB)
		cyan.Printf("  Memory entries: %d\n", stats.MemoryEntries)
		cyan.Printf("  Hits / misses:  %d / %d\n", stats.Hits, stats.Misses)
		if stats.Hits+stats.Misses > 0 {
			cyan.Printf("  Hit rate:       %.0f%%\n", stats.HitRate*100)
		}
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCache()
		if err != nil {
			return err
		}
		defer store.Close()

		store.Clear()
		fmt.Println("Cache cleared.")
		return nil
	},
}

var cacheCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove expired and excess entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCache()
		if err != nil {
			return err
		}
		defer store.Close()

		removed := store.Cleanup()
		fmt.Printf("Removed %d entr%s.\n", removed, plural(removed, "y", "ies"))
		return nil
	},
}

// openCache builds a cache instance from the loaded configuration, using
// the same directory resolution as the commit command.
func openCache() (*cache.Cache, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cacheCfg := cfg.GetCacheConfig()

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	gitExec := git.NewExecutor(cwd)

	return cache.New(cache.Options{
		Dir:          resolveCacheDir(context.Background(), gitExec, cacheCfg.Dir),
		MaxAgeDays:   cacheCfg.MaxAgeDays,
		MaxEntries:   cacheCfg.MaxEntries,
		WriteTimeout: time.Duration(cacheCfg.WriteTimeout) * time.Second,
	}), nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheCleanupCmd)
	rootCmd.AddCommand(cacheCmd)
}
