package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/gitquill/gitquill/internal/git"
	"github.com/gitquill/gitquill/internal/hook"
	"github.com/spf13/cobra"
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Manage the prepare-commit-msg git hook",
	Long: `Install or remove a prepare-commit-msg hook that pre-fills the commit
message buffer with a generated draft whenever you run plain "git commit".`,
}

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the prepare-commit-msg hook",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := hookManager()
		if err != nil {
			return err
		}
		if err := m.Install(); err != nil {
			return err
		}
		fmt.Println("✅ Hook installed.")
		return nil
	},
}

var hookUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the prepare-commit-msg hook",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := hookManager()
		if err != nil {
			return err
		}
		if !m.IsInstalled() {
			fmt.Println("Hook is not installed.")
			return nil
		}
		if err := m.Uninstall(); err != nil {
			return err
		}
		fmt.Println("Hook removed.")
		return nil
	},
}

func hookManager() (*hook.Manager, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	gitDir, err := git.NewExecutor(cwd).GitDir(context.Background())
	if err != nil {
		return nil, fmt.Errorf("not inside a git repository: %w", err)
	}
	return hook.NewManager(gitDir), nil
}

func init() {
	hookCmd.AddCommand(hookInstallCmd)
	hookCmd.AddCommand(hookUninstallCmd)
	rootCmd.AddCommand(hookCmd)
}
