package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRepo creates a temporary git repository for testing
func setupTestRepo(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()

	// Initialize git repo
	cmd := exec.Command("git", "init")
	cmd.Dir = tmpDir
	require.NoError(t, cmd.Run())

	// Configure git user for commits
	cmd = exec.Command("git", "config", "user.email", "test@example.com")
	cmd.Dir = tmpDir
	require.NoError(t, cmd.Run())

	cmd = exec.Command("git", "config", "user.name", "Test User")
	cmd.Dir = tmpDir
	require.NoError(t, cmd.Run())

	return tmpDir
}

// createAndStageFile creates a file and stages it
func createAndStageFile(t *testing.T, repoDir, filename, content string) {
	t.Helper()

	filePath := filepath.Join(repoDir, filename)
	err := os.WriteFile(filePath, []byte(content), 0644)
	require.NoError(t, err)

	cmd := exec.Command("git", "add", filename)
	cmd.Dir = repoDir
	require.NoError(t, cmd.Run())
}

// commitFile commits staged changes
func commitFile(t *testing.T, repoDir, message string) {
	t.Helper()

	cmd := exec.Command("git", "commit", "-m", message)
	cmd.Dir = repoDir
	require.NoError(t, cmd.Run())
}

func TestNewExecutor(t *testing.T) {
	executor := NewExecutor("/tmp/test")
	assert.NotNil(t, executor)
}

func TestExecutor_DiffCached(t *testing.T) {
	repoDir := setupTestRepo(t)
	executor := NewExecutor(repoDir)
	ctx := context.Background()

	t.Run("empty staging area", func(t *testing.T) {
		diff, err := executor.DiffCached(ctx)
		require.NoError(t, err)
		assert.Empty(t, diff)
	})

	t.Run("with staged changes", func(t *testing.T) {
		createAndStageFile(t, repoDir, "test.txt", "hello world")

		diff, err := executor.DiffCached(ctx)
		require.NoError(t, err)
		assert.Contains(t, diff, "test.txt")
		assert.Contains(t, diff, "hello world")
	})
}

func TestExecutor_DiffCached_MultipleFiles(t *testing.T) {
	repoDir := setupTestRepo(t)
	executor := NewExecutor(repoDir)
	ctx := context.Background()

	createAndStageFile(t, repoDir, "file1.go", "package main")
	createAndStageFile(t, repoDir, "file2.go", "package test")

	diff, err := executor.DiffCached(ctx)
	require.NoError(t, err)
	assert.Contains(t, diff, "file1.go")
	assert.Contains(t, diff, "file2.go")
}

func TestExecutor_Status(t *testing.T) {
	repoDir := setupTestRepo(t)
	executor := NewExecutor(repoDir)
	ctx := context.Background()

	t.Run("clean repo", func(t *testing.T) {
		status, err := executor.Status(ctx)
		require.NoError(t, err)
		assert.NotEmpty(t, status)
	})

	t.Run("with staged file", func(t *testing.T) {
		createAndStageFile(t, repoDir, "new.txt", "content")

		status, err := executor.Status(ctx)
		require.NoError(t, err)
		assert.Contains(t, status, "new.txt")
	})
}

func TestExecutor_NumStat(t *testing.T) {
	repoDir := setupTestRepo(t)
	executor := NewExecutor(repoDir)
	ctx := context.Background()

	t.Run("empty staging area", func(t *testing.T) {
		stats, err := executor.NumStat(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.FilesChanged)
	})

	t.Run("with staged files", func(t *testing.T) {
		createAndStageFile(t, repoDir, "a.txt", "one\ntwo\nthree\n")
		createAndStageFile(t, repoDir, "b.txt", "single line\n")

		stats, err := executor.NumStat(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.FilesChanged)
		assert.Equal(t, 4, stats.Insertions)
		assert.Equal(t, 0, stats.Deletions)
	})
}

func TestParseNumStat(t *testing.T) {
	t.Run("regular rows", func(t *testing.T) {
		stats := parseNumStat("3\t1\tmain.go\n10\t0\tREADME.md")
		assert.Equal(t, 2, stats.FilesChanged)
		assert.Equal(t, 13, stats.Insertions)
		assert.Equal(t, 1, stats.Deletions)
		require.Len(t, stats.Files, 2)
		assert.Equal(t, "main.go", stats.Files[0].Path)
		assert.Equal(t, 3, stats.Files[0].Insertions)
	})

	t.Run("binary file", func(t *testing.T) {
		stats := parseNumStat("-\t-\tlogo.png\n2\t0\tmain.go")
		assert.Equal(t, 2, stats.FilesChanged)
		assert.Equal(t, 2, stats.Insertions)
		require.Len(t, stats.Files, 2)
		assert.True(t, stats.Files[0].Binary)
		assert.Equal(t, -1, stats.Files[0].Insertions)
	})

	t.Run("path with tabs kept intact", func(t *testing.T) {
		stats := parseNumStat("1\t0\tweird\tname.txt")
		require.Len(t, stats.Files, 1)
		assert.Equal(t, "weird\tname.txt", stats.Files[0].Path)
	})

	t.Run("empty and malformed input", func(t *testing.T) {
		assert.Equal(t, 0, parseNumStat("").FilesChanged)
		assert.Equal(t, 0, parseNumStat("garbage line\n\n").FilesChanged)
	})
}

func TestExecutor_Commit(t *testing.T) {
	repoDir := setupTestRepo(t)
	executor := NewExecutor(repoDir)
	ctx := context.Background()

	t.Run("commit staged changes", func(t *testing.T) {
		createAndStageFile(t, repoDir, "commit-test.txt", "test content")

		err := executor.Commit(ctx, "test: commit message")
		require.NoError(t, err)

		out, err := executor.runGit(ctx, "log", "-1", "--format=%s")
		require.NoError(t, err)
		assert.Equal(t, "test: commit message", out)
	})

	t.Run("commit with body", func(t *testing.T) {
		createAndStageFile(t, repoDir, "commit-body.txt", "body test")

		message := "feat: add feature\n\nThis is the body of the commit.\nIt explains what and why."
		err := executor.Commit(ctx, message)
		require.NoError(t, err)

		out, err := executor.runGit(ctx, "log", "-1", "--format=%B")
		require.NoError(t, err)
		assert.Contains(t, out, "add feature")
		assert.Contains(t, out, "what and why")
	})

	t.Run("commit with empty staging area fails", func(t *testing.T) {
		err := executor.Commit(ctx, "empty commit")
		assert.Error(t, err)
	})
}

func TestExecutor_RepoRoot(t *testing.T) {
	repoDir := setupTestRepo(t)
	executor := NewExecutor(repoDir)
	ctx := context.Background()

	root, err := executor.RepoRoot(ctx)
	require.NoError(t, err)
	// macOS tempdirs resolve through /private; compare the tail.
	assert.True(t, strings.HasSuffix(root, filepath.Base(repoDir)))
}

func TestExecutor_GitDir(t *testing.T) {
	repoDir := setupTestRepo(t)
	executor := NewExecutor(repoDir)
	ctx := context.Background()

	gitDir, err := executor.GitDir(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(gitDir, ".git"))
}

func TestExecutor_CurrentBranch(t *testing.T) {
	repoDir := setupTestRepo(t)
	executor := NewExecutor(repoDir)
	ctx := context.Background()

	// Need at least one commit to have a branch
	createAndStageFile(t, repoDir, "init.txt", "init")
	commitFile(t, repoDir, "initial commit")

	branch, err := executor.CurrentBranch(ctx)
	require.NoError(t, err)
	// Default branch could be "main" or "master"
	assert.True(t, branch == "main" || branch == "master", "branch should be main or master, got: %s", branch)
}

func TestExecutor_NotAGitRepo(t *testing.T) {
	tmpDir := t.TempDir()
	executor := NewExecutor(tmpDir)
	ctx := context.Background()

	_, err := executor.Status(ctx)
	assert.Error(t, err)
}
