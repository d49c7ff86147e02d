package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ChangeStats summarizes staged changes from git diff --numstat.
type ChangeStats struct {
	FilesChanged int
	Insertions   int
	Deletions    int
	Files        []FileStat
}

// FileStat is the per-file numstat row. Binary files report -1 counts.
type FileStat struct {
	Path       string
	Insertions int
	Deletions  int
	Binary     bool
}

// Executor defines the interface for git command execution
type Executor interface {
	// DiffCached returns the diff of staged changes
	DiffCached(ctx context.Context) (string, error)

	// Status returns the current git status
	Status(ctx context.Context) (string, error)

	// NumStat returns per-file change statistics for staged changes
	NumStat(ctx context.Context) (*ChangeStats, error)

	// Commit executes a git commit with the given message
	Commit(ctx context.Context, message string) error

	// RepoRoot returns the absolute path of the repository working tree
	RepoRoot(ctx context.Context) (string, error)

	// GitDir returns the absolute path of the .git directory
	GitDir(ctx context.Context) (string, error)

	// CurrentBranch returns the current branch name
	CurrentBranch(ctx context.Context) (string, error)
}

// DefaultExecutor is the default implementation of Executor
type DefaultExecutor struct {
	workDir string
}

// NewExecutor creates a new DefaultExecutor
func NewExecutor(workDir string) *DefaultExecutor {
	return &DefaultExecutor{workDir: workDir}
}

// runGit runs a git command and returns the output
func (e *DefaultExecutor) runGit(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = e.workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s failed: %w\n%s", strings.Join(args, " "), err, stderr.String())
	}

	return strings.TrimSpace(stdout.String()), nil
}

// DiffCached returns the diff of staged changes
func (e *DefaultExecutor) DiffCached(ctx context.Context) (string, error) {
	return e.runGit(ctx, "diff", "--cached")
}

// Status returns the current git status
func (e *DefaultExecutor) Status(ctx context.Context) (string, error) {
	return e.runGit(ctx, "status")
}

// NumStat returns per-file change statistics for staged changes.
func (e *DefaultExecutor) NumStat(ctx context.Context) (*ChangeStats, error) {
	output, err := e.runGit(ctx, "diff", "--cached", "--numstat")
	if err != nil {
		return nil, err
	}
	return parseNumStat(output), nil
}

// parseNumStat parses git diff --numstat output. Each row is
// "<insertions>\t<deletions>\t<path>"; binary files use "-" for both counts.
func parseNumStat(output string) *ChangeStats {
	stats := &ChangeStats{}
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, "\t", 3)
		if len(fields) != 3 {
			continue
		}

		fs := FileStat{Path: fields[2]}
		if fields[0] == "-" || fields[1] == "-" {
			fs.Binary = true
			fs.Insertions = -1
			fs.Deletions = -1
		} else {
			ins, err1 := strconv.Atoi(fields[0])
			del, err2 := strconv.Atoi(fields[1])
			if err1 != nil || err2 != nil {
				continue
			}
			fs.Insertions = ins
			fs.Deletions = del
			stats.Insertions += ins
			stats.Deletions += del
		}
		stats.Files = append(stats.Files, fs)
		stats.FilesChanged++
	}
	return stats
}

// Commit executes a git commit with the given message
func (e *DefaultExecutor) Commit(ctx context.Context, message string) error {
	_, err := e.runGit(ctx, "commit", "-m", message)
	return err
}

// RepoRoot returns the absolute path of the repository working tree.
func (e *DefaultExecutor) RepoRoot(ctx context.Context) (string, error) {
	return e.runGit(ctx, "rev-parse", "--show-toplevel")
}

// GitDir returns the absolute path of the .git directory.
func (e *DefaultExecutor) GitDir(ctx context.Context) (string, error) {
	return e.runGit(ctx, "rev-parse", "--absolute-git-dir")
}

// CurrentBranch returns the current branch name
func (e *DefaultExecutor) CurrentBranch(ctx context.Context) (string, error) {
	return e.runGit(ctx, "rev-parse", "--abbrev-ref", "HEAD")
}
