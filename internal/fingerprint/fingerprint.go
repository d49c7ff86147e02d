// Package fingerprint derives deterministic identifiers from unified diff
// text: an exact content key used as the primary cache key, a semantic
// fingerprint over meaningful changed lines, and a structural fingerprint
// over the set of touched file paths.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"hash/fnv"
	"regexp"
	"sort"
	"strings"

	"github.com/gitquill/gitquill/internal/log"
)

// shortLen is the rendered length of semantic and structural fingerprints.
const shortLen = 16

// minMeaningfulChars is the minimum content length for a changed line to
// contribute to the semantic fingerprint. Shorter lines (braces, blank
// removals) are noise.
const minMeaningfulChars = 5

var (
	newFileHeaderRegex = regexp.MustCompile(`^\+\+\+ b/(.+)$`)
	diffGitHeaderRegex = regexp.MustCompile(`^diff --git a/.+ b/(.+)$`)
)

// ExactKey returns the SHA-256 of the raw diff text as 64 lowercase hex
// characters. Identical input always yields an identical key.
func ExactKey(diffText string) string {
	sum := sha256.Sum256([]byte(diffText))
	return hex.EncodeToString(sum[:])
}

// Semantic returns a 16-hex-character digest of the meaningful changed
// lines of the diff. Comment-only and very short lines are ignored, so
// diffs differing only in comments or blank lines fingerprint the same.
// An empty or fully-filtered diff still yields a valid fingerprint.
func Semantic(diffText string) string {
	changes := ExtractCodeChanges(diffText)
	return shortHash(strings.Join(changes, "\n"))
}

// Structural returns a 16-hex-character digest of the sorted set of file
// paths touched by the diff. Header order does not affect the result.
func Structural(diffText string) string {
	paths := touchedPaths(diffText)
	sort.Strings(paths)
	return shortHash(strings.Join(paths, "\n"))
}

// QuickHash returns a cheap FNV-1a hash of the text. It is deterministic
// but not collision-resistant; use it only for low-stakes bucketing, never
// for cache correctness.
func QuickHash(text string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	return h.Sum32()
}

// ValidateSimilarity reports whether two diffs carry the same meaningful
// code changes. Empty input is treated as invalid: it logs a warning and
// returns false so a broken comparison degrades to a cache miss instead of
// blocking the caller.
func ValidateSimilarity(diffA, diffB string) bool {
	if diffA == "" || diffB == "" {
		log.Warn("similarity check skipped: empty diff input")
		return false
	}
	return Semantic(diffA) == Semantic(diffB)
}

// ExtractCodeChanges returns the contents of added/removed lines, stripped
// of their +/- prefix and trimmed, excluding file-header markers,
// comment-only lines and lines with fewer than 5 meaningful characters.
// The semantic fingerprint and similarity checks both build on this filter,
// so they can never diverge.
func ExtractCodeChanges(diffText string) []string {
	var changes []string
	for _, line := range strings.Split(diffText, "\n") {
		if len(line) == 0 {
			continue
		}
		if line[0] != '+' && line[0] != '-' {
			continue
		}
		// File header markers, not content changes.
		if strings.HasPrefix(line, "+++") || strings.HasPrefix(line, "---") {
			continue
		}
		content := strings.TrimSpace(line[1:])
		if len(content) < minMeaningfulChars {
			continue
		}
		if isCommentOnly(content) {
			continue
		}
		changes = append(changes, content)
	}
	return changes
}

// isCommentOnly reports whether a trimmed line is a comment for common
// comment syntaxes (C-style, hash, block continuation).
func isCommentOnly(content string) bool {
	return strings.HasPrefix(content, "//") ||
		strings.HasPrefix(content, "/*") ||
		strings.HasPrefix(content, "*") ||
		strings.HasPrefix(content, "#")
}

// touchedPaths extracts the post-image file paths from diff headers. Both
// "+++ b/<path>" and "diff --git a/<path> b/<path>" forms are recognized;
// duplicates are collapsed.
func touchedPaths(diffText string) []string {
	seen := make(map[string]bool)
	var paths []string
	for _, line := range strings.Split(diffText, "\n") {
		var path string
		if m := newFileHeaderRegex.FindStringSubmatch(line); m != nil {
			path = m[1]
		} else if m := diffGitHeaderRegex.FindStringSubmatch(line); m != nil {
			path = m[1]
		}
		if path == "" || seen[path] {
			continue
		}
		seen[path] = true
		paths = append(paths, path)
	}
	return paths
}

func shortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:shortLen]
}
