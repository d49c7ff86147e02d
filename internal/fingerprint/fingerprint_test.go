package fingerprint

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const sampleDiff = `diff --git a/test.js b/test.js
index 1234567..89abcde 100644
--- a/test.js
+++ b/test.js
@@ -1,2 +1,2 @@
-old line content
+new line content`

func TestExactKey_Deterministic(t *testing.T) {
	k1 := ExactKey(sampleDiff)
	k2 := ExactKey(sampleDiff)
	assert.Equal(t, k1, k2)
	assert.Len(t, k1, 64)
	assert.Equal(t, strings.ToLower(k1), k1)
}

func TestExactKey_EmptyInput(t *testing.T) {
	k := ExactKey("")
	assert.Len(t, k, 64)
	// sha256 of empty string is a well-known constant
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", k)
}

func TestSemantic_Deterministic(t *testing.T) {
	assert.Equal(t, Semantic(sampleDiff), Semantic(sampleDiff))
	assert.Len(t, Semantic(sampleDiff), 16)
}

func TestSemantic_IgnoresCommentsAndNoise(t *testing.T) {
	withComment := sampleDiff + "\n+// a new comment\n+\n+   "
	assert.Equal(t, Semantic(sampleDiff), Semantic(withComment))
}

func TestSemantic_SensitiveToCodeChanges(t *testing.T) {
	other := strings.Replace(sampleDiff, "+new line content", "+different line content", 1)
	assert.NotEqual(t, Semantic(sampleDiff), Semantic(other))
}

func TestSemantic_EmptyAfterFiltering(t *testing.T) {
	diff := "+++ b/a.go\n+// only a comment\n+ab"
	fp := Semantic(diff)
	assert.Len(t, fp, 16)
	assert.Equal(t, Semantic(""), fp)
}

func TestStructural_IndependentOfContent(t *testing.T) {
	sameFiles := strings.Replace(sampleDiff, "+new line content", "+totally other code", 1)
	assert.Equal(t, Structural(sampleDiff), Structural(sameFiles))

	otherFile := strings.ReplaceAll(sampleDiff, "test.js", "other.js")
	assert.NotEqual(t, Structural(sampleDiff), Structural(otherFile))
	// Renaming the file does not change what code changed.
	assert.Equal(t, Semantic(sampleDiff), Semantic(otherFile))
}

func TestStructural_OrderIndependent(t *testing.T) {
	ab := "+++ b/a.go\n+first change here\n+++ b/b.go\n+second change here"
	ba := "+++ b/b.go\n+second change here\n+++ b/a.go\n+first change here"
	assert.Equal(t, Structural(ab), Structural(ba))
}

func TestStructural_EmptyDiff(t *testing.T) {
	assert.Len(t, Structural(""), 16)
	assert.Len(t, Structural("no headers at all"), 16)
}

func TestQuickHash(t *testing.T) {
	assert.Equal(t, QuickHash("abc"), QuickHash("abc"))
	assert.NotEqual(t, QuickHash("abc"), QuickHash("abd"))
}

func TestValidateSimilarity(t *testing.T) {
	other := sampleDiff + "\n+// trailing comment"
	assert.True(t, ValidateSimilarity(sampleDiff, other))

	changed := strings.Replace(sampleDiff, "+new line content", "+changed code line", 1)
	assert.False(t, ValidateSimilarity(sampleDiff, changed))

	// Fail-safe: invalid input never panics, just misses.
	assert.False(t, ValidateSimilarity("", sampleDiff))
	assert.False(t, ValidateSimilarity(sampleDiff, ""))
}

func TestExtractCodeChanges(t *testing.T) {
	diff := `+++ b/a.go
--- a/a.go
+func Add(a, b int) int {
+// comment line
+# hash comment
+x}
-removed := compute(1, 2)
 context line stays out`

	changes := ExtractCodeChanges(diff)
	assert.Equal(t, []string{
		"func Add(a, b int) int {",
		"removed := compute(1, 2)",
	}, changes)
}
