// Package diffchunk keeps diff text within downstream size budgets. Small
// diffs pass through untouched; oversized diffs are truncated with headers
// and changed lines kept in preference to context; very large diffs are
// split into bounded chunks at file boundaries.
package diffchunk

import (
	"regexp"
	"strings"
)

// Position tags where a chunk sits in the original diff so prompts can tell
// the model it is looking at a partial view.
type Position string

const (
	PositionInitial Position = "initial"
	PositionMiddle  Position = "middle"
	PositionFinal   Position = "final"
)

// Strategy records how a unit was produced.
type Strategy string

const (
	// StrategyFull means the diff fit the budget and was not modified.
	StrategyFull Strategy = "full"
	// StrategyTruncated means lines were dropped to fit the budget.
	StrategyTruncated Strategy = "truncated"
	// StrategyChunked means the diff was split into multiple units.
	StrategyChunked Strategy = "chunked"
)

// Truncation markers. Callers and prompts can detect lossy processing by
// their presence.
const (
	TruncatedDiffMarker     = "... (diff truncated for size)"
	importTruncatedSuffix   = "... [import statement truncated]"
	declTruncatedSuffix     = "... [function/class truncated]"
	longLineTruncatedSuffix = "... [Long line truncated]"
)

// Prefix lengths kept when truncating recognized long lines. Imports keep
// less because the module path tail rarely matters; declarations keep more
// so the signature survives.
const (
	importKeepChars = 120
	declKeepChars   = 200
)

// Unit is a bounded piece of diff text ready for fingerprinting and prompt
// assembly. A single-unit result has TotalChunks == 1 and no position tag.
type Unit struct {
	Content     string
	ChunkIndex  int
	TotalChunks int
	Position    Position
	Strategy    Strategy
}

// Options control the size budgets. Zero values fall back to defaults.
type Options struct {
	// MaxChunkSize is the per-unit character budget.
	MaxChunkSize int
	// MaxDiffLines caps how many lines survive truncation.
	MaxDiffLines int
	// MaxLineLength is the per-line character cap applied before bucketing.
	MaxLineLength int
	// ChunkThreshold is the input size above which the diff is split into
	// multiple units instead of truncated to a single one.
	ChunkThreshold int
}

// Defaults mirror a ~4000 character provider budget.
const (
	DefaultMaxChunkSize  = 4000
	DefaultMaxDiffLines  = 1000
	DefaultMaxLineLength = 300
)

func (o Options) withDefaults() Options {
	if o.MaxChunkSize <= 0 {
		o.MaxChunkSize = DefaultMaxChunkSize
	}
	if o.MaxDiffLines <= 0 {
		o.MaxDiffLines = DefaultMaxDiffLines
	}
	if o.MaxLineLength <= 0 {
		o.MaxLineLength = DefaultMaxLineLength
	}
	if o.ChunkThreshold <= 0 {
		o.ChunkThreshold = 3 * o.MaxChunkSize
	}
	return o
}

var (
	importLineRegex = regexp.MustCompile(`^[+\- ]?\s*(import\s|from\s.+\simport\s|require\s*\(|#include\s|use\s)`)
	declLineRegex   = regexp.MustCompile(`^[+\- ]?\s*(func\s|function\s|class\s|def\s|type\s.+\s(struct|interface)\s|interface\s|impl\s)`)
)

// Prepare bounds diffText to the configured budgets and returns the units
// to process. The common case (diff within budget) returns the input
// unchanged as a single full unit. Prepare never returns an empty slice
// for non-empty input and never panics on malformed input. It is
// idempotent: feeding a produced unit's content back with the same options
// returns it unchanged.
func Prepare(diffText string, opts Options) []Unit {
	opts = opts.withDefaults()

	if len(diffText) <= opts.MaxChunkSize {
		return []Unit{{Content: diffText, TotalChunks: 1, Strategy: StrategyFull}}
	}

	if len(diffText) <= opts.ChunkThreshold {
		truncated := truncate(diffText, opts)
		return []Unit{{Content: truncated, TotalChunks: 1, Strategy: StrategyTruncated}}
	}

	return chunk(diffText, opts)
}

// lineKind classifies a diff line for truncation priority.
type lineKind int

const (
	kindHeader lineKind = iota
	kindChange
	kindContext
)

func classifyLine(line string) lineKind {
	switch {
	case strings.HasPrefix(line, "diff --git"),
		strings.HasPrefix(line, "index "),
		strings.HasPrefix(line, "--- "),
		strings.HasPrefix(line, "+++ "),
		strings.HasPrefix(line, "@@"),
		strings.HasPrefix(line, "new file mode"),
		strings.HasPrefix(line, "deleted file mode"),
		strings.HasPrefix(line, "rename from"),
		strings.HasPrefix(line, "rename to"),
		strings.HasPrefix(line, "Binary files"):
		return kindHeader
	case strings.HasPrefix(line, "+"), strings.HasPrefix(line, "-"):
		return kindChange
	default:
		return kindContext
	}
}

// capLine bounds a single line to maxLen, replacing the overflow with a
// marker that identifies what kind of content was cut.
func capLine(line string, maxLen int) string {
	if len(line) <= maxLen {
		return line
	}
	switch {
	case importLineRegex.MatchString(line):
		return line[:min(importKeepChars, len(line))] + importTruncatedSuffix
	case declLineRegex.MatchString(line):
		return line[:min(declKeepChars, len(line))] + declTruncatedSuffix
	default:
		return line[:maxLen] + longLineTruncatedSuffix
	}
}

// truncate reassembles the diff under the budget, keeping all headers
// first, then as many change lines as fit, then context. Lines keep their
// original relative order. A marker line is appended whenever anything was
// dropped.
func truncate(diffText string, opts Options) string {
	lines := strings.Split(diffText, "\n")

	type classified struct {
		index int
		text  string
		kind  lineKind
	}
	all := make([]classified, 0, len(lines))
	for i, line := range lines {
		capped := capLine(line, opts.MaxLineLength)
		all = append(all, classified{index: i, text: capped, kind: classifyLine(capped)})
	}

	budget := opts.MaxChunkSize - len(TruncatedDiffMarker) - 1
	lineBudget := opts.MaxDiffLines

	keep := make(map[int]bool, len(all))
	used := 0
	kept := 0
	dropped := false

	// Headers, then changes, then context. Within a pass, earlier lines win.
	for _, wantKind := range []lineKind{kindHeader, kindChange, kindContext} {
		for _, c := range all {
			if c.kind != wantKind {
				continue
			}
			cost := len(c.text) + 1
			if used+cost > budget || kept >= lineBudget {
				dropped = true
				continue
			}
			keep[c.index] = true
			used += cost
			kept++
		}
	}

	var out []string
	for _, c := range all {
		if keep[c.index] {
			out = append(out, c.text)
		}
	}
	if dropped || len(out) < len(all) {
		out = append(out, TruncatedDiffMarker)
	}
	if len(out) == 0 {
		// Pathological budget: keep at least a marker so output is non-empty.
		return TruncatedDiffMarker
	}
	return strings.Join(out, "\n")
}

// chunk splits the diff into units of at most MaxChunkSize characters,
// preferring "diff --git" file boundaries as split points. File sections
// that are themselves over budget are split by lines, and a single line
// longer than the budget is hard-split into fixed-size character segments
// as the last resort.
func chunk(diffText string, opts Options) []Unit {
	sections := splitFileSections(diffText)

	var parts []string
	var current strings.Builder
	flush := func() {
		part := strings.TrimSuffix(current.String(), "\n")
		current.Reset()
		if part != "" {
			parts = append(parts, part)
		}
	}

	for _, section := range sections {
		if current.Len() > 0 && current.Len()+len(section) > opts.MaxChunkSize {
			flush()
		}
		if len(section) > opts.MaxChunkSize {
			flush()
			parts = append(parts, splitByLines(section, opts.MaxChunkSize)...)
			continue
		}
		current.WriteString(section)
		current.WriteString("\n")
	}
	flush()

	if len(parts) == 0 {
		parts = hardSplit(diffText, opts.MaxChunkSize)
	}

	units := make([]Unit, len(parts))
	for i, part := range parts {
		units[i] = Unit{
			Content:     part,
			ChunkIndex:  i,
			TotalChunks: len(parts),
			Position:    positionFor(i, len(parts)),
			Strategy:    StrategyChunked,
		}
	}
	return units
}

// splitFileSections cuts the diff at "diff --git" headers. Content before
// the first header (or a diff with no headers) forms its own section.
func splitFileSections(diffText string) []string {
	lines := strings.Split(diffText, "\n")
	var sections []string
	var current []string
	for _, line := range lines {
		if strings.HasPrefix(line, "diff --git") && len(current) > 0 {
			sections = append(sections, strings.Join(current, "\n"))
			current = current[:0]
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		sections = append(sections, strings.Join(current, "\n"))
	}
	return sections
}

// splitByLines packs lines into parts of at most maxSize characters.
// Individual lines over the budget are hard-split.
func splitByLines(text string, maxSize int) []string {
	var parts []string
	var current strings.Builder
	flush := func() {
		part := strings.TrimSuffix(current.String(), "\n")
		current.Reset()
		if part != "" {
			parts = append(parts, part)
		}
	}

	for _, line := range strings.Split(text, "\n") {
		if len(line) > maxSize {
			flush()
			parts = append(parts, hardSplit(line, maxSize)...)
			continue
		}
		if current.Len()+len(line)+1 > maxSize {
			flush()
		}
		current.WriteString(line)
		current.WriteString("\n")
	}
	flush()
	return parts
}

// hardSplit cuts text into fixed-size character segments. No attempt is
// made to preserve semantics at this granularity.
func hardSplit(text string, maxSize int) []string {
	if maxSize <= 0 {
		return []string{text}
	}
	var parts []string
	for len(text) > maxSize {
		parts = append(parts, text[:maxSize])
		text = text[maxSize:]
	}
	if len(text) > 0 {
		parts = append(parts, text)
	}
	return parts
}

func positionFor(index, total int) Position {
	switch {
	case index == 0:
		return PositionInitial
	case index == total-1:
		return PositionFinal
	default:
		return PositionMiddle
	}
}
