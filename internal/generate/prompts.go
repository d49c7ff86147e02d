package generate

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"github.com/gitquill/gitquill/internal/diffchunk"
)

// systemPromptTemplate is the system prompt for commit message generation
const systemPromptTemplate = `You are a Git commit message generator. Your task is to analyze code changes and generate commit messages following the Conventional Commits specification.

## Conventional Commits Format
<type>[optional scope]: <description>

[optional body]

[optional footer(s)]

## Types
- feat: A new feature
- fix: A bug fix
- docs: Documentation only changes
- style: Changes that do not affect the meaning of the code
- refactor: A code change that neither fixes a bug nor adds a feature
- perf: A code change that improves performance
- test: Adding missing tests or correcting existing tests
- chore: Changes to the build process or auxiliary tools
- build: Changes to the build system or external dependencies
- ci: Changes to CI configuration files and scripts
- revert: Reverts a previous commit

## Rules
1. The description should be concise (50 chars or less preferred)
2. Use imperative mood ("add" not "added")
3. Do not end the description with a period
4. The body should explain what and why (not how)

## Output Language
Generate the commit messages in: {{.Language}}

{{if .Context}}
## Additional Context
The developer has provided the following context for this change:
"{{.Context}}"

Please consider this context when generating the commit messages. It provides important information that may not be obvious from the code diff alone.
{{end}}
## Output Format
Respond with exactly {{.Candidates}} candidate commit messages as a numbered list:

1. <first candidate>
2. <second candidate>
3. <third candidate>

Each candidate is a complete commit message. If a candidate needs a body, indent its body lines under the number. Do NOT add any commentary before or after the list.
`

// chunkSummaryPrompt asks for a one-paragraph summary of a single diff chunk.
// Used in multi-chunk mode before the synthesis call.
const chunkSummaryPrompt = `You are a code change summarizer. You will receive one part of a larger Git diff. Summarize WHAT changed in this part in 2-4 sentences: files, functions, behavior. Be factual and terse. Do not generate a commit message yet.`

// synthesisPromptTemplate combines per-chunk summaries into final candidates.
const synthesisPromptTemplate = `You are a Git commit message generator. You will receive summaries of the parts of a single large Git diff. Combine them into commit messages following the Conventional Commits specification (imperative mood, <=50 char subject, optional body explaining what and why).

## Output Language
Generate the commit messages in: {{.Language}}

{{if .Context}}
## Additional Context
"{{.Context}}"
{{end}}
## Output Format
Respond with exactly {{.Candidates}} candidate commit messages as a numbered list. Do NOT add any commentary before or after the list.
`

type promptData struct {
	Language   string
	Context    string
	Candidates int
}

func renderTemplate(raw string, data promptData) string {
	tmpl, err := template.New("prompt").Parse(raw)
	if err != nil {
		return raw
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return raw
	}
	return buf.String()
}

// buildSystemPrompt renders the commit generation system prompt.
func buildSystemPrompt(language, context string, candidates int) string {
	return renderTemplate(systemPromptTemplate, promptData{
		Language:   language,
		Context:    context,
		Candidates: candidates,
	})
}

// buildSynthesisPrompt renders the system prompt for the synthesis call.
func buildSynthesisPrompt(language, context string, candidates int) string {
	return renderTemplate(synthesisPromptTemplate, promptData{
		Language:   language,
		Context:    context,
		Candidates: candidates,
	})
}

// buildUserMessage formats one diff unit into the user turn. For chunked
// diffs it carries a position preamble so the model knows which slice of
// the change it is looking at.
func buildUserMessage(unit diffchunk.Unit, annotations string) string {
	var b strings.Builder

	if unit.TotalChunks > 1 {
		b.WriteString(fmt.Sprintf("This is part %d of %d of a large diff", unit.ChunkIndex+1, unit.TotalChunks))
		switch unit.Position {
		case diffchunk.PositionInitial:
			b.WriteString(" (the beginning of the change).\n\n")
		case diffchunk.PositionFinal:
			b.WriteString(" (the end of the change).\n\n")
		default:
			b.WriteString(" (a middle section of the change).\n\n")
		}
	} else {
		b.WriteString("Please analyze the following staged changes and generate the commit messages.\n\n")
	}

	if annotations != "" {
		b.WriteString(annotations)
		b.WriteString("\n")
	}

	b.WriteString("## Staged Changes (Diff)\n")
	b.WriteString("```diff\n")
	b.WriteString(unit.Content)
	b.WriteString("\n```\n")

	return b.String()
}

// buildSynthesisMessage formats the per-chunk summaries for the final call.
func buildSynthesisMessage(summaries []string) string {
	var b strings.Builder
	b.WriteString("The diff was split into parts. Here is what each part changed:\n\n")
	for i, s := range summaries {
		fmt.Fprintf(&b, "## Part %d of %d\n%s\n\n", i+1, len(summaries), strings.TrimSpace(s))
	}
	b.WriteString("Generate the commit messages for the change as a whole.\n")
	return b.String()
}

var candidateStartRegex = regexp.MustCompile(`^\s*(\d+)[.)]\s+(.*)$`)

// parseCandidates extracts commit message candidates from a numbered-list
// response. Continuation lines (bodies) attach to the preceding candidate.
// If no numbered list is found, the whole trimmed content is returned as a
// single candidate.
func parseCandidates(content string) []string {
	content = stripCodeFences(content)

	var candidates []string
	current := -1

	for _, line := range strings.Split(content, "\n") {
		if m := candidateStartRegex.FindStringSubmatch(line); m != nil {
			candidates = append(candidates, strings.TrimSpace(m[2]))
			current = len(candidates) - 1
			continue
		}
		if current >= 0 {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				// Preserve paragraph breaks inside a candidate body.
				if candidates[current] != "" && !strings.HasSuffix(candidates[current], "\n") {
					candidates[current] += "\n"
				}
				continue
			}
			candidates[current] += "\n" + trimmed
		}
	}

	for i := range candidates {
		candidates[i] = strings.TrimSpace(candidates[i])
	}

	if len(candidates) == 0 {
		if trimmed := strings.TrimSpace(content); trimmed != "" {
			return []string{trimmed}
		}
		return nil
	}
	return candidates
}

// stripCodeFences removes markdown code fences the model may wrap the
// list in despite instructions.
func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return content
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return content
	}
	// Drop the opening fence (possibly with a language tag) and a
	// trailing fence if present.
	lines = lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
