// Package analyze performs best-effort heuristic inspection of a diff:
// regex detection of touched functions, types, API routes and dependency
// manifests. The output feeds optional context into the commit prompt.
// Everything here is fuzzy by nature; the only hard guarantee is that
// analysis never fails on arbitrary input.
package analyze

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	funcRegex = regexp.MustCompile(`^[+-]\s*(?:export\s+)?(?:async\s+)?(?:func|function|def|fn)\s+([A-Za-z_][A-Za-z0-9_]*)`)
	typeRegex = regexp.MustCompile(`^[+-]\s*(?:export\s+)?(?:class|interface|trait)\s+([A-Za-z_][A-Za-z0-9_]*)|^[+-]\s*type\s+([A-Za-z_][A-Za-z0-9_]*)\s+(?:struct|interface)`)
	// Route registrations across common frameworks (net/http, express,
	// gin/echo style, Spring annotations).
	routeRegex = regexp.MustCompile(`(?i)^[+-].*(?:\.(?:get|post|put|patch|delete)\s*\(\s*["'` + "`" + `]([^"'` + "`" + `]+)|HandleFunc\s*\(\s*"([^"]+)"|@(?:Get|Post|Put|Patch|Delete)Mapping\s*\(\s*"?([^")]+))`)

	fileHeaderRegex = regexp.MustCompile(`^\+\+\+ b/(.+)$`)
)

// dependencyManifests are files whose changes usually mean a dependency
// bump rather than a code change.
var dependencyManifests = map[string]bool{
	"go.mod":            true,
	"go.sum":            true,
	"package.json":      true,
	"package-lock.json": true,
	"yarn.lock":         true,
	"requirements.txt":  true,
	"pyproject.toml":    true,
	"Cargo.toml":        true,
	"Gemfile":           true,
	"pom.xml":           true,
}

// Summary holds what the heuristics found in a diff.
type Summary struct {
	Functions       []string
	Types           []string
	Routes          []string
	DependencyFiles []string
	FilesTouched    int
}

// Empty reports whether nothing notable was detected.
func (s *Summary) Empty() bool {
	return len(s.Functions) == 0 && len(s.Types) == 0 &&
		len(s.Routes) == 0 && len(s.DependencyFiles) == 0
}

// Render formats the summary as a prompt context block. Returns "" for an
// empty summary.
func (s *Summary) Render() string {
	if s.Empty() {
		return ""
	}
	var b strings.Builder
	b.WriteString("## Detected Changes\n")
	if len(s.Functions) > 0 {
		fmt.Fprintf(&b, "- Functions touched: %s\n", strings.Join(s.Functions, ", "))
	}
	if len(s.Types) > 0 {
		fmt.Fprintf(&b, "- Types/classes touched: %s\n", strings.Join(s.Types, ", "))
	}
	if len(s.Routes) > 0 {
		fmt.Fprintf(&b, "- API routes touched: %s\n", strings.Join(s.Routes, ", "))
	}
	if len(s.DependencyFiles) > 0 {
		fmt.Fprintf(&b, "- Dependency manifests changed: %s\n", strings.Join(s.DependencyFiles, ", "))
	}
	return b.String()
}

// Diff scans diff text and returns a Summary. It never returns an error:
// unrecognizable input simply yields an empty summary.
func Diff(diffText string) *Summary {
	s := &Summary{}
	seenFuncs := make(map[string]bool)
	seenTypes := make(map[string]bool)
	seenRoutes := make(map[string]bool)
	seenDeps := make(map[string]bool)

	for _, line := range strings.Split(diffText, "\n") {
		if m := fileHeaderRegex.FindStringSubmatch(line); m != nil {
			s.FilesTouched++
			base := filepath.Base(m[1])
			if dependencyManifests[base] && !seenDeps[base] {
				seenDeps[base] = true
				s.DependencyFiles = append(s.DependencyFiles, base)
			}
			continue
		}
		if len(line) == 0 || (line[0] != '+' && line[0] != '-') {
			continue
		}
		if strings.HasPrefix(line, "+++") || strings.HasPrefix(line, "---") {
			continue
		}

		if m := funcRegex.FindStringSubmatch(line); m != nil {
			if name := m[1]; name != "" && !seenFuncs[name] {
				seenFuncs[name] = true
				s.Functions = append(s.Functions, name)
			}
			continue
		}
		if m := typeRegex.FindStringSubmatch(line); m != nil {
			name := m[1]
			if name == "" {
				name = m[2]
			}
			if name != "" && !seenTypes[name] {
				seenTypes[name] = true
				s.Types = append(s.Types, name)
			}
			continue
		}
		if m := routeRegex.FindStringSubmatch(line); m != nil {
			route := firstNonEmpty(m[1:])
			if route != "" && !seenRoutes[route] {
				seenRoutes[route] = true
				s.Routes = append(s.Routes, route)
			}
		}
	}
	return s
}

func firstNonEmpty(groups []string) string {
	for _, g := range groups {
		if g != "" {
			return g
		}
	}
	return ""
}
