// Package generate turns a staged diff into candidate commit messages.
// It sizes the diff, consults the cache, calls the configured chat model
// with bounded retries, and writes fresh results back through the cache.
package generate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/gitquill/gitquill/internal/analyze"
	"github.com/gitquill/gitquill/internal/cache"
	"github.com/gitquill/gitquill/internal/diffchunk"
	"github.com/gitquill/gitquill/internal/llm"
	"github.com/gitquill/gitquill/internal/log"
	"github.com/gitquill/gitquill/internal/retry"
	"github.com/gitquill/gitquill/internal/ui"
)

// defaultCandidates is how many commit message candidates one generation
// produces.
const defaultCandidates = 3

// Options configures a Service.
type Options struct {
	Provider llm.Provider      // LLM provider (required)
	Cache    *cache.Cache      // Result cache (optional; nil disables caching)
	Language string            // Output language (default: "en")
	Printer  *ui.StreamPrinter // Progress output (optional)

	Chunk diffchunk.Options // Diff size budgets
	Retry retry.Config      // Retry policy for model calls

	// FastLookup enables the key-only memory lookup before the validated
	// cache path. Off by default: it skips fingerprint verification.
	FastLookup bool
}

// Validate validates the options and sets defaults.
func (o *Options) Validate() error {
	if o.Provider == nil {
		return fmt.Errorf("LLM provider is required")
	}
	if o.Language == "" {
		o.Language = "en"
	}
	if o.Retry.MaxAttempts == 0 {
		o.Retry = retry.DefaultConfig()
	}
	return nil
}

// Request is one generation request.
type Request struct {
	Diff    string // Staged diff text (required)
	Context string // Developer-provided context (optional)
}

// Result holds the generated candidates and call metadata.
type Result struct {
	Messages  []string // Candidate commit messages, best first
	FromCache bool     // True when served from the cache without a model call

	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Service generates commit messages for staged diffs.
type Service struct {
	opts Options

	// chatModel is injected by tests; production code creates it from the
	// provider on first use.
	chatModel model.ChatModel
}

// New creates a Service from options.
func New(opts Options) (*Service, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	return &Service{opts: opts}, nil
}

func newWithChatModel(opts Options, cm model.ChatModel) (*Service, error) {
	s, err := New(opts)
	if err != nil {
		return nil, err
	}
	s.chatModel = cm
	return s, nil
}

// Generate produces candidate commit messages for req.Diff. The cache is
// consulted first; a hit returns without touching the model. Fresh results
// are written back through the cache best-effort.
func (s *Service) Generate(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Diff) == "" {
		return nil, fmt.Errorf("no staged changes found")
	}

	if msgs := s.lookupCache(req.Diff); len(msgs) > 0 {
		s.printInfo("Using cached commit messages")
		return &Result{Messages: msgs, FromCache: true}, nil
	}

	units := diffchunk.Prepare(req.Diff, s.opts.Chunk)
	log.Debug("Diff prepared: %d unit(s), strategy=%s", len(units), units[0].Strategy)

	cm, err := s.model(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	annotations := analyze.Diff(req.Diff).Render()

	start := time.Now()
	result, err := s.generate(ctx, cm, req, units, annotations)
	if err != nil {
		return nil, err
	}
	log.DebugDuration("commit message generation", time.Since(start))

	if s.opts.Cache != nil && len(result.Messages) > 0 {
		s.opts.Cache.SetValidated(req.Diff, result.Messages)
	}
	return result, nil
}

// lookupCache runs the tiered lookup: optional ultra-fast key-only check,
// then the fingerprint-validated path, then similarity fallback.
func (s *Service) lookupCache(diff string) []string {
	if s.opts.Cache == nil {
		return nil
	}
	if s.opts.FastLookup {
		if msgs := s.opts.Cache.GetUltraFast(diff); len(msgs) > 0 {
			return msgs
		}
	}
	if msgs := s.opts.Cache.GetValidated(diff); len(msgs) > 0 {
		return msgs
	}
	return s.opts.Cache.FindSimilar(diff)
}

func (s *Service) model(ctx context.Context) (model.ChatModel, error) {
	if s.chatModel != nil {
		return s.chatModel, nil
	}
	providerName := s.opts.Provider.Name()
	modelName := s.opts.Provider.GetConfig().Model
	s.printProgress(fmt.Sprintf("Initializing LLM provider (%s/%s)...", providerName, modelName))
	log.Debug("Using LLM: provider=%s, model=%s", providerName, modelName)

	cm, err := s.opts.Provider.CreateChatModel(ctx)
	if err != nil {
		return nil, err
	}
	if cm == nil {
		return nil, fmt.Errorf("chat model is nil (provider: %s)", providerName)
	}
	s.chatModel = cm
	return cm, nil
}

func (s *Service) generate(ctx context.Context, cm model.ChatModel, req Request, units []diffchunk.Unit, annotations string) (*Result, error) {
	result := &Result{}

	if len(units) == 1 {
		system := buildSystemPrompt(s.opts.Language, req.Context, defaultCandidates)
		user := buildUserMessage(units[0], annotations)

		content, err := s.call(ctx, cm, system, user, result)
		if err != nil {
			return nil, fmt.Errorf("LLM request failed: %w", err)
		}
		result.Messages = parseCandidates(content)
		if len(result.Messages) == 0 {
			return nil, fmt.Errorf("failed to generate commit message: empty response from LLM")
		}
		return result, nil
	}

	// Multi-chunk: summarize each chunk, then synthesize candidates from
	// the summaries.
	s.printProgress(fmt.Sprintf("Large diff: summarizing %d chunks...", len(units)))
	summaries := make([]string, 0, len(units))
	for _, unit := range units {
		s.printThinking(fmt.Sprintf("Summarizing part %d/%d", unit.ChunkIndex+1, unit.TotalChunks))
		content, err := s.call(ctx, cm, chunkSummaryPrompt, buildUserMessage(unit, ""), result)
		if err != nil {
			return nil, fmt.Errorf("chunk %d/%d summary failed: %w", unit.ChunkIndex+1, unit.TotalChunks, err)
		}
		summaries = append(summaries, content)
	}

	system := buildSynthesisPrompt(s.opts.Language, req.Context, defaultCandidates)
	user := buildSynthesisMessage(summaries)
	if annotations != "" {
		user = annotations + "\n" + user
	}
	content, err := s.call(ctx, cm, system, user, result)
	if err != nil {
		return nil, fmt.Errorf("synthesis request failed: %w", err)
	}
	result.Messages = parseCandidates(content)
	if len(result.Messages) == 0 {
		return nil, fmt.Errorf("failed to generate commit message: empty response from LLM")
	}
	return result, nil
}

// call performs one chat completion under the retry policy and folds token
// usage into result.
func (s *Service) call(ctx context.Context, cm model.ChatModel, system, user string, result *Result) (string, error) {
	messages := []*schema.Message{
		{Role: schema.System, Content: system},
		{Role: schema.User, Content: user},
	}

	resp, err := retry.WithRetryResult(ctx, s.opts.Retry, func() (*schema.Message, error) {
		return cm.Generate(ctx, messages)
	})
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", fmt.Errorf("nil response from LLM")
	}

	if resp.ResponseMeta != nil && resp.ResponseMeta.Usage != nil {
		usage := resp.ResponseMeta.Usage
		result.PromptTokens += usage.PromptTokens
		result.CompletionTokens += usage.CompletionTokens
		result.TotalTokens += usage.TotalTokens
	}
	return resp.Content, nil
}

func (s *Service) printProgress(msg string) {
	if s.opts.Printer != nil {
		_ = s.opts.Printer.PrintProgress(msg)
	}
	log.Debug("%s", msg)
}

func (s *Service) printThinking(msg string) {
	if s.opts.Printer != nil {
		_ = s.opts.Printer.PrintThinking(msg)
	}
	log.Debug("%s", msg)
}

func (s *Service) printInfo(msg string) {
	if s.opts.Printer != nil {
		_ = s.opts.Printer.PrintInfo(msg)
	}
	log.Debug("%s", msg)
}
