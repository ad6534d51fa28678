package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/teammind-ai/backend/internal/chunker"
	"github.com/teammind-ai/backend/internal/port"
)

// SummarizerConfig tunes the map/reduce compression pipeline.
type SummarizerConfig struct {
	// SoftBudget is the length (prompt included) under which a document is
	// returned unchanged, and the truncation length of the last-resort
	// fallback.
	SoftBudget int
	// FinalPassLimit is the joined-result length above which one extra
	// summarization pass runs. There are never more than two passes.
	FinalPassLimit int
	// MaxParallel bounds how many chunk summaries are in flight at once.
	MaxParallel int
	// CallTimeout bounds each individual LLM call.
	CallTimeout time.Duration
}

// Summarizer compresses text under a byte budget via rate-limited map/reduce
// summarization. Compression is best-effort: every failure path degrades to
// returning input text, never an error.
type Summarizer struct {
	ai      port.AIProvider
	limiter *rate.Limiter
	cfg     SummarizerConfig
}

// NewSummarizer creates a summarizer. The limiter enforces the minimum
// spacing between LLM calls and is shared process-wide: pass the same
// instance to every component that issues summarization calls.
func NewSummarizer(ai port.AIProvider, limiter *rate.Limiter, cfg SummarizerConfig) *Summarizer {
	if cfg.SoftBudget <= 0 {
		cfg.SoftBudget = 8000
	}
	if cfg.FinalPassLimit <= 0 {
		cfg.FinalPassLimit = 10000
	}
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = 4
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 2 * time.Minute
	}
	return &Summarizer{ai: ai, limiter: limiter, cfg: cfg}
}

// Summarize compresses one chunk of text, optionally guided by an inquiry.
// The result never exceeds the input length; on any failure (including
// timeout) the original text comes back unchanged.
func (s *Summarizer) Summarize(ctx context.Context, text, inquiry string) string {
	if err := s.limiter.Wait(ctx); err != nil {
		return text
	}

	prompt := buildSummaryPrompt(text, inquiry)

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()

	result, err := s.ai.Complete(callCtx, prompt)
	if err != nil {
		slog.Warn("summarization failed, keeping original text", "error", err, "length", len(text))
		return text
	}
	result = strings.TrimSpace(result)
	if result == "" || len(result) > len(text) {
		return text
	}
	return result
}

// Reduce compresses a document under the soft budget. Short documents are
// returned unchanged without any external call. Long documents are chunked,
// map-summarized in parallel (order preserved), joined, and given at most one
// extra pass. A failure anywhere degrades to a byte truncation of the
// original at the soft budget.
func (s *Summarizer) Reduce(ctx context.Context, document, inquiry string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("reduce pipeline panicked, falling back to truncation", "panic", r)
			result = chunker.TruncateBytes(document, s.cfg.SoftBudget)
		}
	}()

	templateLen := len(templateFor(inquiry))
	if len(document)+templateLen <= s.cfg.SoftBudget {
		return document
	}

	slog.Info("document requires summarization", "length", len(document))

	chunks := chunker.Split(document, s.cfg.SoftBudget-templateLen-1)
	if len(chunks) == 0 {
		return document
	}

	// Map phase: bounded parallelism, results slotted by index so output
	// order always matches input order.
	results := make([]string, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxParallel)
	for i, chunk := range chunks {
		g.Go(func() error {
			results[i] = s.Summarize(gctx, chunk, inquiry)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; Summarize degrades instead

	joined := strings.Join(results, "\n\n")

	if len(joined)+templateLen > s.cfg.FinalPassLimit {
		slog.Info("final summarization pass needed", "length", len(joined))
		joined = s.Summarize(ctx, joined, inquiry)
	}

	return joined
}

func templateFor(inquiry string) string {
	if inquiry != "" {
		return summarizerInquiryTemplate
	}
	return summarizerDocumentTemplate
}

func buildSummaryPrompt(text, inquiry string) string {
	if inquiry != "" {
		prompt := strings.Replace(summarizerInquiryTemplate, "{inquiry}", inquiry, 1)
		return strings.Replace(prompt, "{document}", text, 1)
	}
	return strings.Replace(summarizerDocumentTemplate, "{document}", text, 1)
}
