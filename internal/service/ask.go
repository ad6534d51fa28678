package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/teammind-ai/backend/internal/domain"
	"github.com/teammind-ai/backend/internal/port"
)

// AskService answers questions against a user's ingested documents.
type AskService struct {
	ai        port.AIProvider
	retriever documentRetriever
	reduce    reducer
}

// NewAskService creates an ask service.
func NewAskService(ai port.AIProvider, retriever documentRetriever, reduce reducer) *AskService {
	return &AskService{ai: ai, retriever: retriever, reduce: reduce}
}

// contextBlock is one retrieved document as presented to the answering prompt.
type contextBlock struct {
	Text  string  `json:"text"`
	URL   string  `json:"url"`
	Score float64 `json:"score"`
}

// Ask condenses the prompt into a standalone inquiry, retrieves matching
// documents, compresses each under the prompt budget, and asks the model for a
// sourced answer. The returned sources are the URLs of the documents the
// answer drew on, in relevance order.
func (a *AskService) Ask(ctx context.Context, userID, prompt string, history []string) (string, []string, error) {
	inquiry := a.condense(ctx, prompt, history)

	matches, err := a.retriever.Retrieve(ctx, userID, inquiry)
	if err != nil {
		return "", nil, fmt.Errorf("retrieve documents: %w", err)
	}
	if len(matches) == 0 {
		return "", nil, port.ErrNoDocuments
	}

	blocks := make([]contextBlock, 0, len(matches))
	sources := make([]string, 0, len(matches))
	for _, m := range matches {
		text := a.documentText(m)
		blocks = append(blocks, contextBlock{
			Text:  a.reduce.Reduce(ctx, text, inquiry),
			URL:   m.Metadata.URL,
			Score: m.Similarity,
		})
		if m.Metadata.URL != "" {
			sources = append(sources, m.Metadata.URL)
		}
	}

	summaries, err := json.Marshal(blocks)
	if err != nil {
		return "", nil, fmt.Errorf("encode context: %w", err)
	}

	qa := strings.Replace(qaTemplate, "{conversationHistory}", strings.Join(history, "\n"), 1)
	qa = strings.Replace(qa, "{summaries}", string(summaries), 1)
	qa = strings.Replace(qa, "{question}", inquiry, 1)
	qa = strings.Replace(qa, "{urls}", strings.Join(sources, "\n"), 1)

	answer, err := a.ai.Complete(ctx, qa)
	if err != nil {
		return "", nil, fmt.Errorf("answer question: %w", err)
	}
	return strings.TrimSpace(answer), sources, nil
}

// condense reformulates the prompt as a standalone knowledge-base question.
// On any failure the raw prompt is used as-is.
func (a *AskService) condense(ctx context.Context, prompt string, history []string) string {
	p := strings.Replace(inquiryTemplate, "{userPrompt}", prompt, 1)
	p = strings.Replace(p, "{conversationHistory}", strings.Join(history, "\n"), 1)

	inquiry, err := a.ai.Complete(ctx, p)
	if err != nil {
		slog.Warn("inquiry condensation failed, using raw prompt", "error", err)
		return prompt
	}
	inquiry = strings.TrimSpace(inquiry)
	if inquiry == "" {
		return prompt
	}
	return inquiry
}

// documentText prefers the full stored page text over the chunk that matched,
// so the answer sees surrounding context.
func (a *AskService) documentText(m domain.RetrievalMatch) string {
	if full, ok := m.Metadata.Extra["text"]; ok && full != "" {
		return full
	}
	return m.Content
}
