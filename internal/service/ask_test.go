package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teammind-ai/backend/internal/domain"
	"github.com/teammind-ai/backend/internal/port"
)

func askMatch(sourceID, url, text string, score float64) domain.RetrievalMatch {
	return domain.RetrievalMatch{
		ID:      "chunk-" + sourceID,
		Content: "chunk of " + sourceID,
		Metadata: domain.DocumentMetadata{
			SourceID: sourceID,
			URL:      url,
			Extra:    map[string]string{"text": text},
		},
		Similarity: score,
	}
}

func TestAskAnswersWithSources(t *testing.T) {
	ai := &fakeAI{completeFn: func(prompt string) (string, error) {
		if strings.Contains(prompt, "USER PROMPT:") {
			return "how do we roll back a deploy", nil
		}
		// The answering prompt carries the full stored text, not the chunk.
		assert.Contains(t, prompt, "full rollback runbook")
		assert.Contains(t, prompt, "https://wiki/p1")
		return "Run the rollback script. Sources: [1](https://wiki/p1)", nil
	}}
	retriever := &fakeRetriever{matches: []domain.RetrievalMatch{
		askMatch("p1", "https://wiki/p1", "full rollback runbook", 0.9),
		askMatch("p2", "https://wiki/p2", "deploy checklist", 0.7),
	}}
	svc := NewAskService(ai, retriever, noopReducer{})

	answer, sources, err := svc.Ask(context.Background(), "user-1", "how do I roll back?", nil)

	require.NoError(t, err)
	assert.Contains(t, answer, "rollback script")
	assert.Equal(t, []string{"https://wiki/p1", "https://wiki/p2"}, sources)
}

func TestAskCondenseFailureUsesRawPrompt(t *testing.T) {
	var answeredWith string
	ai := &fakeAI{completeFn: func(prompt string) (string, error) {
		if strings.Contains(prompt, "USER PROMPT:") {
			return "", errors.New("model busy")
		}
		answeredWith = prompt
		return "an answer", nil
	}}
	retriever := &fakeRetriever{matches: []domain.RetrievalMatch{
		askMatch("p1", "https://wiki/p1", "text", 0.5),
	}}
	svc := NewAskService(ai, retriever, noopReducer{})

	_, _, err := svc.Ask(context.Background(), "user-1", "what is the deploy window", nil)

	require.NoError(t, err)
	assert.Contains(t, answeredWith, "QUESTION: what is the deploy window")
}

func TestAskNoDocuments(t *testing.T) {
	ai := &fakeAI{completeFn: func(string) (string, error) { return "condensed", nil }}
	svc := NewAskService(ai, &fakeRetriever{}, noopReducer{})

	_, _, err := svc.Ask(context.Background(), "user-1", "anything", nil)

	assert.ErrorIs(t, err, port.ErrNoDocuments)
}

func TestAskRetrievalError(t *testing.T) {
	ai := &fakeAI{completeFn: func(string) (string, error) { return "condensed", nil }}
	svc := NewAskService(ai, &fakeRetriever{err: errors.New("db down")}, noopReducer{})

	_, _, err := svc.Ask(context.Background(), "user-1", "anything", nil)

	require.Error(t, err)
	assert.NotErrorIs(t, err, port.ErrNoDocuments)
}
