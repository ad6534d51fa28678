package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teammind-ai/backend/internal/domain"
	"github.com/teammind-ai/backend/internal/port"
)

func segment(speaker string, words ...string) domain.TranscriptSegment {
	s := domain.TranscriptSegment{Speaker: speaker}
	for _, w := range words {
		s.Words = append(s.Words, domain.TranscriptWord{Word: w})
	}
	return s
}

func TestNormalize(t *testing.T) {
	got := Normalize([]domain.TranscriptSegment{
		segment("Zoe", "we", "ship", "on", "-", "friday"),
		segment("Ada", " let's ", "do", "it"),
		segment("Zoe", "agreed"),
	})

	assert.Equal(t, []string{"Ada", "Zoe"}, got.Speakers, "speakers sorted and unique")
	require.Len(t, got.Utterances, 3)
	assert.Equal(t, domain.Utterance{Speaker: "Zoe", Text: "we ship on-friday"}, got.Utterances[0])
	assert.Equal(t, domain.Utterance{Speaker: "Ada", Text: "let's do it"}, got.Utterances[1])
	assert.Equal(t, domain.Utterance{Speaker: "Zoe", Text: "agreed"}, got.Utterances[2])
}

func TestNormalizeEmpty(t *testing.T) {
	got := Normalize(nil)
	assert.Empty(t, got.Speakers)
	assert.Empty(t, got.Utterances)
}

func TestNormalizeDeterministic(t *testing.T) {
	segments := []domain.TranscriptSegment{
		segment("Bo", "one", "two"),
		segment("Al", "three"),
	}
	first := Normalize(segments)
	second := Normalize(segments)
	assert.Equal(t, first, second)
}

const validAnalysisJSON = `{
	"actionItems": [
		{"title": "Ship the release", "description": "Cut 2.4 and deploy", "priority": "High", "dueDate": "2026-09-05"}
	],
	"summary": "The team agreed to ship release 2.4 on Friday.",
	"keyPoints": ["release timing", "deploy owner"]
}`

func analyzeTranscript() domain.Transcript {
	return Normalize([]domain.TranscriptSegment{
		segment("Zoe", "we", "ship", "friday"),
	})
}

func TestAnalyzeValidResponse(t *testing.T) {
	ai := &fakeAI{completeFn: func(prompt string) (string, error) {
		assert.Contains(t, prompt, "Zoe: we ship friday")
		return "```json\n" + validAnalysisJSON + "\n```", nil
	}}
	a := NewAnalyzer(ai, time.Minute)

	got, err := a.Analyze(context.Background(), analyzeTranscript())

	require.NoError(t, err)
	assert.Equal(t, "The team agreed to ship release 2.4 on Friday.", got.Summary)
	require.Len(t, got.ActionItems, 1)
	assert.Equal(t, "Ship the release", got.ActionItems[0].Title)
}

func TestAnalyzeMalformedJSON(t *testing.T) {
	ai := &fakeAI{completeFn: func(string) (string, error) {
		return "I could not find any action items, sorry!", nil
	}}
	a := NewAnalyzer(ai, time.Minute)

	_, err := a.Analyze(context.Background(), analyzeTranscript())

	var analysisErr *port.AnalysisError
	require.ErrorAs(t, err, &analysisErr)
	assert.Equal(t, "malformed response", analysisErr.Reason)
}

func TestAnalyzeCallFailure(t *testing.T) {
	ai := &fakeAI{completeFn: func(string) (string, error) {
		return "", errors.New("connection refused")
	}}
	a := NewAnalyzer(ai, time.Minute)

	_, err := a.Analyze(context.Background(), analyzeTranscript())

	var analysisErr *port.AnalysisError
	require.ErrorAs(t, err, &analysisErr)
}

func TestAnalyzeRejectsBadStructure(t *testing.T) {
	cases := map[string]string{
		"missing summary":     `{"actionItems": [], "keyPoints": ["a"]}`,
		"missing keyPoints":   `{"actionItems": [], "summary": "s"}`,
		"missing actionItems": `{"summary": "s", "keyPoints": ["a"]}`,
		"bad priority":        `{"actionItems": [{"title": "t", "description": "d", "priority": "Urgent"}], "summary": "s", "keyPoints": []}`,
		"bad due date":        `{"actionItems": [{"title": "t", "description": "d", "dueDate": "next week"}], "summary": "s", "keyPoints": []}`,
		"untitled item":       `{"actionItems": [{"description": "d"}], "summary": "s", "keyPoints": []}`,
	}
	for name, response := range cases {
		t.Run(name, func(t *testing.T) {
			ai := &fakeAI{completeFn: func(string) (string, error) { return response, nil }}
			a := NewAnalyzer(ai, time.Minute)

			_, err := a.Analyze(context.Background(), analyzeTranscript())

			var analysisErr *port.AnalysisError
			require.ErrorAs(t, err, &analysisErr, "invalid shapes must fail, never be repaired")
		})
	}
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences(`{"a":1}`))
}
