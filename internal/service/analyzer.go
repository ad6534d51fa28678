package service

import (
	"context"
	"encoding/json"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/teammind-ai/backend/internal/domain"
	"github.com/teammind-ai/backend/internal/port"
)

var whitespacePattern = regexp.MustCompile(`\s+`)

// Normalize flattens raw speech segments into a speaker/utterance transcript.
// Pure and deterministic: word lists are joined with single spaces,
// hyphen-spacing artifacts are fixed, repeated whitespace is collapsed, and
// the speaker set comes back sorted.
func Normalize(segments []domain.TranscriptSegment) domain.Transcript {
	transcript := domain.Transcript{
		Speakers:   []string{},
		Utterances: []domain.Utterance{},
	}
	if len(segments) == 0 {
		return transcript
	}

	seen := make(map[string]struct{})
	for _, segment := range segments {
		if _, ok := seen[segment.Speaker]; !ok {
			seen[segment.Speaker] = struct{}{}
			transcript.Speakers = append(transcript.Speakers, segment.Speaker)
		}

		words := make([]string, 0, len(segment.Words))
		for _, w := range segment.Words {
			words = append(words, w.Word)
		}
		text := strings.Join(words, " ")
		text = strings.ReplaceAll(text, " - ", "-")
		text = whitespacePattern.ReplaceAllString(text, " ")
		text = strings.TrimSpace(text)

		transcript.Utterances = append(transcript.Utterances, domain.Utterance{
			Speaker: segment.Speaker,
			Text:    text,
		})
	}
	sort.Strings(transcript.Speakers)
	return transcript
}

// Analyzer extracts a structured result from a normalized transcript.
type Analyzer struct {
	ai       port.AIProvider
	validate *validator.Validate
	timeout  time.Duration
}

// NewAnalyzer creates an analyzer with the given per-call timeout.
func NewAnalyzer(ai port.AIProvider, timeout time.Duration) *Analyzer {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Analyzer{
		ai:       ai,
		validate: validator.New(),
		timeout:  timeout,
	}
}

// Analyze makes exactly one LLM call and validates the response against the
// required structure. Any failure (transport, timeout, malformed JSON,
// missing field, bad priority or date) is a terminal *port.AnalysisError.
// No retry is attempted.
func (a *Analyzer) Analyze(ctx context.Context, transcript domain.Transcript) (*domain.AnalysisResult, error) {
	lines := make([]string, 0, len(transcript.Utterances))
	for _, u := range transcript.Utterances {
		lines = append(lines, u.Speaker+": "+u.Text)
	}
	prompt := strings.Replace(analysisTemplate, "{{TRANSCRIPT}}", strings.Join(lines, "\n"), 1)

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	response, err := a.ai.Complete(callCtx, prompt)
	if err != nil {
		return nil, &port.AnalysisError{Reason: "llm call failed", Err: err}
	}

	return a.parse(response)
}

// parse decodes and validates the LLM response. Invalid shapes fail hard;
// the result is never silently repaired.
func (a *Analyzer) parse(response string) (*domain.AnalysisResult, error) {
	var result domain.AnalysisResult
	if err := json.Unmarshal([]byte(stripFences(response)), &result); err != nil {
		return nil, &port.AnalysisError{Reason: "malformed response", Err: err}
	}
	if result.KeyPoints == nil {
		return nil, &port.AnalysisError{Reason: "missing keyPoints"}
	}
	if result.ActionItems == nil {
		return nil, &port.AnalysisError{Reason: "missing actionItems"}
	}
	if err := a.validate.Struct(&result); err != nil {
		return nil, &port.AnalysisError{Reason: "invalid structure", Err: err}
	}
	return &result, nil
}

// stripFences removes a markdown code fence some models wrap JSON output in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
