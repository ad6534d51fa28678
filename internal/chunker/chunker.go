// Package chunker splits text into size-bounded chunks on natural boundaries.
package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]+`)

// Split breaks text into chunks of at most maxSize bytes, preferring
// blank-line paragraph boundaries and falling back to sentence boundaries for
// oversize paragraphs. A single sentence longer than maxSize is emitted whole
// rather than cut mid-sentence. Chunk order follows input order, and empty
// chunks are never emitted.
func Split(text string, maxSize int) []string {
	if maxSize <= 0 || strings.TrimSpace(text) == "" {
		return nil
	}

	var chunks []string
	current := ""

	for _, paragraph := range strings.Split(text, "\n\n") {
		candidate := paragraph
		if current != "" {
			candidate = current + "\n\n" + paragraph
		}
		if len(candidate) <= maxSize {
			current = candidate
			continue
		}

		if current != "" {
			chunks = append(chunks, current)
			current = ""
		}
		if len(paragraph) > maxSize {
			chunks = append(chunks, splitSentences(paragraph, maxSize)...)
		} else if paragraph != "" {
			current = paragraph
		}
	}

	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

// splitSentences applies the accumulate/flush rule at the sentence level.
func splitSentences(paragraph string, maxSize int) []string {
	sentences := sentencePattern.FindAllString(paragraph, -1)
	if len(sentences) == 0 {
		return []string{paragraph}
	}

	// Keep any trailing fragment without terminal punctuation so that the
	// chunks still concatenate back to the original paragraph.
	matched := 0
	for _, s := range sentences {
		matched += len(s)
	}
	if matched < len(paragraph) {
		sentences = append(sentences, paragraph[matched:])
	}

	var chunks []string
	current := ""
	for _, sentence := range sentences {
		if len(current)+len(sentence) <= maxSize {
			current += sentence
			continue
		}
		if current != "" {
			chunks = append(chunks, current)
		}
		current = sentence
	}
	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

// TruncateBytes cuts s to at most n bytes without splitting a UTF-8 sequence.
func TruncateBytes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	cut := s[:n]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}
