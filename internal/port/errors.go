package port

import (
	"errors"
	"fmt"
)

// Sentinel errors used across ports.
var (
	ErrVersionConflict = errors.New("document version conflict")
	ErrPageNotFound    = errors.New("page not found")
	ErrBotNotFound     = errors.New("meeting bot not found")
	ErrConfigNotFound  = errors.New("workspace configuration not found")
	ErrNoProjectKey    = errors.New("no tracker project key configured")
	ErrNoDocuments     = errors.New("no matching documents found")
)

// AnalysisError marks a terminal transcript-analysis failure: the LLM call
// itself failed, or its response did not match the required structure. The
// caller is expected to mark the owning meeting bot failed.
type AnalysisError struct {
	Reason string
	Err    error
}

func (e *AnalysisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transcript analysis failed: %s: %v", e.Reason, e.Err)
	}
	return "transcript analysis failed: " + e.Reason
}

func (e *AnalysisError) Unwrap() error { return e.Err }
