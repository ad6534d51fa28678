package domain

// ActionItem is one task extracted from a meeting transcript. Produced only
// by the analyzer; consumed by the synchronizer and the task emitter.
type ActionItem struct {
	Title       string `json:"title"       validate:"required"`
	Description string `json:"description" validate:"required"`
	Assignee    string `json:"assignee,omitempty"`
	Priority    string `json:"priority,omitempty" validate:"omitempty,oneof=High Medium Low"`
	DueDate     string `json:"dueDate,omitempty"  validate:"omitempty,datetime=2006-01-02"`
}

// AnalysisResult is the structured output of one transcript analysis. It has
// no existence outside the webhook invocation that created it.
type AnalysisResult struct {
	Summary     string       `json:"summary"   validate:"required"`
	KeyPoints   []string     `json:"keyPoints"`
	Decisions   []string     `json:"decisions,omitempty"`
	ActionItems []ActionItem `json:"actionItems" validate:"dive"`
}
