package domain

import "time"

// MeetingBot tracks one external meeting recording/transcription job.
// Status starts at pending; lifecycle webhooks overwrite it with the code the
// recorder reports, verbatim. Completed and failed are terminal.
type MeetingBot struct {
	ID         string    `json:"id"          db:"id"`
	UserID     string    `json:"user_id"     db:"user_id"`
	BotID      string    `json:"bot_id"      db:"bot_id"`
	BotName    string    `json:"bot_name"    db:"bot_name"`
	MeetingURL string    `json:"meeting_url" db:"meeting_url"`
	Status     string    `json:"status"      db:"status"`
	CreatedAt  time.Time `json:"created_at"  db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"  db:"updated_at"`
}

// Bot status values written by this service. Intermediate codes arrive from
// the recorder and are stored as-is.
const (
	BotStatusPending   = "pending"
	BotStatusCompleted = "completed"
	BotStatusFailed    = "failed"
)

// TranscriptWord is one recognized word within a speech segment.
type TranscriptWord struct {
	Word string `json:"word"`
}

// TranscriptSegment is the raw per-speaker word list delivered by the
// recorder webhook. Input-only, never persisted.
type TranscriptSegment struct {
	Speaker string           `json:"speaker"`
	Words   []TranscriptWord `json:"words"`
}

// Utterance is one normalized (speaker, text) line of a transcript.
type Utterance struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Transcript is the normalized form of a meeting recording.
type Transcript struct {
	Speakers   []string    `json:"speakers"`
	Utterances []Utterance `json:"transcript"`
}
