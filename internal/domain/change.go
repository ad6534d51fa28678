package domain

import "time"

// DocumentChange is the audit record pairing a page's prior and new content
// for one synchronization event. Append-only; status moves past its initial
// value only through an explicit revert.
type DocumentChange struct {
	ID              string    `json:"id"               db:"id"`
	MeetingBotID    string    `json:"meeting_bot_id"   db:"meeting_bot_id"`
	PageID          string    `json:"page_id"          db:"page_id"`
	PageTitle       string    `json:"page_title"       db:"page_title"`
	OriginalContent *string   `json:"original_content" db:"original_content"` // nil when the page was newly created
	UpdatedContent  string    `json:"updated_content"  db:"updated_content"`
	Status          string    `json:"status"           db:"status"`
	CreatedAt       time.Time `json:"created_at"       db:"created_at"`
}

// DocumentChange status values.
const (
	ChangeStatusPending  = "pending"
	ChangeStatusApplied  = "applied"
	ChangeStatusReverted = "reverted"
)
