package domain

import "time"

// WorkspaceConfig holds one user's wiki and tracker credentials. Token
// acquisition (OAuth exchange) happens outside this service; rows arrive with
// usable API keys.
type WorkspaceConfig struct {
	ID         string    `json:"id"          db:"id"`
	UserID     string    `json:"user_id"     db:"user_id"`
	BaseURL    string    `json:"base_url"    db:"base_url"`
	Email      string    `json:"email"       db:"email"`
	APIKey     string    `json:"-"           db:"api_key"`
	SpaceKey   string    `json:"space_key"   db:"space_key"`
	ProjectKey string    `json:"project_key" db:"project_key"` // empty = no tracker issues emitted
	CreatedAt  time.Time `json:"created_at"  db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"  db:"updated_at"`
}
