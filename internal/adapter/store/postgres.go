package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/teammind-ai/backend/internal/domain"
	"github.com/teammind-ai/backend/internal/port"
)

// PostgresStore handles all relational database operations.
//
// Expected tables (migrations are managed outside this service):
//
//	meeting_bots     (id, user_id, bot_id, bot_name, meeting_url, status, created_at, updated_at)
//	document_changes (id, meeting_bot_id, page_id, page_title, original_content, updated_content, status, created_at)
//	workspace_config (id, user_id, base_url, email, api_key, space_key, project_key, created_at, updated_at)
//	documents        (id, content, metadata jsonb, vector vector(N), created_at)
//	audit_logs       (id, user_id, action, resource, resource_id, details jsonb, ip, user_agent, created_at)
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection and returns a store instance.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// --- Meeting bots ---

// CreateMeetingBot inserts a new bot record with status pending.
func (s *PostgresStore) CreateMeetingBot(ctx context.Context, b *domain.MeetingBot) (*domain.MeetingBot, error) {
	query := `INSERT INTO meeting_bots (user_id, bot_id, bot_name, meeting_url, status)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id, user_id, bot_id, bot_name, meeting_url, status, created_at, updated_at`

	var bot domain.MeetingBot
	err := s.db.QueryRowContext(ctx, query,
		b.UserID, b.BotID, b.BotName, b.MeetingURL, domain.BotStatusPending,
	).Scan(
		&bot.ID, &bot.UserID, &bot.BotID, &bot.BotName,
		&bot.MeetingURL, &bot.Status, &bot.CreatedAt, &bot.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create meeting bot: %w", err)
	}
	return &bot, nil
}

// GetMeetingBotByID looks a bot up by its internal row id.
func (s *PostgresStore) GetMeetingBotByID(ctx context.Context, id string) (*domain.MeetingBot, error) {
	query := `SELECT id, user_id, bot_id, bot_name, meeting_url, status, created_at, updated_at
	          FROM meeting_bots WHERE id = $1`

	var bot domain.MeetingBot
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&bot.ID, &bot.UserID, &bot.BotID, &bot.BotName,
		&bot.MeetingURL, &bot.Status, &bot.CreatedAt, &bot.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrBotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get meeting bot: %w", err)
	}
	return &bot, nil
}

// GetMeetingBotByExternalID looks a bot up by the id the recorder assigned.
func (s *PostgresStore) GetMeetingBotByExternalID(ctx context.Context, botID string) (*domain.MeetingBot, error) {
	query := `SELECT id, user_id, bot_id, bot_name, meeting_url, status, created_at, updated_at
	          FROM meeting_bots WHERE bot_id = $1`

	var bot domain.MeetingBot
	err := s.db.QueryRowContext(ctx, query, botID).Scan(
		&bot.ID, &bot.UserID, &bot.BotID, &bot.BotName,
		&bot.MeetingURL, &bot.Status, &bot.CreatedAt, &bot.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrBotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get meeting bot: %w", err)
	}
	return &bot, nil
}

// UpdateMeetingBotStatus overwrites the bot's status with the given code.
func (s *PostgresStore) UpdateMeetingBotStatus(ctx context.Context, botID, status string) error {
	query := `UPDATE meeting_bots SET status = $1, updated_at = NOW() WHERE bot_id = $2`
	_, err := s.db.ExecContext(ctx, query, status, botID)
	if err != nil {
		return fmt.Errorf("update bot status: %w", err)
	}
	return nil
}

// --- Workspace config ---

// GetWorkspaceConfigByUser returns the wiki/tracker credentials for a user.
func (s *PostgresStore) GetWorkspaceConfigByUser(ctx context.Context, userID string) (*domain.WorkspaceConfig, error) {
	query := `SELECT id, user_id, base_url, email, api_key,
	                 COALESCE(space_key, ''), COALESCE(project_key, ''), created_at, updated_at
	          FROM workspace_config WHERE user_id = $1`

	var cfg domain.WorkspaceConfig
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&cfg.ID, &cfg.UserID, &cfg.BaseURL, &cfg.Email, &cfg.APIKey,
		&cfg.SpaceKey, &cfg.ProjectKey, &cfg.CreatedAt, &cfg.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrConfigNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get workspace config: %w", err)
	}
	return &cfg, nil
}

// ListWorkspaceConfigs returns every configured workspace.
func (s *PostgresStore) ListWorkspaceConfigs(ctx context.Context) ([]domain.WorkspaceConfig, error) {
	query := `SELECT id, user_id, base_url, email, api_key,
	                 COALESCE(space_key, ''), COALESCE(project_key, ''), created_at, updated_at
	          FROM workspace_config ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list workspace configs: %w", err)
	}
	defer rows.Close()

	var configs []domain.WorkspaceConfig
	for rows.Next() {
		var cfg domain.WorkspaceConfig
		if err := rows.Scan(
			&cfg.ID, &cfg.UserID, &cfg.BaseURL, &cfg.Email, &cfg.APIKey,
			&cfg.SpaceKey, &cfg.ProjectKey, &cfg.CreatedAt, &cfg.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan workspace config: %w", err)
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

// UpdateSpaceKey stores the wiki space a user ingests from.
func (s *PostgresStore) UpdateSpaceKey(ctx context.Context, userID, spaceKey string) error {
	query := `UPDATE workspace_config SET space_key = $1, updated_at = NOW() WHERE user_id = $2`
	_, err := s.db.ExecContext(ctx, query, spaceKey, userID)
	if err != nil {
		return fmt.Errorf("update space key: %w", err)
	}
	return nil
}

// --- Document changes ---

// InsertDocumentChange writes one audit record. It is called before the
// external update attempt, never after it.
func (s *PostgresStore) InsertDocumentChange(ctx context.Context, ch *domain.DocumentChange) (*domain.DocumentChange, error) {
	query := `INSERT INTO document_changes (meeting_bot_id, page_id, page_title, original_content, updated_content, status)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id, created_at`

	err := s.db.QueryRowContext(ctx, query,
		ch.MeetingBotID, ch.PageID, ch.PageTitle, ch.OriginalContent, ch.UpdatedContent, ch.Status,
	).Scan(&ch.ID, &ch.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert document change: %w", err)
	}
	return ch, nil
}

// GetDocumentChange returns one audit record by id.
func (s *PostgresStore) GetDocumentChange(ctx context.Context, id string) (*domain.DocumentChange, error) {
	query := `SELECT id, meeting_bot_id, page_id, page_title, original_content, updated_content, status, created_at
	          FROM document_changes WHERE id = $1`

	var ch domain.DocumentChange
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&ch.ID, &ch.MeetingBotID, &ch.PageID, &ch.PageTitle,
		&ch.OriginalContent, &ch.UpdatedContent, &ch.Status, &ch.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("get document change: %w", err)
	}
	return &ch, nil
}

// ListDocumentChangesByBot returns audit records for one meeting bot, newest first.
func (s *PostgresStore) ListDocumentChangesByBot(ctx context.Context, meetingBotID string) ([]domain.DocumentChange, error) {
	query := `SELECT id, meeting_bot_id, page_id, page_title, original_content, updated_content, status, created_at
	          FROM document_changes WHERE meeting_bot_id = $1 ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, meetingBotID)
	if err != nil {
		return nil, fmt.Errorf("list document changes: %w", err)
	}
	defer rows.Close()

	var changes []domain.DocumentChange
	for rows.Next() {
		var ch domain.DocumentChange
		if err := rows.Scan(
			&ch.ID, &ch.MeetingBotID, &ch.PageID, &ch.PageTitle,
			&ch.OriginalContent, &ch.UpdatedContent, &ch.Status, &ch.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan document change: %w", err)
		}
		changes = append(changes, ch)
	}
	return changes, nil
}

// UpdateDocumentChangeStatus moves an audit record to a new status.
func (s *PostgresStore) UpdateDocumentChangeStatus(ctx context.Context, id, status string) error {
	query := `UPDATE document_changes SET status = $1 WHERE id = $2`
	_, err := s.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update document change status: %w", err)
	}
	return nil
}

// --- Audit logs ---

// WriteAudit implements middleware.AuditWriter.
func (s *PostgresStore) WriteAudit(userID, action, resource, resourceID, details, ip, userAgent string) error {
	query := `INSERT INTO audit_logs (user_id, action, resource, resource_id, details, ip, user_agent)
	          VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7)`
	_, err := s.db.ExecContext(context.Background(), query,
		userID, action, resource, resourceID, details, ip, userAgent,
	)
	return err
}

// ListAuditLogs returns recent audit logs with optional filters.
func (s *PostgresStore) ListAuditLogs(ctx context.Context, limit int, action string) ([]domain.AuditLog, error) {
	query := `SELECT id, user_id, action, resource, resource_id, details, ip, user_agent, created_at
	          FROM audit_logs`
	args := []interface{}{}
	argIdx := 1

	if action != "" {
		query += fmt.Sprintf(" WHERE action = $%d", argIdx)
		args = append(args, action)
		argIdx++
	}

	query += " ORDER BY created_at DESC"

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.AuditLog
	for rows.Next() {
		var l domain.AuditLog
		if err := rows.Scan(
			&l.ID, &l.UserID, &l.Action, &l.Resource, &l.ResourceID,
			&l.Details, &l.IP, &l.UserAgent, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, nil
}
