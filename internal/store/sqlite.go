// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides user/lead/interaction persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			telegram_id   TEXT PRIMARY KEY,
			username      TEXT NOT NULL DEFAULT '',
			first_name    TEXT NOT NULL DEFAULT '',
			last_name     TEXT NOT NULL DEFAULT '',
			thread_id     TEXT NOT NULL,
			message_count INTEGER NOT NULL DEFAULT 0,
			first_seen_at TEXT NOT NULL,
			last_seen_at  TEXT NOT NULL,
			active        INTEGER NOT NULL DEFAULT 1
		);

		CREATE TABLE IF NOT EXISTS leads (
			id          TEXT PRIMARY KEY,
			telegram_id TEXT NOT NULL REFERENCES users(telegram_id),
			name        TEXT NOT NULL,
			email       TEXT NOT NULL,
			phone       TEXT NOT NULL,
			extra       TEXT,
			status      TEXT NOT NULL DEFAULT 'new',
			created_at  TEXT NOT NULL,

			CHECK (status IN ('new', 'contacted', 'callback', 'completed', 'not_interested'))
		);

		CREATE INDEX IF NOT EXISTS idx_leads_telegram_id ON leads(telegram_id);
		CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
		CREATE INDEX IF NOT EXISTS idx_leads_created ON leads(created_at DESC);

		CREATE TABLE IF NOT EXISTS interactions (
			id             TEXT PRIMARY KEY,
			telegram_id    TEXT NOT NULL,
			thread_id      TEXT NOT NULL,
			user_text      TEXT NOT NULL,
			assistant_text TEXT NOT NULL,
			created_at     TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_interactions_telegram ON interactions(telegram_id, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// GetThreadID returns the conversation thread handle for a user.
// Returns ErrNotFound if the user has no record.
func (s *SQLiteStore) GetThreadID(ctx context.Context, telegramID string) (string, error) {
	var threadID string
	err := s.db.QueryRowContext(ctx,
		`SELECT thread_id FROM users WHERE telegram_id = ?`, telegramID).Scan(&threadID)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("querying thread id: %w", err)
	}
	return threadID, nil
}

// SetThreadID sets the conversation thread handle for a user, creating the
// user row if needed. The write is an upsert so a concurrent first-contact
// race resolves last-writer-wins rather than failing.
func (s *SQLiteStore) SetThreadID(ctx context.Context, telegramID, threadID string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	query := `
		INSERT INTO users (telegram_id, thread_id, first_seen_at, last_seen_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(telegram_id) DO UPDATE SET
			thread_id = excluded.thread_id,
			last_seen_at = excluded.last_seen_at
	`
	if _, err := s.db.ExecContext(ctx, query, telegramID, threadID, now, now); err != nil {
		return fmt.Errorf("setting thread id: %w", err)
	}
	s.logger.Debug("thread id set", "telegram_id", telegramID, "thread_id", threadID)
	return nil
}

// UpsertUser creates the user on first contact or refreshes the stored
// profile fields, and returns the current row.
func (s *SQLiteStore) UpsertUser(ctx context.Context, telegramID, threadID string, profile Profile) (*User, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	query := `
		INSERT INTO users (telegram_id, username, first_name, last_name, thread_id, first_seen_at, last_seen_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(telegram_id) DO UPDATE SET
			username = CASE WHEN excluded.username != '' THEN excluded.username ELSE users.username END,
			first_name = CASE WHEN excluded.first_name != '' THEN excluded.first_name ELSE users.first_name END,
			last_name = CASE WHEN excluded.last_name != '' THEN excluded.last_name ELSE users.last_name END,
			last_seen_at = excluded.last_seen_at
	`
	_, err := s.db.ExecContext(ctx, query,
		telegramID, profile.Username, profile.FirstName, profile.LastName, threadID, now, now)
	if err != nil {
		return nil, fmt.Errorf("upserting user: %w", err)
	}
	return s.GetUser(ctx, telegramID)
}

// GetUser retrieves a user by Telegram ID.
// Returns ErrNotFound if the user doesn't exist.
func (s *SQLiteStore) GetUser(ctx context.Context, telegramID string) (*User, error) {
	query := `
		SELECT telegram_id, username, first_name, last_name, thread_id,
		       message_count, first_seen_at, last_seen_at, active
		FROM users
		WHERE telegram_id = ?
	`

	var user User
	var firstSeenStr, lastSeenStr string
	var active int

	err := s.db.QueryRowContext(ctx, query, telegramID).Scan(
		&user.TelegramID,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.ThreadID,
		&user.MessageCount,
		&firstSeenStr,
		&lastSeenStr,
		&active,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	user.FirstSeenAt, err = time.Parse(time.RFC3339, firstSeenStr)
	if err != nil {
		return nil, fmt.Errorf("parsing first_seen_at: %w", err)
	}
	user.LastSeenAt, err = time.Parse(time.RFC3339, lastSeenStr)
	if err != nil {
		return nil, fmt.Errorf("parsing last_seen_at: %w", err)
	}
	user.Active = active != 0

	return &user, nil
}

// UserStats returns conversation statistics for the /stats command.
// Returns ErrNotFound if the user doesn't exist.
func (s *SQLiteStore) UserStats(ctx context.Context, telegramID string) (*UserStats, error) {
	user, err := s.GetUser(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	return &UserStats{
		MessageCount:  user.MessageCount,
		FirstSeenAt:   user.FirstSeenAt,
		DaysSinceSeen: int(time.Since(user.FirstSeenAt).Hours() / 24),
		Username:      user.Username,
		FirstName:     user.FirstName,
		LastName:      user.LastName,
	}, nil
}

// CountUsers returns the total number of user records.
func (s *SQLiteStore) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

// ListUsers returns users ordered by most recent activity.
func (s *SQLiteStore) ListUsers(ctx context.Context, limit, offset int) ([]*User, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT telegram_id, username, first_name, last_name, thread_id,
		       message_count, first_seen_at, last_seen_at, active
		FROM users
		ORDER BY last_seen_at DESC
		LIMIT ? OFFSET ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		var user User
		var firstSeenStr, lastSeenStr string
		var active int
		if err := rows.Scan(
			&user.TelegramID, &user.Username, &user.FirstName, &user.LastName,
			&user.ThreadID, &user.MessageCount, &firstSeenStr, &lastSeenStr, &active,
		); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		user.FirstSeenAt, _ = time.Parse(time.RFC3339, firstSeenStr)
		user.LastSeenAt, _ = time.Parse(time.RFC3339, lastSeenStr)
		user.Active = active != 0
		users = append(users, &user)
	}
	return users, rows.Err()
}

// SaveLead inserts a captured lead.
func (s *SQLiteStore) SaveLead(ctx context.Context, lead *Lead) error {
	status := lead.Status
	if status == "" {
		status = LeadStatusNew
	}
	query := `
		INSERT INTO leads (id, telegram_id, name, email, phone, extra, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		lead.ID,
		lead.TelegramID,
		lead.Name,
		lead.Email,
		lead.Phone,
		lead.Extra,
		status,
		lead.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting lead: %w", err)
	}
	s.logger.Debug("lead saved", "id", lead.ID, "telegram_id", lead.TelegramID)
	return nil
}

// ListLeadsByUser returns a user's leads, newest first.
func (s *SQLiteStore) ListLeadsByUser(ctx context.Context, telegramID string) ([]*Lead, error) {
	query := `
		SELECT id, telegram_id, name, email, phone, COALESCE(extra, ''), status, created_at
		FROM leads
		WHERE telegram_id = ?
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, telegramID)
	if err != nil {
		return nil, fmt.Errorf("listing leads: %w", err)
	}
	defer rows.Close()
	return scanLeads(rows)
}

// ListLeads returns one dashboard page of leads with optional status filter
// and free-text search over name, email and phone.
func (s *SQLiteStore) ListLeads(ctx context.Context, filter LeadFilter) (*LeadPage, error) {
	if filter.Limit <= 0 {
		filter.Limit = 10
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}

	var conds []string
	var args []any
	if filter.Status != "" && filter.Status != "all" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		conds = append(conds, "(LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?)")
		args = append(args, like, like, like)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM leads"+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting leads: %w", err)
	}

	query := `
		SELECT id, telegram_id, name, email, phone, COALESCE(extra, ''), status, created_at
		FROM leads` + where + `
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing leads: %w", err)
	}
	defer rows.Close()

	leads, err := scanLeads(rows)
	if err != nil {
		return nil, err
	}

	pages := (total + filter.Limit - 1) / filter.Limit
	if pages == 0 {
		pages = 1
	}
	return &LeadPage{Leads: leads, Total: total, Pages: pages}, nil
}

// UpdateLeadStatus moves a lead through the follow-up pipeline.
// Returns ErrNotFound if the lead doesn't exist.
func (s *SQLiteStore) UpdateLeadStatus(ctx context.Context, leadID, status string) error {
	if !ValidLeadStatus(status) {
		return fmt.Errorf("invalid lead status: %q", status)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE leads SET status = ? WHERE id = ?`, status, leadID)
	if err != nil {
		return fmt.Errorf("updating lead status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordInteraction appends one user/assistant exchange and bumps the user's
// message counter in the same transaction.
func (s *SQLiteStore) RecordInteraction(ctx context.Context, interaction *Interaction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO interactions (id, telegram_id, thread_id, user_text, assistant_text, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		interaction.ID,
		interaction.TelegramID,
		interaction.ThreadID,
		interaction.UserText,
		interaction.AssistantText,
		interaction.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting interaction: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE users SET message_count = message_count + 1, last_seen_at = ?
		WHERE telegram_id = ?`,
		interaction.CreatedAt.UTC().Format(time.RFC3339),
		interaction.TelegramID,
	)
	if err != nil {
		return fmt.Errorf("incrementing message count: %w", err)
	}

	return tx.Commit()
}

// ListInteractionsByUser returns recent exchanges for a user, oldest first,
// capped at limit.
func (s *SQLiteStore) ListInteractionsByUser(ctx context.Context, telegramID string, limit int) ([]*Interaction, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, telegram_id, thread_id, user_text, assistant_text, created_at
		FROM (
			SELECT id, telegram_id, thread_id, user_text, assistant_text, created_at
			FROM interactions
			WHERE telegram_id = ?
			ORDER BY created_at DESC
			LIMIT ?
		)
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, telegramID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing interactions: %w", err)
	}
	defer rows.Close()

	var interactions []*Interaction
	for rows.Next() {
		var it Interaction
		var createdStr string
		if err := rows.Scan(&it.ID, &it.TelegramID, &it.ThreadID, &it.UserText, &it.AssistantText, &createdStr); err != nil {
			return nil, fmt.Errorf("scanning interaction: %w", err)
		}
		it.CreatedAt, _ = time.Parse(time.RFC3339, createdStr)
		interactions = append(interactions, &it)
	}
	return interactions, rows.Err()
}

// scanLeads reads lead rows into structs.
func scanLeads(rows *sql.Rows) ([]*Lead, error) {
	var leads []*Lead
	for rows.Next() {
		var lead Lead
		var createdStr string
		if err := rows.Scan(&lead.ID, &lead.TelegramID, &lead.Name, &lead.Email, &lead.Phone, &lead.Extra, &lead.Status, &createdStr); err != nil {
			return nil, fmt.Errorf("scanning lead: %w", err)
		}
		var err error
		lead.CreatedAt, err = time.Parse(time.RFC3339, createdStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		leads = append(leads, &lead)
	}
	return leads, rows.Err()
}
