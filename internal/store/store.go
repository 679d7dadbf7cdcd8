// ABOUTME: Store interface and data types for parley persistence
// ABOUTME: Defines User, Lead, Interaction structs and the Store interface for database operations

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// Lead status constants. A lead starts as "new" and moves through the
// follow-up pipeline from the admin dashboard.
const (
	LeadStatusNew           = "new"
	LeadStatusContacted     = "contacted"
	LeadStatusCallback      = "callback"
	LeadStatusCompleted     = "completed"
	LeadStatusNotInterested = "not_interested"
)

// User represents a Telegram end user and their conversation thread.
// TelegramID is the stable identity; ThreadID is the remote conversation
// handle (at most one live handle per user).
type User struct {
	TelegramID   string
	Username     string
	FirstName    string
	LastName     string
	ThreadID     string
	MessageCount int
	FirstSeenAt  time.Time
	LastSeenAt   time.Time
	Active       bool
}

// Profile carries the mutable identity fields reported by Telegram on each
// update. Used to refresh the stored user record.
type Profile struct {
	Username  string
	FirstName string
	LastName  string
}

// Lead represents contact information captured by the assistant's
// gather_user_info tool call.
type Lead struct {
	ID         string
	TelegramID string
	Name       string
	Email      string
	Phone      string
	Extra      string // raw JSON blob of additional_info, may be empty
	Status     string
	CreatedAt  time.Time
}

// Interaction is one user-message/assistant-reply pair, recorded after each
// completed run for audit and the admin transcript view.
type Interaction struct {
	ID            string
	TelegramID    string
	ThreadID      string
	UserText      string
	AssistantText string
	CreatedAt     time.Time
}

// UserStats summarizes a user's conversation history for the /stats command.
type UserStats struct {
	MessageCount  int
	FirstSeenAt   time.Time
	DaysSinceSeen int
	Username      string
	FirstName     string
	LastName      string
}

// LeadFilter controls dashboard lead listing.
type LeadFilter struct {
	Status string // empty or "all" means no status filter
	Search string // matches name, email or phone, case-insensitive
	Page   int    // 1-based
	Limit  int
}

// LeadPage is one page of dashboard results.
type LeadPage struct {
	Leads []*Lead
	Total int
	Pages int
}

// Store defines the interface for user, lead and interaction persistence
type Store interface {
	// Thread handle mapping (one live handle per user)
	GetThreadID(ctx context.Context, telegramID string) (string, error)
	SetThreadID(ctx context.Context, telegramID, threadID string) error

	// Users
	UpsertUser(ctx context.Context, telegramID, threadID string, profile Profile) (*User, error)
	GetUser(ctx context.Context, telegramID string) (*User, error)
	UserStats(ctx context.Context, telegramID string) (*UserStats, error)
	CountUsers(ctx context.Context) (int, error)
	ListUsers(ctx context.Context, limit, offset int) ([]*User, error)

	// Leads
	SaveLead(ctx context.Context, lead *Lead) error
	ListLeadsByUser(ctx context.Context, telegramID string) ([]*Lead, error)
	ListLeads(ctx context.Context, filter LeadFilter) (*LeadPage, error)
	UpdateLeadStatus(ctx context.Context, leadID, status string) error

	// Interaction history (best-effort recording after each run)
	RecordInteraction(ctx context.Context, interaction *Interaction) error
	ListInteractionsByUser(ctx context.Context, telegramID string, limit int) ([]*Interaction, error)

	Close() error
}

// ValidLeadStatus reports whether s is one of the known lead pipeline states.
func ValidLeadStatus(s string) bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusCallback, LeadStatusCompleted, LeadStatusNotInterested:
		return true
	}
	return false
}
