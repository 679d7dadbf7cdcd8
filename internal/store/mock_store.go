// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite and to inject write failures

package store

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

// MockStore is an in-memory Store implementation for testing.
// FailWrites makes every mutating call return an error so tests can exercise
// the transient-cache fallback paths.
type MockStore struct {
	mu           sync.RWMutex
	users        map[string]*User          // keyed by telegram ID
	leads        map[string]*Lead          // keyed by lead ID
	interactions map[string][]*Interaction // keyed by telegram ID

	FailWrites bool
	FailReads  bool
}

// ErrMockFailure is returned by MockStore when failure injection is enabled.
var ErrMockFailure = errors.New("injected store failure")

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		users:        make(map[string]*User),
		leads:        make(map[string]*Lead),
		interactions: make(map[string][]*Interaction),
	}
}

// GetThreadID returns the stored thread handle for a user.
func (m *MockStore) GetThreadID(ctx context.Context, telegramID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FailReads {
		return "", ErrMockFailure
	}
	user, ok := m.users[telegramID]
	if !ok || user.ThreadID == "" {
		return "", ErrNotFound
	}
	return user.ThreadID, nil
}

// SetThreadID upserts the thread handle for a user.
func (m *MockStore) SetThreadID(ctx context.Context, telegramID, threadID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrites {
		return ErrMockFailure
	}
	now := time.Now()
	user, ok := m.users[telegramID]
	if !ok {
		user = &User{TelegramID: telegramID, FirstSeenAt: now, Active: true}
		m.users[telegramID] = user
	}
	user.ThreadID = threadID
	user.LastSeenAt = now
	return nil
}

// UpsertUser creates or refreshes a user record.
func (m *MockStore) UpsertUser(ctx context.Context, telegramID, threadID string, profile Profile) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrites {
		return nil, ErrMockFailure
	}
	now := time.Now()
	user, ok := m.users[telegramID]
	if !ok {
		user = &User{
			TelegramID:  telegramID,
			ThreadID:    threadID,
			FirstSeenAt: now,
			Active:      true,
		}
		m.users[telegramID] = user
	}
	if profile.Username != "" {
		user.Username = profile.Username
	}
	if profile.FirstName != "" {
		user.FirstName = profile.FirstName
	}
	if profile.LastName != "" {
		user.LastName = profile.LastName
	}
	user.LastSeenAt = now

	u := *user
	return &u, nil
}

// GetUser retrieves a user by Telegram ID.
func (m *MockStore) GetUser(ctx context.Context, telegramID string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FailReads {
		return nil, ErrMockFailure
	}
	user, ok := m.users[telegramID]
	if !ok {
		return nil, ErrNotFound
	}
	u := *user
	return &u, nil
}

// UserStats returns stats derived from the stored user record.
func (m *MockStore) UserStats(ctx context.Context, telegramID string) (*UserStats, error) {
	user, err := m.GetUser(ctx, telegramID)
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

// CountUsers returns the number of stored users.
func (m *MockStore) CountUsers(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users), nil
}

// ListUsers returns users ordered by most recent activity.
func (m *MockStore) ListUsers(ctx context.Context, limit, offset int) ([]*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var users []*User
	for _, u := range m.users {
		c := *u
		users = append(users, &c)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].LastSeenAt.After(users[j].LastSeenAt)
	})
	if offset >= len(users) {
		return nil, nil
	}
	users = users[offset:]
	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

// SaveLead stores a lead.
func (m *MockStore) SaveLead(ctx context.Context, lead *Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrites {
		return ErrMockFailure
	}
	l := *lead
	if l.Status == "" {
		l.Status = LeadStatusNew
	}
	m.leads[l.ID] = &l
	return nil
}

// ListLeadsByUser returns a user's leads, newest first.
func (m *MockStore) ListLeadsByUser(ctx context.Context, telegramID string) ([]*Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var leads []*Lead
	for _, l := range m.leads {
		if l.TelegramID == telegramID {
			c := *l
			leads = append(leads, &c)
		}
	}
	sort.Slice(leads, func(i, j int) bool {
		return leads[i].CreatedAt.After(leads[j].CreatedAt)
	})
	return leads, nil
}

// ListLeads returns one page of leads with filtering, mirroring the SQLite
// implementation's semantics.
func (m *MockStore) ListLeads(ctx context.Context, filter LeadFilter) (*LeadPage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if filter.Limit <= 0 {
		filter.Limit = 10
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}

	var matched []*Lead
	search := strings.ToLower(filter.Search)
	for _, l := range m.leads {
		if filter.Status != "" && filter.Status != "all" && l.Status != filter.Status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(l.Name), search) &&
			!strings.Contains(strings.ToLower(l.Email), search) &&
			!strings.Contains(l.Phone, filter.Search) {
			continue
		}
		c := *l
		matched = append(matched, &c)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	pages := (total + filter.Limit - 1) / filter.Limit
	if pages == 0 {
		pages = 1
	}
	start := (filter.Page - 1) * filter.Limit
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return &LeadPage{Leads: matched[start:end], Total: total, Pages: pages}, nil
}

// UpdateLeadStatus changes a lead's pipeline state.
func (m *MockStore) UpdateLeadStatus(ctx context.Context, leadID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrites {
		return ErrMockFailure
	}
	if !ValidLeadStatus(status) {
		return errors.New("invalid lead status")
	}
	lead, ok := m.leads[leadID]
	if !ok {
		return ErrNotFound
	}
	lead.Status = status
	return nil
}

// RecordInteraction appends an exchange and bumps the message counter.
func (m *MockStore) RecordInteraction(ctx context.Context, interaction *Interaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrites {
		return ErrMockFailure
	}
	it := *interaction
	m.interactions[it.TelegramID] = append(m.interactions[it.TelegramID], &it)
	if user, ok := m.users[it.TelegramID]; ok {
		user.MessageCount++
		user.LastSeenAt = it.CreatedAt
	}
	return nil
}

// ListInteractionsByUser returns recent exchanges, oldest first.
func (m *MockStore) ListInteractionsByUser(ctx context.Context, telegramID string, limit int) ([]*Interaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.interactions[telegramID]
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	out := make([]*Interaction, 0, len(all))
	for _, it := range all {
		c := *it
		out = append(out, &c)
	}
	return out, nil
}

// Close is a no-op for the mock.
func (m *MockStore) Close() error {
	return nil
}
