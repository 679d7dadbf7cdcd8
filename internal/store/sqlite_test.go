// ABOUTME: Tests for SQLite store implementation
// ABOUTME: Covers thread handle mapping, user upserts, leads and interaction recording

package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	return s
}

func TestNewSQLiteStore(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer s.Close()

	// Verify the database file was created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "nested", "test.db")

	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created in nested directory")
	}
}

func TestThreadID_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	if _, err := s.GetThreadID(ctx, "12345"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}

	if err := s.SetThreadID(ctx, "12345", "thread_abc"); err != nil {
		t.Fatalf("SetThreadID failed: %v", err)
	}

	got, err := s.GetThreadID(ctx, "12345")
	if err != nil {
		t.Fatalf("GetThreadID failed: %v", err)
	}
	if got != "thread_abc" {
		t.Errorf("thread ID mismatch: got %q, want %q", got, "thread_abc")
	}
}

func TestSetThreadID_ReplacesHandle(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	if err := s.SetThreadID(ctx, "12345", "thread_old"); err != nil {
		t.Fatalf("SetThreadID failed: %v", err)
	}
	if err := s.SetThreadID(ctx, "12345", "thread_new"); err != nil {
		t.Fatalf("SetThreadID replace failed: %v", err)
	}

	got, err := s.GetThreadID(ctx, "12345")
	if err != nil {
		t.Fatalf("GetThreadID failed: %v", err)
	}
	if got != "thread_new" {
		t.Errorf("expected replaced handle thread_new, got %q", got)
	}
}

func TestUpsertUser_RefreshesProfile(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	first, err := s.UpsertUser(ctx, "777", "thread_1", Profile{Username: "ada", FirstName: "Ada"})
	if err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}
	if first.Username != "ada" || first.FirstName != "Ada" {
		t.Errorf("unexpected user after create: %+v", first)
	}

	// Second upsert with a changed name but empty username keeps the username
	second, err := s.UpsertUser(ctx, "777", "thread_1", Profile{FirstName: "Ada L."})
	if err != nil {
		t.Fatalf("UpsertUser refresh failed: %v", err)
	}
	if second.Username != "ada" {
		t.Errorf("empty username overwrote stored value: %+v", second)
	}
	if second.FirstName != "Ada L." {
		t.Errorf("first name not refreshed: %+v", second)
	}
}

func TestSaveLead_AndListByUser(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	if _, err := s.UpsertUser(ctx, "42", "thread_42", Profile{}); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}

	older := &Lead{
		ID:         uuid.New().String(),
		TelegramID: "42",
		Name:       "First Lead",
		Email:      "first@example.com",
		Phone:      "+1 555 000 1111",
		CreatedAt:  time.Now().Add(-time.Hour),
	}
	newer := &Lead{
		ID:         uuid.New().String(),
		TelegramID: "42",
		Name:       "Second Lead",
		Email:      "second@example.com",
		Phone:      "+1 555 000 2222",
		Extra:      `{"captured_via":"assistant"}`,
		CreatedAt:  time.Now(),
	}
	for _, lead := range []*Lead{older, newer} {
		if err := s.SaveLead(ctx, lead); err != nil {
			t.Fatalf("SaveLead failed: %v", err)
		}
	}

	leads, err := s.ListLeadsByUser(ctx, "42")
	if err != nil {
		t.Fatalf("ListLeadsByUser failed: %v", err)
	}
	if len(leads) != 2 {
		t.Fatalf("expected 2 leads, got %d", len(leads))
	}
	if leads[0].Name != "Second Lead" {
		t.Errorf("expected newest lead first, got %q", leads[0].Name)
	}
	if leads[0].Status != LeadStatusNew {
		t.Errorf("expected default status %q, got %q", LeadStatusNew, leads[0].Status)
	}
	if leads[0].Extra != `{"captured_via":"assistant"}` {
		t.Errorf("extra JSON not round-tripped: %q", leads[0].Extra)
	}
}

func TestListLeads_FilterAndPaging(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	if _, err := s.UpsertUser(ctx, "9", "thread_9", Profile{}); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}

	for i, seed := range []struct {
		name, email, status string
	}{
		{"Alpha One", "alpha@example.com", LeadStatusNew},
		{"Beta Two", "beta@example.com", LeadStatusContacted},
		{"Gamma Three", "gamma@example.com", LeadStatusNew},
	} {
		lead := &Lead{
			ID:         uuid.New().String(),
			TelegramID: "9",
			Name:       seed.name,
			Email:      seed.email,
			Phone:      "+44 20 7946 0000",
			Status:     seed.status,
			CreatedAt:  time.Now().Add(time.Duration(i) * time.Minute),
		}
		if err := s.SaveLead(ctx, lead); err != nil {
			t.Fatalf("SaveLead failed: %v", err)
		}
	}

	page, err := s.ListLeads(ctx, LeadFilter{Status: LeadStatusNew, Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("ListLeads failed: %v", err)
	}
	if page.Total != 2 {
		t.Errorf("status filter: expected total 2, got %d", page.Total)
	}

	page, err = s.ListLeads(ctx, LeadFilter{Search: "beta", Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("ListLeads search failed: %v", err)
	}
	if page.Total != 1 || page.Leads[0].Name != "Beta Two" {
		t.Errorf("search filter: unexpected page %+v", page)
	}

	page, err = s.ListLeads(ctx, LeadFilter{Page: 2, Limit: 2})
	if err != nil {
		t.Fatalf("ListLeads paging failed: %v", err)
	}
	if page.Pages != 2 || len(page.Leads) != 1 {
		t.Errorf("paging: expected 2 pages with 1 lead on page 2, got pages=%d len=%d", page.Pages, len(page.Leads))
	}
}

func TestUpdateLeadStatus(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	if _, err := s.UpsertUser(ctx, "5", "thread_5", Profile{}); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}
	lead := &Lead{
		ID:         uuid.New().String(),
		TelegramID: "5",
		Name:       "Status Lead",
		Email:      "status@example.com",
		Phone:      "+1 555 123 4567",
		CreatedAt:  time.Now(),
	}
	if err := s.SaveLead(ctx, lead); err != nil {
		t.Fatalf("SaveLead failed: %v", err)
	}

	if err := s.UpdateLeadStatus(ctx, lead.ID, LeadStatusContacted); err != nil {
		t.Fatalf("UpdateLeadStatus failed: %v", err)
	}
	leads, err := s.ListLeadsByUser(ctx, "5")
	if err != nil {
		t.Fatalf("ListLeadsByUser failed: %v", err)
	}
	if leads[0].Status != LeadStatusContacted {
		t.Errorf("status not updated: %q", leads[0].Status)
	}

	if err := s.UpdateLeadStatus(ctx, "missing-id", LeadStatusCompleted); err != ErrNotFound {
		t.Errorf("expected ErrNotFound for unknown lead, got %v", err)
	}
	if err := s.UpdateLeadStatus(ctx, lead.ID, "bogus"); err == nil {
		t.Error("expected error for invalid status")
	}
}

func TestRecordInteraction_IncrementsMessageCount(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	if _, err := s.UpsertUser(ctx, "31", "thread_31", Profile{FirstName: "Grace"}); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		it := &Interaction{
			ID:            uuid.New().String(),
			TelegramID:    "31",
			ThreadID:      "thread_31",
			UserText:      "hello",
			AssistantText: "hi there",
			CreatedAt:     time.Now(),
		}
		if err := s.RecordInteraction(ctx, it); err != nil {
			t.Fatalf("RecordInteraction failed: %v", err)
		}
	}

	user, err := s.GetUser(ctx, "31")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if user.MessageCount != 3 {
		t.Errorf("expected message count 3, got %d", user.MessageCount)
	}

	history, err := s.ListInteractionsByUser(ctx, "31", 10)
	if err != nil {
		t.Fatalf("ListInteractionsByUser failed: %v", err)
	}
	if len(history) != 3 {
		t.Errorf("expected 3 interactions, got %d", len(history))
	}

	stats, err := s.UserStats(ctx, "31")
	if err != nil {
		t.Fatalf("UserStats failed: %v", err)
	}
	if stats.MessageCount != 3 || stats.FirstName != "Grace" {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
