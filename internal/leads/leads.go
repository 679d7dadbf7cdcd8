// ABOUTME: Lead validation and capture service
// ABOUTME: Validates contact fields and persists leads through the store

package leads

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/2389/parley/internal/store"
)

// ErrUserNotFound is returned when capturing a lead for an unknown user.
var ErrUserNotFound = errors.New("no user record for lead")

var (
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRegex = regexp.MustCompile(`^[+]?[\d\s()-]+$`)
)

// Data is the structured contact information emitted by the assistant's
// gather_user_info tool call.
type Data struct {
	Name  string
	Email string
	Phone string
	Extra string // raw JSON of additional_info, may be empty
}

// Validate checks the required lead fields and returns one message per
// failing field. An empty slice means the data is valid.
func Validate(data Data) []string {
	var errs []string

	if len(strings.TrimSpace(data.Name)) < 2 {
		errs = append(errs, "Name must be at least 2 characters long")
	}
	if !emailRegex.MatchString(data.Email) {
		errs = append(errs, "Please provide a valid email address")
	}
	if len(data.Phone) < 8 || !phoneRegex.MatchString(data.Phone) {
		errs = append(errs, "Please provide a valid phone number")
	}

	return errs
}

// Service persists validated leads.
type Service struct {
	store  store.Store
	logger *slog.Logger
}

// NewService creates a lead capture service.
func NewService(st store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  st,
		logger: logger.With("component", "leads"),
	}
}

// Capture stores a lead for the given user. The caller is expected to have
// validated the data first; Capture only checks that the user exists.
func (s *Service) Capture(ctx context.Context, telegramID string, data Data) (*store.Lead, error) {
	if _, err := s.store.GetUser(ctx, telegramID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.logger.Error("no user found for lead", "telegram_id", telegramID)
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	lead := &store.Lead{
		ID:         uuid.New().String(),
		TelegramID: telegramID,
		Name:       data.Name,
		Email:      data.Email,
		Phone:      data.Phone,
		Extra:      data.Extra,
		Status:     store.LeadStatusNew,
		CreatedAt:  time.Now(),
	}
	if err := s.store.SaveLead(ctx, lead); err != nil {
		return nil, fmt.Errorf("saving lead: %w", err)
	}

	s.logger.Info("lead captured", "telegram_id", telegramID, "email", data.Email)
	return lead, nil
}

// ListByUser returns a user's captured leads, newest first.
func (s *Service) ListByUser(ctx context.Context, telegramID string) ([]*store.Lead, error) {
	return s.store.ListLeadsByUser(ctx, telegramID)
}
