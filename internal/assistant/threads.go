// ABOUTME: Thread resolution and reset for the orchestrator
// ABOUTME: Durable store first, remote mint second, transient cache as degraded fallback

package assistant

import (
	"context"
	"errors"
	"fmt"

	"github.com/2389/parley/internal/runtime"
	"github.com/2389/parley/internal/store"
)

// resolveThread maps a user to their conversation thread handle.
//
// Order matters: the durable store is the source of truth whenever it is
// reachable; a new handle is minted only on a miss; the transient cache is
// written only when the durable write fails, and consulted only when
// minting fails. At most one mint, one durable write and one cache write
// happen per call, and a persistence failure never blocks the user.
func (s *Service) resolveThread(ctx context.Context, telegramID string) (string, error) {
	threadID, err := s.store.GetThreadID(ctx, telegramID)
	if err == nil {
		return threadID, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		// A read failure degrades to a miss; the upsert below restores the
		// association once the store recovers
		s.logger.Warn("thread lookup failed, treating as first contact", "error", err, "telegram_id", telegramID)
	}

	threadID, mintErr := s.runtime.CreateThread(ctx)
	if mintErr != nil {
		if cached, ok := s.fallback.Get(telegramID); ok {
			s.logger.Info("using fallback thread after mint failure", "telegram_id", telegramID, "thread_id", cached)
			return cached, nil
		}
		return "", fmt.Errorf("%w: %v", runtime.ErrNoThread, mintErr)
	}

	s.persistThread(ctx, telegramID, threadID)
	return threadID, nil
}

// Reset unconditionally mints a fresh thread for the user, superseding the
// previous one. It reports false only when minting itself failed; a durable
// write failure still counts as success because the handle lives on in the
// transient cache.
func (s *Service) Reset(ctx context.Context, telegramID string) bool {
	threadID, err := s.runtime.CreateThread(ctx)
	if err != nil {
		s.logger.Error("failed to mint thread for reset", "error", err, "telegram_id", telegramID)
		return false
	}

	s.persistThread(ctx, telegramID, threadID)
	s.logger.Info("conversation reset", "telegram_id", telegramID, "thread_id", threadID)
	return true
}

// persistThread writes the association durably, falling back to the
// transient cache on failure. A successful durable write supersedes any
// stale fallback entry.
func (s *Service) persistThread(ctx context.Context, telegramID, threadID string) {
	if err := s.store.SetThreadID(ctx, telegramID, threadID); err != nil {
		s.logger.Error("failed to persist thread, using transient cache", "error", err, "telegram_id", telegramID)
		s.fallback.Put(telegramID, threadID)
		return
	}
	s.fallback.Remove(telegramID)
}
