package handlers

import (
	"context"
	"time"

	"passguard/internal/auth"
	"passguard/internal/config"
	"passguard/internal/expiry"
	"passguard/internal/models"
	"passguard/internal/repository"

	"github.com/google/uuid"
)

// applyPasswordChange persists a new password hash and clears every trace of
// the old one: history is extended and trimmed to the retention window, the
// forced-change flag is cleared, and existing sessions and refresh tokens
// are invalidated so no cached state survives the change.
func applyPasswordChange(
	ctx context.Context,
	users repository.UserRepository,
	history repository.PasswordHistoryRepository,
	sessions repository.SessionRepository,
	authService *auth.Service,
	checker *expiry.Checker,
	cfg config.PolicyConfig,
	userID uuid.UUID,
	hashedPassword string,
) error {
	if err := users.UpdatePassword(ctx, userID, hashedPassword); err != nil {
		return err
	}
	if err := history.Add(ctx, userID, hashedPassword); err != nil {
		return err
	}
	if err := history.DeleteExpired(ctx, userID, cfg.HistoryCount, cfg.HistoryOffset); err != nil {
		return err
	}
	if _, err := checker.Reset(ctx, userID, time.Now()); err != nil {
		return err
	}
	if err := sessions.DeleteByUserID(ctx, userID); err != nil {
		return err
	}
	return authService.DeleteAllRefreshTokens(ctx, userID)
}

// historyHashes extracts the stored hashes from history entries.
func historyHashes(entries []models.PasswordHistory) []string {
	hashes := make([]string, 0, len(entries))
	for _, entry := range entries {
		hashes = append(hashes, entry.PasswordHash)
	}
	return hashes
}
