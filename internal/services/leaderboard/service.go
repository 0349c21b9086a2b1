package leaderboard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mcoot/digitguess/internal/dependencies/clock"
	"github.com/mcoot/digitguess/internal/model"
	"github.com/mcoot/digitguess/internal/storage"
)

// Service tracks each player's best bot-room result
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
}

// New creates a new LeaderboardService
func New(storage storage.Storage, clock clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		logger:  logger.With(slog.String("component", "leaderboard")),
	}
}

// RecordWin stores turns as the player's best if it beats the existing entry.
// Equal or worse results are ignored. Reports whether the entry changed.
func (s *Service) RecordWin(ctx context.Context, playerID model.PlayerID, displayName string, turns int) (bool, error) {
	if turns < 1 {
		return false, fmt.Errorf("record win: turns must be positive, got %d", turns)
	}

	improved, err := s.storage.RecordBestTurns(ctx, model.LeaderboardEntry{
		PlayerID:    playerID,
		DisplayName: displayName,
		BestTurns:   turns,
		UpdatedAt:   s.clock.Now(),
	})
	if err != nil {
		return false, fmt.Errorf("record win: %w", err)
	}

	if improved {
		s.logger.Info("leaderboard improved",
			slog.String("player_id", string(playerID)),
			slog.Int("best_turns", turns),
		)
	}
	return improved, nil
}

// Top returns up to n entries ordered by best turns ascending.
// A non-positive n falls back to model.DefaultLeaderboardSize.
func (s *Service) Top(ctx context.Context, n int) ([]model.LeaderboardEntry, error) {
	if n <= 0 {
		n = model.DefaultLeaderboardSize
	}
	return s.storage.TopLeaderboard(ctx, n)
}

// Entry returns a single player's entry
func (s *Service) Entry(ctx context.Context, playerID model.PlayerID) (*model.LeaderboardEntry, error) {
	return s.storage.GetLeaderboardEntry(ctx, playerID)
}

// ServiceInterface defines the interface for leaderboard service (for mocking)
type ServiceInterface interface {
	RecordWin(ctx context.Context, playerID model.PlayerID, displayName string, turns int) (bool, error)
	Top(ctx context.Context, n int) ([]model.LeaderboardEntry, error)
	Entry(ctx context.Context, playerID model.PlayerID) (*model.LeaderboardEntry, error)
}

// Ensure Service implements ServiceInterface
var _ ServiceInterface = (*Service)(nil)
