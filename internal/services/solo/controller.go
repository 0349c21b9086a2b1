package solo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mcoot/digitguess/internal/dependencies/clock"
	"github.com/mcoot/digitguess/internal/dependencies/random"
	"github.com/mcoot/digitguess/internal/model"
	"github.com/mcoot/digitguess/internal/services/scoring"
	"github.com/mcoot/digitguess/internal/services/secret"
	"github.com/mcoot/digitguess/internal/storage"
)

// Config holds configuration for solo games
type Config struct {
	// LockAfterCompletion rejects guesses on a solved game with ErrGameComplete.
	// When false, guesses after a win are still scored and counted.
	LockAfterCompletion bool
}

// DefaultConfig returns default solo configuration
func DefaultConfig() Config {
	return Config{LockAfterCompletion: false}
}

// GuessOutcome is the result of a scored solo guess
type GuessOutcome struct {
	GameID    model.GameID
	Result    model.ScoreResult
	Turns     int
	Completed bool
}

// Controller manages single-player games against a generated secret
type Controller struct {
	storage   storage.Storage
	scoring   scoring.ServiceInterface
	generator secret.GeneratorInterface
	clock     clock.Clock
	random    random.Random
	logger    *slog.Logger
	cfg       Config
}

// NewController creates a new solo game Controller
func NewController(
	storage storage.Storage,
	scoring scoring.ServiceInterface,
	generator secret.GeneratorInterface,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
	cfg Config,
) *Controller {
	return &Controller{
		storage:   storage,
		scoring:   scoring,
		generator: generator,
		clock:     clock,
		random:    random,
		logger:    logger.With(slog.String("component", "solo-controller")),
		cfg:       cfg,
	}
}

// Start creates a new game with a freshly generated secret
func (c *Controller) Start(ctx context.Context, ownerID model.PlayerID, digitCount int, rule model.ScoringRule) (*model.GameSession, error) {
	if rule != model.RuleStrict && rule != model.RuleRelaxed {
		return nil, model.ErrInvalidRule
	}
	s, err := c.generator.Generate(digitCount)
	if err != nil {
		return nil, err
	}

	now := c.clock.Now()
	game := &model.GameSession{
		ID:         model.GameID(c.random.UUID()),
		OwnerID:    ownerID,
		Secret:     s,
		DigitCount: digitCount,
		Rule:       rule,
		History:    []model.GuessRecord{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := c.storage.CreateGame(ctx, game); err != nil {
		c.logger.Error("failed to save game",
			slog.String("game_id", string(game.ID)),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("save game: %w", err)
	}

	c.logger.Info("solo game started",
		slog.String("game_id", string(game.ID)),
		slog.String("owner_id", string(ownerID)),
		slog.Int("digit_count", digitCount),
		slog.String("rule", string(rule)),
	)

	return game, nil
}

// SubmitGuess scores a guess and records it. A rejected guess changes nothing.
func (c *Controller) SubmitGuess(ctx context.Context, gameID model.GameID, guess string) (*GuessOutcome, error) {
	var outcome GuessOutcome
	wasCompleted := false

	_, err := c.storage.UpdateGame(ctx, gameID, func(game *model.GameSession) error {
		if game.Completed && c.cfg.LockAfterCompletion {
			return model.ErrGameComplete
		}
		result, err := c.scoring.Score(game.Secret, guess, game.Rule)
		if err != nil {
			return err
		}

		now := c.clock.Now()
		wasCompleted = game.Completed
		game.Turns++
		game.Completed = game.Completed || c.scoring.IsSolved(result, game.DigitCount)
		game.History = append(game.History, model.GuessRecord{
			Turn:   game.Turns,
			Guess:  guess,
			Result: result,
			At:     now,
		})
		game.UpdatedAt = now

		outcome = GuessOutcome{
			GameID:    game.ID,
			Result:    result,
			Turns:     game.Turns,
			Completed: game.Completed,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if outcome.Completed && !wasCompleted {
		c.logger.Info("solo game solved",
			slog.String("game_id", string(gameID)),
			slog.Int("turns", outcome.Turns),
		)
	}

	return &outcome, nil
}

// GetGame retrieves a game by id
func (c *Controller) GetGame(ctx context.Context, gameID model.GameID) (*model.GameSession, error) {
	return c.storage.GetGame(ctx, gameID)
}

// ListGames returns a player's games, newest first
func (c *Controller) ListGames(ctx context.Context, ownerID model.PlayerID) ([]*model.GameSession, error) {
	return c.storage.ListGamesByOwner(ctx, ownerID)
}

// ControllerInterface defines the interface for solo game controller (for mocking)
type ControllerInterface interface {
	Start(ctx context.Context, ownerID model.PlayerID, digitCount int, rule model.ScoringRule) (*model.GameSession, error)
	SubmitGuess(ctx context.Context, gameID model.GameID, guess string) (*GuessOutcome, error)
	GetGame(ctx context.Context, gameID model.GameID) (*model.GameSession, error)
	ListGames(ctx context.Context, ownerID model.PlayerID) ([]*model.GameSession, error)
}

// Ensure Controller implements ControllerInterface
var _ ControllerInterface = (*Controller)(nil)
