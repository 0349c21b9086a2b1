package room

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mcoot/digitguess/internal/dependencies/clock"
	"github.com/mcoot/digitguess/internal/dependencies/random"
	"github.com/mcoot/digitguess/internal/model"
	"github.com/mcoot/digitguess/internal/services/leaderboard"
	"github.com/mcoot/digitguess/internal/services/scoring"
	"github.com/mcoot/digitguess/internal/services/secret"
	"github.com/mcoot/digitguess/internal/storage"
)

// MaxCodeAttempts bounds room code draws before giving up
const MaxCodeAttempts = 32

// EventPublisher receives room events after each committed change
type EventPublisher interface {
	Publish(event model.RoomEvent)
}

// CreateRoomParams holds the settings chosen by the room creator
type CreateRoomParams struct {
	Mode          model.RoomMode
	WinningPolicy model.WinningPolicy
	Rule          model.ScoringRule
	DigitCount    int
	// OpponentSecret is the secret the joining player will guess (two-player only, optional)
	OpponentSecret string
}

// GuessOutcome is the result of a scored room guess
type GuessOutcome struct {
	RoomID        model.RoomID
	PlayerID      model.PlayerID
	Round         int
	Result        model.ScoreResult
	Turns         int
	Completed     bool
	RoomCompleted bool
}

// Controller coordinates room membership, secret exchange, guesses and completion
type Controller struct {
	storage     storage.Storage
	scoring     scoring.ServiceInterface
	generator   secret.GeneratorInterface
	leaderboard leaderboard.ServiceInterface
	clock       clock.Clock
	random      random.Random
	logger      *slog.Logger
	events      EventPublisher
}

// NewController creates a new room Controller
func NewController(
	storage storage.Storage,
	scoring scoring.ServiceInterface,
	generator secret.GeneratorInterface,
	leaderboard leaderboard.ServiceInterface,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage:     storage,
		scoring:     scoring,
		generator:   generator,
		leaderboard: leaderboard,
		clock:       clock,
		random:      random,
		logger:      logger.With(slog.String("component", "room-controller")),
	}
}

// SetEventPublisher sets the publisher notified of room changes
func (c *Controller) SetEventPublisher(events EventPublisher) {
	c.events = events
}

// CreateRoom creates a room with the creator seated as the first player
func (c *Controller) CreateRoom(ctx context.Context, creator model.Player, params CreateRoomParams) (*model.RoomSnapshot, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}

	now := c.clock.Now()
	room := &model.Room{
		ID:            model.RoomID(c.random.UUID()),
		CreatorID:     creator.ID,
		Mode:          params.Mode,
		WinningPolicy: params.WinningPolicy,
		Rule:          params.Rule,
		DigitCount:    params.DigitCount,
		Secrets:       make(map[model.SecretSlot]model.Secret),
		State:         model.RoomStateOpen,
		Round:         1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	switch params.Mode {
	case model.ModeBot:
		s, err := c.generator.Generate(params.DigitCount)
		if err != nil {
			return nil, err
		}
		room.Secrets[model.SlotBot] = s
	case model.ModeTwoPlayer:
		if params.OpponentSecret != "" {
			s, err := parseSecretFor(room, params.OpponentSecret)
			if err != nil {
				return nil, err
			}
			room.Secrets[room.OpponentSlot(model.RoleFirst)] = s
		}
	}

	snap := &model.RoomSnapshot{
		Room: room,
		Roster: []*model.PlayerProgress{
			newProgress(room.ID, creator, model.RoleFirst, 0, now),
		},
	}

	if err := c.insertWithUniqueCode(ctx, snap); err != nil {
		return nil, err
	}

	c.logger.Info("room created",
		slog.String("room_id", string(room.ID)),
		slog.String("room_code", string(room.Code)),
		slog.String("mode", string(room.Mode)),
		slog.String("winning_policy", string(room.WinningPolicy)),
		slog.Int("digit_count", room.DigitCount),
	)

	return snap, nil
}

// insertWithUniqueCode draws codes until storage accepts one
func (c *Controller) insertWithUniqueCode(ctx context.Context, snap *model.RoomSnapshot) error {
	for attempt := 0; attempt < MaxCodeAttempts; attempt++ {
		code := c.generator.RoomCode()
		snap.Room.Code = code

		err := c.storage.CreateRoom(ctx, snap)
		if err == nil {
			return nil
		}
		if !errors.Is(err, model.ErrRoomCodeTaken) {
			return fmt.Errorf("create room: %w", err)
		}
		c.logger.Debug("room code collision",
			slog.String("room_code", string(code)),
			slog.Int("attempt", attempt+1),
		)
	}
	c.logger.Error("room code space exhausted", slog.Int("attempts", MaxCodeAttempts))
	return model.ErrRoomCodeExhausted
}

// GetRoom retrieves a room and its roster
func (c *Controller) GetRoom(ctx context.Context, roomID model.RoomID) (*model.RoomSnapshot, error) {
	return c.storage.GetRoom(ctx, roomID)
}

// GetRoomByCode retrieves a room by its shareable code
func (c *Controller) GetRoomByCode(ctx context.Context, code model.RoomCode) (*model.RoomSnapshot, error) {
	roomID, err := c.storage.GetRoomIDByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return c.storage.GetRoom(ctx, roomID)
}

// JoinRoom seats a player in the room identified by code. Rejoining returns the
// existing seat. A supplied secret fills the slot the player's opponent guesses
// if that slot is still empty.
func (c *Controller) JoinRoom(ctx context.Context, code model.RoomCode, player model.Player, mySecret string) (*model.RoomSnapshot, error) {
	roomID, err := c.storage.GetRoomIDByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	var (
		joined     *model.PlayerProgress
		filledSlot model.SecretSlot
	)
	snap, err := c.storage.UpdateRoom(ctx, roomID, func(snap *model.RoomSnapshot) error {
		joined, filledSlot = nil, ""
		now := c.clock.Now()

		member := snap.Member(player.ID)
		role := snap.NextRole()
		if member != nil {
			role = member.Role
		} else if snap.Room.Mode == model.ModeTwoPlayer && len(snap.Roster) >= 2 {
			return model.ErrRoomFull
		}

		if snap.Room.Mode == model.ModeTwoPlayer && mySecret != "" {
			slot := snap.Room.OpponentSlot(role)
			if snap.Room.Secrets[slot].IsZero() {
				s, err := parseSecretFor(snap.Room, mySecret)
				if err != nil {
					return err
				}
				snap.Room.Secrets[slot] = s
				snap.Room.UpdatedAt = now
				filledSlot = slot
			}
		}

		if member == nil {
			joined = newProgress(snap.Room.ID, player, role, len(snap.Roster), now)
			snap.Roster = append(snap.Roster, joined)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if joined != nil {
		c.logger.Info("player joined room",
			slog.String("room_id", string(roomID)),
			slog.String("player_id", string(player.ID)),
			slog.String("role", string(joined.Role)),
		)
		c.publish(roomID, player.ID, model.EventPlayerJoined, model.PlayerJoinedPayload{
			DisplayName: player.DisplayName,
			Role:        joined.Role,
		})
	}
	if filledSlot != "" {
		c.publish(roomID, player.ID, model.EventSecretSet, model.SecretSetPayload{Slot: filledSlot})
	}

	return snap, nil
}

// SetOpponentSecret assigns the secret the caller's opponent must guess.
// Both seats must be filled and the slot must still be empty.
func (c *Controller) SetOpponentSecret(ctx context.Context, roomID model.RoomID, playerID model.PlayerID, raw string) (*model.RoomSnapshot, error) {
	var slot model.SecretSlot
	snap, err := c.storage.UpdateRoom(ctx, roomID, func(snap *model.RoomSnapshot) error {
		member := snap.Member(playerID)
		if snap.Room.Mode != model.ModeTwoPlayer || member == nil ||
			(member.Role != model.RoleFirst && member.Role != model.RoleSecond) {
			return model.ErrForbidden
		}
		if snap.MemberByRole(member.Role.Opponent()) == nil {
			return model.ErrOpponentNotJoined
		}

		s, err := parseSecretFor(snap.Room, raw)
		if err != nil {
			return err
		}
		slot = snap.Room.OpponentSlot(member.Role)
		if !snap.Room.Secrets[slot].IsZero() {
			return model.ErrSecretAlreadySet
		}
		snap.Room.Secrets[slot] = s
		snap.Room.UpdatedAt = c.clock.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.publish(roomID, playerID, model.EventSecretSet, model.SecretSetPayload{Slot: slot})
	return snap, nil
}

// SubmitGuess scores a guess against the caller's target secret, records it,
// and evaluates the room's winning policy against the persisted roster.
func (c *Controller) SubmitGuess(ctx context.Context, roomID model.RoomID, player model.Player, guess string) (*GuessOutcome, error) {
	var (
		outcome       GuessOutcome
		mode          model.RoomMode
		justCompleted bool
		winner        *model.PlayerProgress
	)

	_, err := c.storage.UpdateRoom(ctx, roomID, func(snap *model.RoomSnapshot) error {
		outcome, justCompleted, winner = GuessOutcome{}, false, nil
		room := snap.Room
		mode = room.Mode
		now := c.clock.Now()

		progress := snap.Member(player.ID)
		if progress == nil {
			if room.Mode == model.ModeTwoPlayer {
				return model.ErrForbidden
			}
			progress = newProgress(room.ID, player, snap.NextRole(), len(snap.Roster), now)
			snap.Roster = append(snap.Roster, progress)
		}
		if progress.Completed {
			return model.ErrAlreadySolved
		}

		target, ok := room.SecretFor(progress.Role)
		if !ok {
			return model.ErrSecretNotReady
		}
		result, err := c.scoring.Score(target, guess, room.Rule)
		if err != nil {
			return err
		}

		progress.Turns++
		progress.LastGuess = guess
		progress.LastResult = result
		progress.UpdatedAt = now
		if player.DisplayName != "" {
			progress.DisplayName = player.DisplayName
		}
		if c.scoring.IsSolved(result, room.DigitCount) {
			progress.Completed = true
			room.CompletionCounter++
			progress.CompletedSeq = room.CompletionCounter
		}

		if !room.IsCompleted() {
			if policySatisfied(room.WinningPolicy, snap.Roster) {
				room.State = model.RoomStateCompleted
				completedAt := now
				room.CompletedAt = &completedAt
				justCompleted = true
				if w := snap.Winner(); w != nil {
					winner = w.Clone()
				}
			} else {
				room.State = model.RoomStateInProgress
			}
		}
		room.UpdatedAt = now

		outcome = GuessOutcome{
			RoomID:        room.ID,
			PlayerID:      player.ID,
			Round:         room.Round,
			Result:        result,
			Turns:         progress.Turns,
			Completed:     progress.Completed,
			RoomCompleted: room.IsCompleted(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.publish(roomID, player.ID, model.EventGuessScored, model.GuessScoredPayload{
		DisplayName: player.DisplayName,
		Turns:       outcome.Turns,
		Result:      outcome.Result,
		Completed:   outcome.Completed,
	})

	if justCompleted {
		payload := model.RoomCompletedPayload{}
		attrs := []any{slog.String("room_id", string(roomID))}
		if winner != nil {
			payload.Winner = &winner.PlayerID
			payload.Turns = winner.Turns
			attrs = append(attrs,
				slog.String("winner_id", string(winner.PlayerID)),
				slog.Int("winner_turns", winner.Turns),
			)
		}
		c.logger.Info("room completed", attrs...)
		c.publish(roomID, player.ID, model.EventRoomCompleted, payload)
	}

	// Only the guess that completes a bot room records a win, and it records the
	// room's winner, who need not be the caller under lowest_turns.
	if mode == model.ModeBot && justCompleted && winner != nil && c.leaderboard != nil {
		if _, err := c.leaderboard.RecordWin(ctx, winner.PlayerID, winner.DisplayName, winner.Turns); err != nil {
			c.logger.Error("failed to record leaderboard win",
				slog.String("room_id", string(roomID)),
				slog.String("player_id", string(winner.PlayerID)),
				slog.String("error", err.Error()),
			)
		}
	}

	return &outcome, nil
}

// policySatisfied decides completion from the full current roster
func policySatisfied(policy model.WinningPolicy, roster []*model.PlayerProgress) bool {
	switch policy {
	case model.PolicyFastest:
		for _, p := range roster {
			if p.Completed {
				return true
			}
		}
		return false
	case model.PolicyLowestTurns:
		best := -1
		for _, p := range roster {
			if p.Completed && (best < 0 || p.Turns < best) {
				best = p.Turns
			}
		}
		if best < 0 {
			return false
		}
		// Closes once no unfinished player can still beat the best finisher
		for _, p := range roster {
			if !p.Completed && p.Turns <= best {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// RoomStatus reports whether the room is complete and who won
func (c *Controller) RoomStatus(ctx context.Context, roomID model.RoomID) (*model.RoomStatus, error) {
	snap, err := c.storage.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	status := &model.RoomStatus{
		State: snap.Room.State,
		Round: snap.Room.Round,
	}
	if snap.Room.IsCompleted() {
		status.Winner = snap.Winner()
	}
	return status, nil
}

// Summary returns the roster ordered by turns, then join order
func (c *Controller) Summary(ctx context.Context, roomID model.RoomID) ([]*model.PlayerProgress, error) {
	snap, err := c.storage.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return snap.Standings(), nil
}

// ResetRoom starts a new round in the same room. Only the creator may reset, and
// only while the room is open or completed.
// Membership and roles are kept while every player's progress is cleared.
// Bot rooms draw a fresh secret; two-player slots are emptied, except that a
// supplied opponentSecret fills the slot the joiner guesses.
func (c *Controller) ResetRoom(ctx context.Context, roomID model.RoomID, requesterID model.PlayerID, opponentSecret string) (*model.RoomSnapshot, error) {
	current, err := c.storage.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if current.Room.CreatorID != requesterID {
		return nil, model.ErrNotCreator
	}
	if current.Room.State == model.RoomStateInProgress {
		return nil, model.ErrRoundInProgress
	}

	secrets := make(map[model.SecretSlot]model.Secret)
	switch current.Room.Mode {
	case model.ModeBot:
		s, err := c.generator.Generate(current.Room.DigitCount)
		if err != nil {
			return nil, err
		}
		secrets[model.SlotBot] = s
	case model.ModeTwoPlayer:
		if opponentSecret != "" {
			s, err := parseSecretFor(current.Room, opponentSecret)
			if err != nil {
				return nil, err
			}
			secrets[current.Room.OpponentSlot(model.RoleFirst)] = s
		}
	}

	snap, err := c.storage.UpdateRoom(ctx, roomID, func(snap *model.RoomSnapshot) error {
		if snap.Room.State == model.RoomStateInProgress {
			return model.ErrRoundInProgress
		}
		now := c.clock.Now()
		room := snap.Room
		room.Secrets = make(map[model.SecretSlot]model.Secret, len(secrets))
		for slot, s := range secrets {
			room.Secrets[slot] = s
		}
		room.State = model.RoomStateOpen
		room.CompletedAt = nil
		room.CompletionCounter = 0
		room.Round++
		room.UpdatedAt = now
		for _, p := range snap.Roster {
			p.ResetProgress(now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("room reset",
		slog.String("room_id", string(roomID)),
		slog.Int("round", snap.Room.Round),
	)
	c.publish(roomID, requesterID, model.EventRoomReset, model.RoomResetPayload{Round: snap.Room.Round})

	return snap, nil
}

func (c *Controller) publish(roomID model.RoomID, playerID model.PlayerID, eventType model.EventType, payload any) {
	if c.events == nil {
		return
	}
	c.events.Publish(model.RoomEvent{
		Type:      eventType,
		Timestamp: c.clock.Now(),
		RoomID:    roomID,
		PlayerID:  playerID,
		Payload:   payload,
	})
}

func validateParams(params CreateRoomParams) error {
	switch params.Mode {
	case model.ModeBot, model.ModeTwoPlayer:
	default:
		return model.ErrInvalidMode
	}
	switch params.WinningPolicy {
	case model.PolicyFastest, model.PolicyLowestTurns:
	default:
		return model.ErrInvalidPolicy
	}
	switch params.Rule {
	case model.RuleStrict, model.RuleRelaxed:
	default:
		return model.ErrInvalidRule
	}
	return secret.ValidateDigitCount(params.DigitCount)
}

// parseSecretFor validates a player-supplied secret against the room's digit count
func parseSecretFor(room *model.Room, raw string) (model.Secret, error) {
	s, err := model.ParseSecret(raw)
	if err != nil {
		return "", err
	}
	if s.Len() != room.DigitCount {
		return "", model.ErrLengthMismatch
	}
	return s, nil
}

func newProgress(roomID model.RoomID, player model.Player, role model.PlayerRole, joinSeq int, now time.Time) *model.PlayerProgress {
	return &model.PlayerProgress{
		RoomID:      roomID,
		PlayerID:    player.ID,
		DisplayName: player.DisplayName,
		Role:        role,
		JoinSeq:     joinSeq,
		JoinedAt:    now,
		UpdatedAt:   now,
	}
}

// ControllerInterface defines the interface for room controller (for mocking)
type ControllerInterface interface {
	CreateRoom(ctx context.Context, creator model.Player, params CreateRoomParams) (*model.RoomSnapshot, error)
	GetRoom(ctx context.Context, roomID model.RoomID) (*model.RoomSnapshot, error)
	GetRoomByCode(ctx context.Context, code model.RoomCode) (*model.RoomSnapshot, error)
	JoinRoom(ctx context.Context, code model.RoomCode, player model.Player, mySecret string) (*model.RoomSnapshot, error)
	SetOpponentSecret(ctx context.Context, roomID model.RoomID, playerID model.PlayerID, raw string) (*model.RoomSnapshot, error)
	SubmitGuess(ctx context.Context, roomID model.RoomID, player model.Player, guess string) (*GuessOutcome, error)
	RoomStatus(ctx context.Context, roomID model.RoomID) (*model.RoomStatus, error)
	Summary(ctx context.Context, roomID model.RoomID) ([]*model.PlayerProgress, error)
	ResetRoom(ctx context.Context, roomID model.RoomID, requesterID model.PlayerID, opponentSecret string) (*model.RoomSnapshot, error)
}

// Ensure Controller implements ControllerInterface
var _ ControllerInterface = (*Controller)(nil)
