package response

import (
	"time"

	"github.com/mcoot/digitguess/internal/model"
	"github.com/mcoot/digitguess/internal/services/room"
	"github.com/mcoot/digitguess/internal/services/solo"
)

// Player represents a player in API responses
type Player struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	IsGuest     bool   `json:"is_guest"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	return Player{
		ID:          string(p.ID),
		DisplayName: p.DisplayName,
		IsGuest:     p.IsGuest,
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	Player       Player    `json:"player"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *model.AuthSession) AuthResponse {
	return AuthResponse{
		Player:       PlayerFromModel(&s.Player),
		SessionToken: s.Token,
		ExpiresAt:    s.ExpiresAt,
	}
}

// Score is the feedback for one guess
type Score struct {
	NumbersCorrect   int `json:"numbers_correct"`
	PositionsCorrect int `json:"positions_correct"`
}

// ScoreFromModel converts a model.ScoreResult
func ScoreFromModel(r model.ScoreResult) Score {
	return Score{NumbersCorrect: r.NumbersCorrect, PositionsCorrect: r.PositionsCorrect}
}

// Guess is one entry of a solo game's history
type Guess struct {
	Turn  int       `json:"turn"`
	Guess string    `json:"guess"`
	Score Score     `json:"score"`
	At    time.Time `json:"at"`
}

// Game is a solo game. The secret is never included.
type Game struct {
	ID         string    `json:"id"`
	DigitCount int       `json:"digit_count"`
	Rule       string    `json:"rule"`
	Turns      int       `json:"turns"`
	Completed  bool      `json:"completed"`
	History    []Guess   `json:"history"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// GameFromModel converts a model.GameSession
func GameFromModel(g *model.GameSession) Game {
	history := make([]Guess, len(g.History))
	for i, h := range g.History {
		history[i] = Guess{Turn: h.Turn, Guess: h.Guess, Score: ScoreFromModel(h.Result), At: h.At}
	}
	return Game{
		ID:         string(g.ID),
		DigitCount: g.DigitCount,
		Rule:       string(g.Rule),
		Turns:      g.Turns,
		Completed:  g.Completed,
		History:    history,
		CreatedAt:  g.CreatedAt,
		UpdatedAt:  g.UpdatedAt,
	}
}

// GameList wraps a player's solo games
type GameList struct {
	Games []Game `json:"games"`
}

// GameListFromModel converts a list of solo games
func GameListFromModel(games []*model.GameSession) GameList {
	out := GameList{Games: make([]Game, len(games))}
	for i, g := range games {
		out.Games[i] = GameFromModel(g)
	}
	return out
}

// SoloGuessResult is the response to a solo guess
type SoloGuessResult struct {
	GameID    string `json:"game_id"`
	Score     Score  `json:"score"`
	Turns     int    `json:"turns"`
	Completed bool   `json:"completed"`
}

// SoloGuessResultFromOutcome converts a solo.GuessOutcome
func SoloGuessResultFromOutcome(o *solo.GuessOutcome) SoloGuessResult {
	return SoloGuessResult{
		GameID:    string(o.GameID),
		Score:     ScoreFromModel(o.Result),
		Turns:     o.Turns,
		Completed: o.Completed,
	}
}

// Progress is one player's standing in a room
type Progress struct {
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	Turns       int    `json:"turns"`
	Completed   bool   `json:"completed"`
	LastGuess   string `json:"last_guess,omitempty"`
	LastScore   *Score `json:"last_score,omitempty"`
}

// ProgressFromModel converts a model.PlayerProgress
func ProgressFromModel(p *model.PlayerProgress) Progress {
	out := Progress{
		PlayerID:    string(p.PlayerID),
		DisplayName: p.DisplayName,
		Role:        string(p.Role),
		Turns:       p.Turns,
		Completed:   p.Completed,
		LastGuess:   p.LastGuess,
	}
	if p.LastGuess != "" {
		score := ScoreFromModel(p.LastResult)
		out.LastScore = &score
	}
	return out
}

// Room is a room and its roster. Only which slots are filled is exposed, never the secrets.
type Room struct {
	ID            string          `json:"id"`
	Code          string          `json:"code"`
	CreatorID     string          `json:"creator_id"`
	Mode          string          `json:"mode"`
	WinningPolicy string          `json:"winning_policy"`
	Rule          string          `json:"rule"`
	DigitCount    int             `json:"digit_count"`
	State         string          `json:"state"`
	Round         int             `json:"round"`
	SecretsSet    map[string]bool `json:"secrets_set"`
	Players       []Progress      `json:"players"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// RoomFromModel converts a model.RoomSnapshot
func RoomFromModel(snap *model.RoomSnapshot) Room {
	r := snap.Room
	secretsSet := make(map[string]bool)
	if r.Mode == model.ModeBot {
		secretsSet[string(model.SlotBot)] = !r.Secrets[model.SlotBot].IsZero()
	} else {
		secretsSet[string(model.SlotPlayer1Target)] = !r.Secrets[model.SlotPlayer1Target].IsZero()
		secretsSet[string(model.SlotPlayer2Target)] = !r.Secrets[model.SlotPlayer2Target].IsZero()
	}

	players := make([]Progress, len(snap.Roster))
	for i, p := range snap.Roster {
		players[i] = ProgressFromModel(p)
	}

	return Room{
		ID:            string(r.ID),
		Code:          string(r.Code),
		CreatorID:     string(r.CreatorID),
		Mode:          string(r.Mode),
		WinningPolicy: string(r.WinningPolicy),
		Rule:          string(r.Rule),
		DigitCount:    r.DigitCount,
		State:         string(r.State),
		Round:         r.Round,
		SecretsSet:    secretsSet,
		Players:       players,
		CompletedAt:   r.CompletedAt,
		CreatedAt:     r.CreatedAt,
	}
}

// RoomGuessResult is the response to a room guess
type RoomGuessResult struct {
	RoomID        string `json:"room_id"`
	Round         int    `json:"round"`
	Score         Score  `json:"score"`
	Turns         int    `json:"turns"`
	Completed     bool   `json:"completed"`
	RoomCompleted bool   `json:"room_completed"`
}

// RoomGuessResultFromOutcome converts a room.GuessOutcome
func RoomGuessResultFromOutcome(o *room.GuessOutcome) RoomGuessResult {
	return RoomGuessResult{
		RoomID:        string(o.RoomID),
		Round:         o.Round,
		Score:         ScoreFromModel(o.Result),
		Turns:         o.Turns,
		Completed:     o.Completed,
		RoomCompleted: o.RoomCompleted,
	}
}

// Winner identifies the winning player of a room
type Winner struct {
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name"`
	Turns       int    `json:"turns"`
}

// RoomStatus is the completion state of a room
type RoomStatus struct {
	State     string  `json:"state"`
	Round     int     `json:"round"`
	Completed bool    `json:"completed"`
	Winner    *Winner `json:"winner"`
}

// RoomStatusFromModel converts a model.RoomStatus
func RoomStatusFromModel(s *model.RoomStatus) RoomStatus {
	out := RoomStatus{
		State:     string(s.State),
		Round:     s.Round,
		Completed: s.State == model.RoomStateCompleted,
	}
	if s.Winner != nil {
		out.Winner = &Winner{
			PlayerID:    string(s.Winner.PlayerID),
			DisplayName: s.Winner.DisplayName,
			Turns:       s.Winner.Turns,
		}
	}
	return out
}

// RoomSummary is a room's roster ordered by turns
type RoomSummary struct {
	Standings []Progress `json:"standings"`
}

// RoomSummaryFromModel converts ordered standings
func RoomSummaryFromModel(standings []*model.PlayerProgress) RoomSummary {
	out := RoomSummary{Standings: make([]Progress, len(standings))}
	for i, p := range standings {
		out.Standings[i] = ProgressFromModel(p)
	}
	return out
}

// LeaderboardEntry is one ranked leaderboard row
type LeaderboardEntry struct {
	Rank        int       `json:"rank"`
	PlayerID    string    `json:"player_id"`
	DisplayName string    `json:"display_name"`
	BestTurns   int       `json:"best_turns"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Leaderboard is the top of the leaderboard
type Leaderboard struct {
	Entries []LeaderboardEntry `json:"entries"`
}

// LeaderboardFromModel converts entries already ordered best first
func LeaderboardFromModel(entries []model.LeaderboardEntry) Leaderboard {
	out := Leaderboard{Entries: make([]LeaderboardEntry, len(entries))}
	for i, e := range entries {
		out.Entries[i] = LeaderboardEntry{
			Rank:        i + 1,
			PlayerID:    string(e.PlayerID),
			DisplayName: e.DisplayName,
			BestTurns:   e.BestTurns,
			UpdatedAt:   e.UpdatedAt,
		}
	}
	return out
}

// Health is the health check response
type Health struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}
