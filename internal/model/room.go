package model

import (
	"sort"
	"time"
)

// RoomID uniquely identifies a room
type RoomID string

// RoomCode is a human-shareable identifier for joining rooms
type RoomCode string

// RoomMode selects who supplies the secrets in a room
type RoomMode string

const (
	ModeBot       RoomMode = "bot"        // One generated secret shared by every player
	ModeTwoPlayer RoomMode = "two_player" // Each player guesses a secret set by the other
)

// ParseRoomMode converts user input to a RoomMode
func ParseRoomMode(s string) (RoomMode, error) {
	switch RoomMode(s) {
	case ModeBot, ModeTwoPlayer:
		return RoomMode(s), nil
	case "two-player", "multiplayer":
		return ModeTwoPlayer, nil
	default:
		return "", ErrInvalidMode
	}
}

// WinningPolicy determines when a room transitions to completed
type WinningPolicy string

const (
	PolicyFastest     WinningPolicy = "fastest"      // First player to solve ends the room
	PolicyLowestTurns WinningPolicy = "lowest_turns" // Room ends once no one can beat the best finisher
)

// ParseWinningPolicy converts user input to a WinningPolicy
func ParseWinningPolicy(s string) (WinningPolicy, error) {
	switch WinningPolicy(s) {
	case PolicyFastest, PolicyLowestTurns:
		return WinningPolicy(s), nil
	case "lowest", "lowest-turns":
		return PolicyLowestTurns, nil
	default:
		return "", ErrInvalidPolicy
	}
}

// RoomState is the lifecycle phase of a room
type RoomState string

const (
	RoomStateOpen       RoomState = "open"        // Awaiting secrets or a first guess
	RoomStateInProgress RoomState = "in_progress" // At least one guess has been scored
	RoomStateCompleted  RoomState = "completed"   // Winning policy fired
)

// SecretSlot names where a secret sits in a room
type SecretSlot string

const (
	SlotBot           SecretSlot = "bot"            // Generated secret in bot rooms
	SlotPlayer1Target SecretSlot = "player1_target" // Guessed by the first player, set by the second
	SlotPlayer2Target SecretSlot = "player2_target" // Guessed by the second player, set by the first
)

// PlayerRole is a player's seat in a room, fixed at join time
type PlayerRole string

const (
	RoleFirst  PlayerRole = "first"  // Room creator
	RoleSecond PlayerRole = "second" // First player to join
	RoleGuest  PlayerRole = "guest"  // Any later player in a bot room
)

// Opponent returns the opposing two-player role, or empty for guests
func (r PlayerRole) Opponent() PlayerRole {
	switch r {
	case RoleFirst:
		return RoleSecond
	case RoleSecond:
		return RoleFirst
	default:
		return ""
	}
}

// Room is a multiplayer container of players guessing one or two secrets
type Room struct {
	ID            RoomID
	Code          RoomCode
	CreatorID     PlayerID
	Mode          RoomMode
	WinningPolicy WinningPolicy
	Rule          ScoringRule
	DigitCount    int
	Secrets       map[SecretSlot]Secret
	State         RoomState
	Round         int // Incremented on every reset, starting at 1
	CompletedAt   *time.Time

	// CompletionCounter orders players by the moment they solved the secret
	CompletionCounter int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsCompleted returns true once the winning policy has fired
func (r *Room) IsCompleted() bool {
	return r.State == RoomStateCompleted
}

// TargetSlot returns the slot holding the secret a player in the given role guesses
func (r *Room) TargetSlot(role PlayerRole) SecretSlot {
	if r.Mode == ModeBot {
		return SlotBot
	}
	switch role {
	case RoleFirst:
		return SlotPlayer1Target
	case RoleSecond:
		return SlotPlayer2Target
	default:
		return ""
	}
}

// OpponentSlot returns the slot a player in the given role sets for their opponent
func (r *Room) OpponentSlot(role PlayerRole) SecretSlot {
	return r.TargetSlot(role.Opponent())
}

// SecretFor returns the secret a player in the given role must guess
func (r *Room) SecretFor(role PlayerRole) (Secret, bool) {
	slot := r.TargetSlot(role)
	if slot == "" {
		return "", false
	}
	secret, ok := r.Secrets[slot]
	return secret, ok && !secret.IsZero()
}

// Clone returns a deep copy of the room
func (r *Room) Clone() *Room {
	c := *r
	c.Secrets = make(map[SecretSlot]Secret, len(r.Secrets))
	for k, v := range r.Secrets {
		c.Secrets[k] = v
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

// PlayerProgress is one player's progress within a room
type PlayerProgress struct {
	RoomID       RoomID
	PlayerID     PlayerID
	DisplayName  string
	Role         PlayerRole
	JoinSeq      int // 0 for the creator, incremented per joiner
	Turns        int
	Completed    bool
	CompletedSeq int // Order of completion within the round, 0 if not completed
	LastGuess    string
	LastResult   ScoreResult
	JoinedAt     time.Time
	UpdatedAt    time.Time
}

// Clone returns a copy of the progress record
func (p *PlayerProgress) Clone() *PlayerProgress {
	c := *p
	return &c
}

// ResetProgress clears all per-round progress while keeping membership
func (p *PlayerProgress) ResetProgress(now time.Time) {
	p.Turns = 0
	p.Completed = false
	p.CompletedSeq = 0
	p.LastGuess = ""
	p.LastResult = ScoreResult{}
	p.UpdatedAt = now
}

// RoomSnapshot is a room together with its full roster, read atomically
type RoomSnapshot struct {
	Room   *Room
	Roster []*PlayerProgress // Ordered by JoinSeq
}

// Member returns the progress record for a player, or nil if not a member
func (s *RoomSnapshot) Member(playerID PlayerID) *PlayerProgress {
	for _, p := range s.Roster {
		if p.PlayerID == playerID {
			return p
		}
	}
	return nil
}

// MemberByRole returns the progress record holding the given role, or nil
func (s *RoomSnapshot) MemberByRole(role PlayerRole) *PlayerProgress {
	for _, p := range s.Roster {
		if p.Role == role {
			return p
		}
	}
	return nil
}

// NextRole returns the role the next joining player would receive
func (s *RoomSnapshot) NextRole() PlayerRole {
	switch len(s.Roster) {
	case 0:
		return RoleFirst
	case 1:
		return RoleSecond
	default:
		return RoleGuest
	}
}

// Winner returns the completed player with the fewest turns, ties broken by
// completion order. Returns nil if no one has completed.
func (s *RoomSnapshot) Winner() *PlayerProgress {
	var best *PlayerProgress
	for _, p := range s.Roster {
		if !p.Completed {
			continue
		}
		if best == nil || p.Turns < best.Turns ||
			(p.Turns == best.Turns && p.CompletedSeq < best.CompletedSeq) {
			best = p
		}
	}
	return best
}

// Standings returns the roster ordered by turns ascending, then join order
func (s *RoomSnapshot) Standings() []*PlayerProgress {
	out := make([]*PlayerProgress, len(s.Roster))
	copy(out, s.Roster)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Turns != out[j].Turns {
			return out[i].Turns < out[j].Turns
		}
		return out[i].JoinSeq < out[j].JoinSeq
	})
	return out
}

// Clone returns a deep copy of the snapshot
func (s *RoomSnapshot) Clone() *RoomSnapshot {
	roster := make([]*PlayerProgress, len(s.Roster))
	for i, p := range s.Roster {
		roster[i] = p.Clone()
	}
	return &RoomSnapshot{Room: s.Room.Clone(), Roster: roster}
}

// RoomStatus is the externally visible completion state of a room
type RoomStatus struct {
	State  RoomState
	Round  int
	Winner *PlayerProgress // nil unless completed with a finisher
}
