package model

import "time"

// GameID uniquely identifies a solo game session
type GameID string

// GuessRecord is one scored guess in a game's history
type GuessRecord struct {
	Turn   int
	Guess  string
	Result ScoreResult
	At     time.Time
}

// GameSession is a single-player game against a generated secret
type GameSession struct {
	ID         GameID
	OwnerID    PlayerID
	Secret     Secret
	DigitCount int
	Rule       ScoringRule
	Turns      int
	Completed  bool
	History    []GuessRecord
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// LastGuess returns the most recent guess record, or nil if none
func (g *GameSession) LastGuess() *GuessRecord {
	if len(g.History) == 0 {
		return nil
	}
	return &g.History[len(g.History)-1]
}

// Clone returns a deep copy of the game session
func (g *GameSession) Clone() *GameSession {
	c := *g
	c.History = make([]GuessRecord, len(g.History))
	copy(c.History, g.History)
	return &c
}
