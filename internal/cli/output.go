package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mcoot/digitguess/internal/api/response"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.Player:
		o.printPlayer(v)
	case response.AuthResponse:
		o.printAuthResult(v)
	case response.Game:
		o.printGame(v)
	case response.GameList:
		o.printGameList(v)
	case response.SoloGuessResult:
		o.printSoloGuess(v)
	case response.Room:
		o.printRoom(v)
	case response.RoomGuessResult:
		o.printRoomGuess(v)
	case response.RoomStatus:
		o.printRoomStatus(v)
	case response.RoomSummary:
		o.printRoomSummary(v)
	case response.Leaderboard:
		o.printLeaderboard(v)
	case response.Health:
		fmt.Fprintf(o.w, "Status: %s\n", v.Status)
		fmt.Fprintf(o.w, "Storage: %s\n", v.Storage)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printPlayer(p response.Player) {
	guestStr := "no"
	if p.IsGuest {
		guestStr = "yes"
	}
	fmt.Fprintf(o.w, "Player: %s (%s)\n", p.DisplayName, p.ID)
	fmt.Fprintf(o.w, "Guest: %s\n", guestStr)
}

func (o *Output) printAuthResult(a response.AuthResponse) {
	o.printPlayer(a.Player)
	fmt.Fprintf(o.w, "Token: %s\n", a.SessionToken)
	fmt.Fprintf(o.w, "Expires: %s\n", a.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
}

func formatScore(s response.Score) string {
	return fmt.Sprintf("%d numbers, %d positions", s.NumbersCorrect, s.PositionsCorrect)
}

func (o *Output) printGame(g response.Game) {
	fmt.Fprintf(o.w, "Game: %s\n", g.ID)
	fmt.Fprintf(o.w, "Digits: %d (%s)\n", g.DigitCount, g.Rule)
	fmt.Fprintf(o.w, "Turns: %d\n", g.Turns)
	if g.Completed {
		fmt.Fprintln(o.w, "Solved!")
	}
	if len(g.History) > 0 {
		fmt.Fprintln(o.w, "\nHistory:")
		for _, h := range g.History {
			fmt.Fprintf(o.w, "  %3d  %s  %s\n", h.Turn, h.Guess, formatScore(h.Score))
		}
	}
}

func (o *Output) printGameList(l response.GameList) {
	if len(l.Games) == 0 {
		fmt.Fprintln(o.w, "No games")
		return
	}
	for _, g := range l.Games {
		state := "in progress"
		if g.Completed {
			state = "solved"
		}
		fmt.Fprintf(o.w, "%s  %d digits  %s  %d turns  %s\n", g.ID, g.DigitCount, g.Rule, g.Turns, state)
	}
}

func (o *Output) printSoloGuess(r response.SoloGuessResult) {
	fmt.Fprintf(o.w, "Turn %d: %s\n", r.Turns, formatScore(r.Score))
	if r.Completed {
		fmt.Fprintf(o.w, "Solved in %d turns!\n", r.Turns)
	}
}

func (o *Output) printRoom(r response.Room) {
	fmt.Fprintf(o.w, "Room: %s (code %s)\n", r.ID, r.Code)
	fmt.Fprintf(o.w, "Mode: %s, policy: %s, rule: %s, %d digits\n", r.Mode, r.WinningPolicy, r.Rule, r.DigitCount)
	fmt.Fprintf(o.w, "State: %s (round %d)\n", r.State, r.Round)

	var missing []string
	for slot, set := range r.SecretsSet {
		if !set {
			missing = append(missing, slot)
		}
	}
	if len(missing) > 0 {
		fmt.Fprintf(o.w, "Waiting for secrets: %s\n", strings.Join(missing, ", "))
	}

	fmt.Fprintf(o.w, "Players (%d):\n", len(r.Players))
	for _, p := range r.Players {
		o.printProgress(p, r.CreatorID)
	}
}

func (o *Output) printProgress(p response.Progress, creatorID string) {
	tags := ""
	if p.PlayerID == creatorID {
		tags += " [creator]"
	}
	if p.Completed {
		tags += " [solved]"
	}
	last := ""
	if p.LastScore != nil {
		last = fmt.Sprintf(", last %s: %s", p.LastGuess, formatScore(*p.LastScore))
	}
	fmt.Fprintf(o.w, "  - %s (%s) %s: %d turns%s%s\n", p.DisplayName, p.PlayerID, p.Role, p.Turns, last, tags)
}

func (o *Output) printRoomGuess(r response.RoomGuessResult) {
	fmt.Fprintf(o.w, "Turn %d: %s\n", r.Turns, formatScore(r.Score))
	if r.Completed {
		fmt.Fprintf(o.w, "Solved in %d turns!\n", r.Turns)
	}
	if r.RoomCompleted {
		fmt.Fprintln(o.w, "Room complete")
	}
}

func (o *Output) printRoomStatus(s response.RoomStatus) {
	fmt.Fprintf(o.w, "State: %s (round %d)\n", s.State, s.Round)
	if s.Winner != nil {
		fmt.Fprintf(o.w, "Winner: %s (%s) in %d turns\n", s.Winner.DisplayName, s.Winner.PlayerID, s.Winner.Turns)
	} else if s.Completed {
		fmt.Fprintln(o.w, "No winner")
	}
}

func (o *Output) printRoomSummary(s response.RoomSummary) {
	if len(s.Standings) == 0 {
		fmt.Fprintln(o.w, "No players")
		return
	}
	for i, p := range s.Standings {
		state := "playing"
		if p.Completed {
			state = "solved"
		}
		fmt.Fprintf(o.w, "%d. %s (%s) %d turns, %s\n", i+1, p.DisplayName, p.PlayerID, p.Turns, state)
	}
}

func (o *Output) printLeaderboard(l response.Leaderboard) {
	if len(l.Entries) == 0 {
		fmt.Fprintln(o.w, "Leaderboard is empty")
		return
	}
	for _, e := range l.Entries {
		fmt.Fprintf(o.w, "%3d. %-20s %d turns\n", e.Rank, e.DisplayName, e.BestTurns)
	}
}
