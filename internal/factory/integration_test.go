package factory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/digitguess/internal/model"
	"github.com/mcoot/digitguess/internal/services/room"
	"github.com/mcoot/digitguess/internal/services/solo"
	sqlitestorage "github.com/mcoot/digitguess/internal/storage/sqlite"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
}

func (s *IntegrationSuite) TearDownTest() {
	s.Require().NoError(s.app.Close())
}

func (s *IntegrationSuite) createPlayer(id, name string) model.Player {
	return model.Player{
		ID:          model.PlayerID(id),
		DisplayName: name,
		IsGuest:     true,
		CreatedAt:   s.app.MockClock.Now(),
	}
}

// Test: solo game from start to solve, with history persisted
func (s *IntegrationSuite) TestSoloGameFlow() {
	s.app.MockRandom.QueueDigits("1234")
	s.app.MockRandom.QueueUUID("game-1")

	game, err := s.app.SoloController.Start(s.ctx, "alice", 4, model.RuleRelaxed)
	s.Require().NoError(err)
	s.Equal(model.GameID("game-1"), game.ID)

	outcome, err := s.app.SoloController.SubmitGuess(s.ctx, game.ID, "1243")
	s.Require().NoError(err)
	s.Equal(model.ScoreResult{NumbersCorrect: 4, PositionsCorrect: 2}, outcome.Result)
	s.False(outcome.Completed)

	outcome, err = s.app.SoloController.SubmitGuess(s.ctx, game.ID, "1234")
	s.Require().NoError(err)
	s.True(outcome.Completed)
	s.Equal(2, outcome.Turns)

	games, err := s.app.SoloController.ListGames(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().Len(games, 1)
	s.Len(games[0].History, 2)
	s.True(games[0].Completed)
}

// Test: bot room where the winner lands on the leaderboard
func (s *IntegrationSuite) TestBotRoomFlowRecordsLeaderboard() {
	s.app.MockRandom.QueueUUID("room-1")
	s.app.MockRandom.QueueString("ABC234")
	s.app.MockRandom.QueueDigits("0042")

	alice := s.createPlayer("alice", "Alice")
	bob := s.createPlayer("bob", "Bob")

	snap, err := s.app.RoomController.CreateRoom(s.ctx, alice, room.CreateRoomParams{
		Mode:          model.ModeBot,
		WinningPolicy: model.PolicyFastest,
		Rule:          model.RuleStrict,
		DigitCount:    4,
	})
	s.Require().NoError(err)
	s.Equal(model.RoomCode("ABC234"), snap.Room.Code)

	_, err = s.app.RoomController.JoinRoom(s.ctx, "ABC234", bob, "")
	s.Require().NoError(err)

	outcome, err := s.app.RoomController.SubmitGuess(s.ctx, snap.Room.ID, alice, "1111")
	s.Require().NoError(err)
	s.False(outcome.RoomCompleted)

	outcome, err = s.app.RoomController.SubmitGuess(s.ctx, snap.Room.ID, bob, "0042")
	s.Require().NoError(err)
	s.True(outcome.Completed)
	s.True(outcome.RoomCompleted)

	status, err := s.app.RoomController.RoomStatus(s.ctx, snap.Room.ID)
	s.Require().NoError(err)
	s.Equal(model.RoomStateCompleted, status.State)
	s.Require().NotNil(status.Winner)
	s.Equal(model.PlayerID("bob"), status.Winner.PlayerID)

	top, err := s.app.LeaderboardService.Top(s.ctx, 0)
	s.Require().NoError(err)
	s.Require().Len(top, 1)
	s.Equal(model.PlayerID("bob"), top[0].PlayerID)
	s.Equal(1, top[0].BestTurns)
}

// Test: two-player lowest-turns room, then a reset into a second round
func (s *IntegrationSuite) TestTwoPlayerFlowWithReset() {
	s.app.MockRandom.QueueUUID("room-1")
	s.app.MockRandom.QueueString("XYZ789")

	alice := s.createPlayer("alice", "Alice")
	bob := s.createPlayer("bob", "Bob")

	snap, err := s.app.RoomController.CreateRoom(s.ctx, alice, room.CreateRoomParams{
		Mode:           model.ModeTwoPlayer,
		WinningPolicy:  model.PolicyLowestTurns,
		Rule:           model.RuleRelaxed,
		DigitCount:     4,
		OpponentSecret: "5678",
	})
	s.Require().NoError(err)
	roomID := snap.Room.ID

	// Alice's target is unset until Bob supplies it
	_, err = s.app.RoomController.SubmitGuess(s.ctx, roomID, alice, "1234")
	s.ErrorIs(err, model.ErrSecretNotReady)

	_, err = s.app.RoomController.JoinRoom(s.ctx, "XYZ789", bob, "1234")
	s.Require().NoError(err)

	outcome, err := s.app.RoomController.SubmitGuess(s.ctx, roomID, alice, "1234")
	s.Require().NoError(err)
	s.True(outcome.Completed)
	s.False(outcome.RoomCompleted, "bob can still tie")

	outcome, err = s.app.RoomController.SubmitGuess(s.ctx, roomID, bob, "0000")
	s.Require().NoError(err)
	s.False(outcome.RoomCompleted, "bob has used one turn and can still tie")

	outcome, err = s.app.RoomController.SubmitGuess(s.ctx, roomID, bob, "5678")
	s.Require().NoError(err)
	s.True(outcome.RoomCompleted)

	status, err := s.app.RoomController.RoomStatus(s.ctx, roomID)
	s.Require().NoError(err)
	s.Require().NotNil(status.Winner)
	s.Equal(model.PlayerID("alice"), status.Winner.PlayerID)

	// Two-player wins never reach the leaderboard
	top, err := s.app.LeaderboardService.Top(s.ctx, 10)
	s.Require().NoError(err)
	s.Empty(top)

	snap, err = s.app.RoomController.ResetRoom(s.ctx, roomID, alice.ID, "9999")
	s.Require().NoError(err)
	s.Equal(2, snap.Room.Round)
	s.Equal(model.RoomStateOpen, snap.Room.State)
	s.Len(snap.Roster, 2)

	_, err = s.app.RoomController.SubmitGuess(s.ctx, roomID, alice, "1234")
	s.ErrorIs(err, model.ErrSecretNotReady)

	outcome, err = s.app.RoomController.SubmitGuess(s.ctx, roomID, bob, "9999")
	s.Require().NoError(err)
	s.Equal(1, outcome.Turns)
	s.Equal(2, outcome.Round)
}

// Test: the locked solo policy wires through the factory
func (s *IntegrationSuite) TestSoloLockAfterCompletion() {
	app := NewTestAppWithSolo(solo.Config{LockAfterCompletion: true})
	defer app.Close()
	app.MockRandom.QueueDigits("7")

	game, err := app.SoloController.Start(s.ctx, "alice", 1, model.RuleStrict)
	s.Require().NoError(err)

	_, err = app.SoloController.SubmitGuess(s.ctx, game.ID, "7")
	s.Require().NoError(err)

	_, err = app.SoloController.SubmitGuess(s.ctx, game.ID, "7")
	s.ErrorIs(err, model.ErrGameComplete)
}

func TestNewRejectsUnknownStorage(t *testing.T) {
	_, err := New(Config{StorageType: "cassandra"})
	if err == nil {
		t.Fatal("expected error for unknown storage type")
	}
}

func TestNewRequiresRedisConfig(t *testing.T) {
	_, err := New(Config{StorageType: StorageTypeRedis})
	if err == nil {
		t.Fatal("expected error without RedisConfig")
	}
}

func TestNewWithSQLiteStorage(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "app.db")

	app, err := New(Config{StorageType: StorageTypeSQLite, SQLiteConfig: &sqlitestorage.Config{Path: path}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if app.StorageType != StorageTypeSQLite {
		t.Errorf("StorageType = %q, want %q", app.StorageType, StorageTypeSQLite)
	}

	session, err := app.AuthService.CreateGuestPlayer(ctx, "Alice")
	if err != nil {
		t.Fatalf("CreateGuestPlayer: %v", err)
	}
	game, err := app.SoloController.Start(ctx, session.PlayerID, 4, model.RuleStrict)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := app.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := New(Config{StorageType: StorageTypeSQLite, SQLiteConfig: &sqlitestorage.Config{Path: path}})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	if _, err := reopened.AuthService.ValidateSession(ctx, session.Token); err != nil {
		t.Errorf("session lost across restart: %v", err)
	}
	if _, err := reopened.SoloController.GetGame(ctx, game.ID); err != nil {
		t.Errorf("game lost across restart: %v", err)
	}
}
