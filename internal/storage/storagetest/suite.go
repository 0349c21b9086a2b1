// Package storagetest holds the behaviour every storage backend must share.
// Backend test suites embed Suite and assign Storage in their SetupTest.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/digitguess/internal/model"
	"github.com/mcoot/digitguess/internal/storage"
)

// BaseTime is the fixed timestamp used for records created by the suite
var BaseTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

var errAbort = errors.New("abort")

// Suite is the storage conformance suite
type Suite struct {
	suite.Suite
	Storage storage.Storage
	Ctx     context.Context
}

// Fixtures

func (s *Suite) NewGame(id model.GameID, owner model.PlayerID, createdAt time.Time) *model.GameSession {
	return &model.GameSession{
		ID:         id,
		OwnerID:    owner,
		Secret:     "0123",
		DigitCount: 4,
		Rule:       model.RuleStrict,
		History:    []model.GuessRecord{},
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
}

func (s *Suite) NewRoom(id model.RoomID, code model.RoomCode) *model.RoomSnapshot {
	return &model.RoomSnapshot{
		Room: &model.Room{
			ID:            id,
			Code:          code,
			CreatorID:     "alice",
			Mode:          model.ModeTwoPlayer,
			WinningPolicy: model.PolicyLowestTurns,
			Rule:          model.RuleRelaxed,
			DigitCount:    4,
			Secrets:       map[model.SecretSlot]model.Secret{model.SlotPlayer2Target: "0042"},
			State:         model.RoomStateOpen,
			Round:         1,
			CreatedAt:     BaseTime,
			UpdatedAt:     BaseTime,
		},
		Roster: []*model.PlayerProgress{
			{RoomID: id, PlayerID: "alice", DisplayName: "Alice", Role: model.RoleFirst, JoinSeq: 0, JoinedAt: BaseTime, UpdatedAt: BaseTime},
		},
	}
}

// Player tests

func (s *Suite) TestSaveAndGetPlayer() {
	player := &model.Player{ID: "player-1", DisplayName: "Alice", CreatedAt: BaseTime}
	s.Require().NoError(s.Storage.SavePlayer(s.Ctx, player))

	got, err := s.Storage.GetPlayer(s.Ctx, "player-1")
	s.Require().NoError(err)
	s.Equal("Alice", got.DisplayName)
	s.False(got.IsGuest)
}

func (s *Suite) TestGetPlayerNotFound() {
	_, err := s.Storage.GetPlayer(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *Suite) TestRegisteredPlayerByUsername() {
	s.Require().NoError(s.Storage.SavePlayer(s.Ctx, &model.Player{ID: "player-1", DisplayName: "Alice"}))
	s.Require().NoError(s.Storage.SaveRegisteredPlayer(s.Ctx, &model.RegisteredPlayer{
		PlayerID:     "player-1",
		Username:     "alice",
		PasswordHash: "hash",
		CreatedAt:    BaseTime,
		UpdatedAt:    BaseTime,
	}))

	rp, err := s.Storage.GetRegisteredPlayerByUsername(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("player-1"), rp.PlayerID)
	s.Equal("hash", rp.PasswordHash)

	rp, err = s.Storage.GetRegisteredPlayer(s.Ctx, "player-1")
	s.Require().NoError(err)
	s.Equal("alice", rp.Username)

	_, err = s.Storage.GetRegisteredPlayerByUsername(s.Ctx, "bob")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// Session tests

func (s *Suite) TestSaveGetDeleteSession() {
	session := &model.AuthSession{
		Token:     "tok-1",
		PlayerID:  "player-1",
		Player:    model.Player{ID: "player-1", DisplayName: "Alice", IsGuest: true},
		CreatedAt: BaseTime,
		ExpiresAt: BaseTime.Add(time.Hour),
	}
	s.Require().NoError(s.Storage.SaveSession(s.Ctx, session))

	got, err := s.Storage.GetSession(s.Ctx, "tok-1")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("player-1"), got.PlayerID)
	s.Equal("Alice", got.Player.DisplayName)
	s.True(got.ExpiresAt.Equal(session.ExpiresAt))

	s.Require().NoError(s.Storage.DeleteSession(s.Ctx, "tok-1"))
	_, err = s.Storage.GetSession(s.Ctx, "tok-1")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *Suite) TestDeleteExpiredSessionsKeepsLiveSessions() {
	session := &model.AuthSession{
		Token:     "tok-live",
		PlayerID:  "player-1",
		CreatedAt: BaseTime,
		ExpiresAt: BaseTime.Add(time.Hour),
	}
	s.Require().NoError(s.Storage.SaveSession(s.Ctx, session))
	s.Require().NoError(s.Storage.DeleteExpiredSessions(s.Ctx, BaseTime.Add(time.Minute)))

	_, err := s.Storage.GetSession(s.Ctx, "tok-live")
	s.NoError(err)
}

// Game tests

func (s *Suite) TestCreateAndGetGame() {
	s.Require().NoError(s.Storage.CreateGame(s.Ctx, s.NewGame("game-1", "alice", BaseTime)))

	game, err := s.Storage.GetGame(s.Ctx, "game-1")
	s.Require().NoError(err)
	s.Equal(model.Secret("0123"), game.Secret)
	s.Equal(model.RuleStrict, game.Rule)
	s.Equal(4, game.DigitCount)
}

func (s *Suite) TestGetGameNotFound() {
	_, err := s.Storage.GetGame(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *Suite) TestUpdateGameAppliesMutation() {
	s.Require().NoError(s.Storage.CreateGame(s.Ctx, s.NewGame("game-1", "alice", BaseTime)))

	updated, err := s.Storage.UpdateGame(s.Ctx, "game-1", func(g *model.GameSession) error {
		g.Turns++
		g.History = append(g.History, model.GuessRecord{Turn: 1, Guess: "0000", At: BaseTime})
		return nil
	})
	s.Require().NoError(err)
	s.Equal(1, updated.Turns)

	game, err := s.Storage.GetGame(s.Ctx, "game-1")
	s.Require().NoError(err)
	s.Equal(1, game.Turns)
	s.Require().Len(game.History, 1)
	s.Equal("0000", game.History[0].Guess)
}

func (s *Suite) TestUpdateGameErrorWritesNothing() {
	s.Require().NoError(s.Storage.CreateGame(s.Ctx, s.NewGame("game-1", "alice", BaseTime)))

	_, err := s.Storage.UpdateGame(s.Ctx, "game-1", func(g *model.GameSession) error {
		g.Turns = 99
		return errAbort
	})
	s.ErrorIs(err, errAbort)

	game, err := s.Storage.GetGame(s.Ctx, "game-1")
	s.Require().NoError(err)
	s.Equal(0, game.Turns)
}

func (s *Suite) TestUpdateGameNotFound() {
	_, err := s.Storage.UpdateGame(s.Ctx, "missing", func(g *model.GameSession) error { return nil })
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *Suite) TestListGamesByOwner() {
	s.Require().NoError(s.Storage.CreateGame(s.Ctx, s.NewGame("game-1", "alice", BaseTime)))
	s.Require().NoError(s.Storage.CreateGame(s.Ctx, s.NewGame("game-2", "alice", BaseTime.Add(time.Minute))))
	s.Require().NoError(s.Storage.CreateGame(s.Ctx, s.NewGame("game-3", "bob", BaseTime)))

	games, err := s.Storage.ListGamesByOwner(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Require().Len(games, 2)
	s.Equal(model.GameID("game-2"), games[0].ID)
	s.Equal(model.GameID("game-1"), games[1].ID)

	games, err = s.Storage.ListGamesByOwner(s.Ctx, "carol")
	s.Require().NoError(err)
	s.Empty(games)
}

func (s *Suite) TestConcurrentGameUpdatesSerialize() {
	s.Require().NoError(s.Storage.CreateGame(s.Ctx, s.NewGame("game-1", "alice", BaseTime)))

	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Storage.UpdateGame(s.Ctx, "game-1", func(g *model.GameSession) error {
				g.Turns++
				return nil
			})
			s.NoError(err)
		}()
	}
	wg.Wait()

	game, err := s.Storage.GetGame(s.Ctx, "game-1")
	s.Require().NoError(err)
	s.Equal(writers, game.Turns)
}

// Room tests

func (s *Suite) TestCreateAndGetRoom() {
	s.Require().NoError(s.Storage.CreateRoom(s.Ctx, s.NewRoom("room-1", "ABC234")))

	snap, err := s.Storage.GetRoom(s.Ctx, "room-1")
	s.Require().NoError(err)
	s.Equal(model.RoomCode("ABC234"), snap.Room.Code)
	s.Equal(model.ModeTwoPlayer, snap.Room.Mode)
	s.Equal(model.PolicyLowestTurns, snap.Room.WinningPolicy)
	s.Equal(model.Secret("0042"), snap.Room.Secrets[model.SlotPlayer2Target])
	s.Nil(snap.Room.CompletedAt)
	s.Require().Len(snap.Roster, 1)
	s.Equal(model.RoleFirst, snap.Roster[0].Role)

	id, err := s.Storage.GetRoomIDByCode(s.Ctx, "ABC234")
	s.Require().NoError(err)
	s.Equal(model.RoomID("room-1"), id)
}

func (s *Suite) TestGetRoomNotFound() {
	_, err := s.Storage.GetRoom(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrRoomNotFound)

	_, err = s.Storage.GetRoomIDByCode(s.Ctx, "ZZZZZZ")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *Suite) TestCreateRoomRejectsTakenCode() {
	s.Require().NoError(s.Storage.CreateRoom(s.Ctx, s.NewRoom("room-1", "ABC234")))

	err := s.Storage.CreateRoom(s.Ctx, s.NewRoom("room-2", "ABC234"))
	s.ErrorIs(err, model.ErrRoomCodeTaken)

	_, err = s.Storage.GetRoom(s.Ctx, "room-2")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *Suite) TestUpdateRoomAppendsAndMutates() {
	s.Require().NoError(s.Storage.CreateRoom(s.Ctx, s.NewRoom("room-1", "ABC234")))

	completedAt := BaseTime.Add(time.Minute)
	_, err := s.Storage.UpdateRoom(s.Ctx, "room-1", func(snap *model.RoomSnapshot) error {
		snap.Roster = append(snap.Roster, &model.PlayerProgress{
			RoomID: "room-1", PlayerID: "bob", DisplayName: "Bob", Role: model.RoleSecond, JoinSeq: 1,
		})
		snap.Room.Secrets[model.SlotPlayer1Target] = "9999"
		snap.Roster[0].Turns = 3
		snap.Roster[0].Completed = true
		snap.Roster[0].CompletedSeq = 1
		snap.Room.State = model.RoomStateCompleted
		snap.Room.CompletedAt = &completedAt
		return nil
	})
	s.Require().NoError(err)

	snap, err := s.Storage.GetRoom(s.Ctx, "room-1")
	s.Require().NoError(err)
	s.Require().Len(snap.Roster, 2)
	s.Equal(model.PlayerID("alice"), snap.Roster[0].PlayerID)
	s.Equal(model.PlayerID("bob"), snap.Roster[1].PlayerID)
	s.Equal(3, snap.Roster[0].Turns)
	s.True(snap.Roster[0].Completed)
	s.Equal(model.Secret("9999"), snap.Room.Secrets[model.SlotPlayer1Target])
	s.Equal(model.RoomStateCompleted, snap.Room.State)
	s.Require().NotNil(snap.Room.CompletedAt)
	s.True(snap.Room.CompletedAt.Equal(completedAt))
}

func (s *Suite) TestUpdateRoomErrorWritesNothing() {
	s.Require().NoError(s.Storage.CreateRoom(s.Ctx, s.NewRoom("room-1", "ABC234")))

	_, err := s.Storage.UpdateRoom(s.Ctx, "room-1", func(snap *model.RoomSnapshot) error {
		snap.Roster[0].Turns = 7
		snap.Roster = append(snap.Roster, &model.PlayerProgress{RoomID: "room-1", PlayerID: "bob", JoinSeq: 1})
		return errAbort
	})
	s.ErrorIs(err, errAbort)

	snap, err := s.Storage.GetRoom(s.Ctx, "room-1")
	s.Require().NoError(err)
	s.Len(snap.Roster, 1)
	s.Equal(0, snap.Roster[0].Turns)
}

func (s *Suite) TestUpdateRoomNotFound() {
	_, err := s.Storage.UpdateRoom(s.Ctx, "missing", func(snap *model.RoomSnapshot) error { return nil })
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *Suite) TestConcurrentRoomUpdatesSerialize() {
	s.Require().NoError(s.Storage.CreateRoom(s.Ctx, s.NewRoom("room-1", "ABC234")))

	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := s.Storage.UpdateRoom(s.Ctx, "room-1", func(snap *model.RoomSnapshot) error {
				snap.Room.CompletionCounter++
				snap.Roster = append(snap.Roster, &model.PlayerProgress{
					RoomID:   "room-1",
					PlayerID: model.PlayerID(fmt.Sprintf("player-%d", n)),
					Role:     model.RoleGuest,
					JoinSeq:  len(snap.Roster),
				})
				return nil
			})
			s.NoError(err)
		}(i)
	}
	wg.Wait()

	snap, err := s.Storage.GetRoom(s.Ctx, "room-1")
	s.Require().NoError(err)
	s.Equal(writers, snap.Room.CompletionCounter)
	s.Len(snap.Roster, writers+1)
}

// Leaderboard tests

func (s *Suite) record(id model.PlayerID, turns int) bool {
	improved, err := s.Storage.RecordBestTurns(s.Ctx, model.LeaderboardEntry{
		PlayerID:    id,
		DisplayName: string(id) + "-name",
		BestTurns:   turns,
		UpdatedAt:   BaseTime,
	})
	s.Require().NoError(err)
	return improved
}

func (s *Suite) TestRecordBestTurnsOnlyImproves() {
	s.True(s.record("p1", 5))
	s.False(s.record("p1", 7))
	s.False(s.record("p1", 5))

	entry, err := s.Storage.GetLeaderboardEntry(s.Ctx, "p1")
	s.Require().NoError(err)
	s.Equal(5, entry.BestTurns)
	s.Equal("p1-name", entry.DisplayName)

	s.True(s.record("p1", 3))
	entry, err = s.Storage.GetLeaderboardEntry(s.Ctx, "p1")
	s.Require().NoError(err)
	s.Equal(3, entry.BestTurns)
}

func (s *Suite) TestLeaderboardEntryNotFound() {
	_, err := s.Storage.GetLeaderboardEntry(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *Suite) TestTopLeaderboardAscending() {
	s.record("p1", 8)
	s.record("p2", 2)
	s.record("p3", 5)
	s.record("p4", 11)

	top, err := s.Storage.TopLeaderboard(s.Ctx, 3)
	s.Require().NoError(err)
	s.Require().Len(top, 3)
	s.Equal(model.PlayerID("p2"), top[0].PlayerID)
	s.Equal(2, top[0].BestTurns)
	s.Equal("p2-name", top[0].DisplayName)
	s.Equal(model.PlayerID("p3"), top[1].PlayerID)
	s.Equal(model.PlayerID("p1"), top[2].PlayerID)

	top, err = s.Storage.TopLeaderboard(s.Ctx, 10)
	s.Require().NoError(err)
	s.Len(top, 4)
}

func (s *Suite) TestTopLeaderboardNonPositiveLimit() {
	s.record("p1", 4)

	for _, limit := range []int{0, -1} {
		top, err := s.Storage.TopLeaderboard(s.Ctx, limit)
		s.Require().NoError(err)
		s.NotNil(top)
		s.Empty(top, "limit %d", limit)
	}
}

func (s *Suite) TestConcurrentRecordsKeepDetailsWithBestScore() {
	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(turns int) {
			defer wg.Done()
			_, err := s.Storage.RecordBestTurns(s.Ctx, model.LeaderboardEntry{
				PlayerID:    "p1",
				DisplayName: fmt.Sprintf("name-%d", turns),
				BestTurns:   turns,
				UpdatedAt:   BaseTime.Add(time.Duration(turns) * time.Minute),
			})
			s.NoError(err)
		}(writers - i)
	}
	wg.Wait()

	entry, err := s.Storage.GetLeaderboardEntry(s.Ctx, "p1")
	s.Require().NoError(err)
	s.Equal(1, entry.BestTurns)
	s.Equal("name-1", entry.DisplayName)
	s.True(entry.UpdatedAt.Equal(BaseTime.Add(time.Minute)))
}

func (s *Suite) TestTopLeaderboardEmpty() {
	top, err := s.Storage.TopLeaderboard(s.Ctx, 10)
	s.Require().NoError(err)
	s.Empty(top)
}
