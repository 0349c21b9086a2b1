package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/digitguess/internal/api"
	"github.com/mcoot/digitguess/internal/api/response"
	"github.com/mcoot/digitguess/internal/factory"
	"github.com/mcoot/digitguess/internal/testutil"
)

// CommandSuite runs cobra commands in process against an API test server
type CommandSuite struct {
	suite.Suite
	app       *factory.TestApp
	server    *httptest.Server
	tokenFile string
}

func TestCommandSuite(t *testing.T) {
	suite.Run(t, new(CommandSuite))
}

func (s *CommandSuite) SetupTest() {
	s.T().Setenv("DIGITGUESS_TOKEN", "")

	s.app = factory.NewTestApp()
	s.server = httptest.NewServer(api.NewRouter(api.RouterConfig{
		Logger:             testutil.NopLogger(),
		AuthService:        s.app.AuthService,
		SoloController:     s.app.SoloController,
		RoomController:     s.app.RoomController,
		LeaderboardService: s.app.LeaderboardService,
		HubManager:         s.app.HubManager,
		StorageType:        s.app.StorageType,
	}))
	s.tokenFile = filepath.Join(s.T().TempDir(), "token")
}

func (s *CommandSuite) TearDownTest() {
	s.app.HubManager.Close()
	s.server.Close()
}

// execute runs the CLI with the given token file and returns stdout
func (s *CommandSuite) execute(tokenFile string, args ...string) (string, error) {
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--server", s.server.URL, "--token-file", tokenFile, "-o", "json"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (s *CommandSuite) executeJSON(v any, args ...string) {
	out, err := s.execute(s.tokenFile, args...)
	s.Require().NoError(err)
	s.Require().NoError(json.Unmarshal([]byte(out), v), "output: %s", out)
}

func (s *CommandSuite) TestHealth() {
	var health response.Health
	s.executeJSON(&health, "health")
	s.Equal("ok", health.Status)
}

func (s *CommandSuite) TestGuestSavesToken() {
	var auth response.AuthResponse
	s.executeJSON(&auth, "player", "guest", "--name", "Alice")

	var me response.Player
	s.executeJSON(&me, "player", "me")
	s.Equal(auth.Player.ID, me.ID)
}

func (s *CommandSuite) TestSoloGame() {
	var auth response.AuthResponse
	s.executeJSON(&auth, "player", "guest", "--name", "Alice")

	var game response.Game
	s.executeJSON(&game, "solo", "start", "--digits", "3")
	s.Equal(3, game.DigitCount)

	var result response.SoloGuessResult
	s.executeJSON(&result, "solo", "guess", game.ID, "000")
	s.True(result.Completed)
	s.Equal(1, result.Turns)
}

func (s *CommandSuite) TestRoomCommands() {
	var alice response.AuthResponse
	s.executeJSON(&alice, "player", "guest", "--name", "Alice")

	var room response.Room
	s.executeJSON(&room, "room", "create", "--mode", "two_player", "--secret", "4321")
	s.True(room.SecretsSet["player2_target"])

	var found response.Room
	s.executeJSON(&found, "room", "find", strings.ToLower(room.Code))
	s.Equal(room.ID, found.ID)
	s.Len(found.Players, 1)

	_, err := s.execute(s.tokenFile, "room", "find", "ZZZZZZ")
	var missing *APIError
	s.Require().ErrorAs(err, &missing)
	s.Equal("ROOM_NOT_FOUND", missing.Code)

	bobToken := filepath.Join(s.T().TempDir(), "bob")
	_, err = s.execute(bobToken, "player", "guest", "--name", "Bob")
	s.Require().NoError(err)

	// Alice's target is still unset
	_, err = s.execute(s.tokenFile, "room", "guess", room.ID, "1111")
	var apiErr *APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal("SECRET_NOT_READY", apiErr.Code)
	s.True(apiErr.Retryable)

	out, err := s.execute(bobToken, "room", "join", room.Code, "--secret", "1111")
	s.Require().NoError(err)
	s.NotContains(out, "4321")

	var guess response.RoomGuessResult
	s.executeJSON(&guess, "room", "guess", room.ID, "1111")
	s.True(guess.RoomCompleted)

	var status response.RoomStatus
	s.executeJSON(&status, "room", "status", room.ID)
	s.Require().NotNil(status.Winner)
	s.Equal(alice.Player.ID, status.Winner.PlayerID)
}

func (s *CommandSuite) TestMissingToken() {
	_, err := s.execute(s.tokenFile, "player", "me")
	var apiErr *APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal(401, apiErr.Status)
}

func TestLeaderboardLimitFlag(t *testing.T) {
	t.Setenv("DIGITGUESS_TOKEN", "")

	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"entries":[]}`))
	}))
	defer server.Close()

	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--server", server.URL, "--token", "t", "leaderboard", "-n", "3"})
	require.NoError(t, cmd.Execute())
	require.Equal(t, "limit=3", gotQuery)
}
