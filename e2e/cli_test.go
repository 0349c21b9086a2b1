package e2e_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/digitguess/internal/api"
	"github.com/mcoot/digitguess/internal/api/response"
	"github.com/mcoot/digitguess/internal/factory"
	"github.com/mcoot/digitguess/internal/model"
	"github.com/mcoot/digitguess/internal/testutil"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
	tokenFile  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	projectRoot := findProjectRoot(t)

	binaryPath := filepath.Join(t.TempDir(), "digitguess-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/digitguess")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
		tokenFile:  filepath.Join(t.TempDir(), "token"),
	}
}

// withTokenFile returns a runner sharing the binary but keeping its own session
func (r *cliRunner) withTokenFile(t *testing.T) *cliRunner {
	return &cliRunner{
		binaryPath: r.binaryPath,
		serverURL:  r.serverURL,
		tokenFile:  filepath.Join(t.TempDir(), "token"),
	}
}

func (r *cliRunner) command(args ...string) *exec.Cmd {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token-file", r.tokenFile,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	cmd.Env = append(os.Environ(), "DIGITGUESS_TOKEN=")
	return cmd
}

func (r *cliRunner) run(args ...string) (string, error) {
	output, err := r.command(args...).CombinedOutput()
	return string(output), err
}

// runJSON runs a command that must succeed and decodes its output into v
func (r *cliRunner) runJSON(t *testing.T, v any, args ...string) {
	t.Helper()
	output, err := r.run(args...)
	require.NoError(t, err, "output: %s", output)
	require.NoError(t, json.Unmarshal([]byte(output), v), "output: %s", output)
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// startTestServer serves the API over a test app whose generated secrets are all zeros
func startTestServer(t *testing.T) (*factory.TestApp, *httptest.Server) {
	t.Helper()

	app := factory.NewTestApp()
	router := api.NewRouter(api.RouterConfig{
		Logger:             testutil.NopLogger(),
		AuthService:        app.AuthService,
		SoloController:     app.SoloController,
		RoomController:     app.RoomController,
		LeaderboardService: app.LeaderboardService,
		HubManager:         app.HubManager,
		StorageType:        app.StorageType,
	})

	server := httptest.NewServer(router)
	t.Cleanup(func() {
		app.HubManager.Close()
		server.Close()
	})
	return app, server
}

func TestCLI_HealthCheck(t *testing.T) {
	_, ts := startTestServer(t)
	cli := newCLIRunner(t, ts.URL)

	var resp response.Health
	cli.runJSON(t, &resp, "health")
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "memory", resp.Storage)
}

func TestCLI_PlayerCommands(t *testing.T) {
	_, ts := startTestServer(t)
	cli := newCLIRunner(t, ts.URL)

	var authResp response.AuthResponse
	cli.runJSON(t, &authResp, "player", "guest", "--name", "Alice")
	assert.Equal(t, "Alice", authResp.Player.DisplayName)
	assert.True(t, authResp.Player.IsGuest)
	assert.NotEmpty(t, authResp.SessionToken)

	// Token is read back from the token file
	var me response.Player
	cli.runJSON(t, &me, "player", "me")
	assert.Equal(t, authResp.Player.ID, me.ID)

	output, err := cli.run("player", "logout")
	require.NoError(t, err, "output: %s", output)
	assert.Contains(t, output, "Logged out")

	_, err = os.Stat(cli.tokenFile)
	assert.True(t, os.IsNotExist(err))

	output, err = cli.run("player", "me")
	assert.Error(t, err)
	assert.Contains(t, output, "UNAUTHORIZED")
}

func TestCLI_RegisterAndLogin(t *testing.T) {
	_, ts := startTestServer(t)
	cli := newCLIRunner(t, ts.URL)

	var registered response.AuthResponse
	cli.runJSON(t, &registered, "player", "register", "--user", "bob", "--pass", "hunter22")
	assert.False(t, registered.Player.IsGuest)

	other := cli.withTokenFile(t)
	var loggedIn response.AuthResponse
	other.runJSON(t, &loggedIn, "player", "login", "--user", "bob", "--pass", "hunter22")
	assert.Equal(t, registered.Player.ID, loggedIn.Player.ID)

	output, err := other.run("player", "login", "--user", "bob", "--pass", "wrong")
	assert.Error(t, err)
	assert.Contains(t, output, "INVALID_CREDENTIALS")
}

func TestCLI_SoloGame(t *testing.T) {
	_, ts := startTestServer(t)
	cli := newCLIRunner(t, ts.URL)

	var auth response.AuthResponse
	cli.runJSON(t, &auth, "player", "guest", "--name", "Alice")

	var game response.Game
	cli.runJSON(t, &game, "solo", "start", "--digits", "4", "--rule", "strict")
	assert.Equal(t, 4, game.DigitCount)
	assert.Equal(t, "strict", game.Rule)

	var miss response.SoloGuessResult
	cli.runJSON(t, &miss, "solo", "guess", game.ID, "1230")
	assert.Equal(t, 1, miss.Turns)
	assert.Equal(t, 1, miss.Score.PositionsCorrect)
	assert.False(t, miss.Completed)

	var hit response.SoloGuessResult
	cli.runJSON(t, &hit, "solo", "guess", game.ID, "0000")
	assert.Equal(t, 2, hit.Turns)
	assert.True(t, hit.Completed)

	var fetched response.Game
	cli.runJSON(t, &fetched, "solo", "get", game.ID)
	assert.True(t, fetched.Completed)
	require.Len(t, fetched.History, 2)
	assert.Equal(t, "1230", fetched.History[0].Guess)

	var list response.GameList
	cli.runJSON(t, &list, "solo", "list")
	require.Len(t, list.Games, 1)

	output, err := cli.run("solo", "guess", game.ID, "12")
	assert.Error(t, err)
	assert.Contains(t, output, "LENGTH_MISMATCH")
}

func TestCLI_BotRoomAndLeaderboard(t *testing.T) {
	_, ts := startTestServer(t)
	alice := newCLIRunner(t, ts.URL)
	bob := alice.withTokenFile(t)

	var a, b response.AuthResponse
	alice.runJSON(t, &a, "player", "guest", "--name", "Alice")
	bob.runJSON(t, &b, "player", "guest", "--name", "Bob")

	var room response.Room
	alice.runJSON(t, &room, "room", "create", "--mode", "bot", "--policy", "lowest_turns")
	assert.Equal(t, "bot", room.Mode)
	assert.True(t, room.SecretsSet["bot"])
	assert.Len(t, room.Code, 6)

	var joined response.Room
	bob.runJSON(t, &joined, "room", "join", strings.ToLower(room.Code))
	assert.Equal(t, room.ID, joined.ID)
	assert.Len(t, joined.Players, 2)

	var guess response.RoomGuessResult
	alice.runJSON(t, &guess, "room", "guess", room.ID, "0000")
	assert.True(t, guess.Completed)
	assert.False(t, guess.RoomCompleted, "Bob can still tie")

	bob.runJSON(t, &guess, "room", "guess", room.ID, "1111")
	assert.False(t, guess.RoomCompleted)

	bob.runJSON(t, &guess, "room", "guess", room.ID, "2222")
	assert.Equal(t, 2, guess.Turns)
	assert.True(t, guess.RoomCompleted, "Bob can no longer beat one turn")

	var status response.RoomStatus
	bob.runJSON(t, &status, "room", "status", room.ID)
	assert.True(t, status.Completed)
	require.NotNil(t, status.Winner)
	assert.Equal(t, a.Player.ID, status.Winner.PlayerID)

	var summary response.RoomSummary
	bob.runJSON(t, &summary, "room", "summary", room.ID)
	require.Len(t, summary.Standings, 2)

	var board response.Leaderboard
	bob.runJSON(t, &board, "leaderboard", "--limit", "5")
	require.Len(t, board.Entries, 1)
	assert.Equal(t, "Alice", board.Entries[0].DisplayName)
	assert.Equal(t, 1, board.Entries[0].BestTurns)

	// Only the creator may start a new round
	output, err := bob.run("room", "reset", room.ID)
	assert.Error(t, err)
	assert.Contains(t, output, "NOT_CREATOR")

	var reset response.Room
	alice.runJSON(t, &reset, "room", "reset", room.ID)
	assert.Equal(t, 2, reset.Round)
	assert.Equal(t, "open", reset.State)
}

func TestCLI_TwoPlayerRoom(t *testing.T) {
	_, ts := startTestServer(t)
	alice := newCLIRunner(t, ts.URL)
	bob := alice.withTokenFile(t)

	var a, b response.AuthResponse
	alice.runJSON(t, &a, "player", "guest", "--name", "Alice")
	bob.runJSON(t, &b, "player", "guest", "--name", "Bob")

	var room response.Room
	alice.runJSON(t, &room, "room", "create", "--mode", "two_player", "--digits", "4")
	assert.False(t, room.SecretsSet["player2_target"])

	var joined response.Room
	bob.runJSON(t, &joined, "room", "join", room.Code, "--secret", "1234")
	assert.True(t, joined.SecretsSet["player1_target"])

	// Bob's target has not been chosen yet
	output, err := bob.run("room", "guess", room.ID, "5678")
	assert.Error(t, err)
	assert.Contains(t, output, "SECRET_NOT_READY")
	assert.Contains(t, output, "try again")

	var withSecret response.Room
	alice.runJSON(t, &withSecret, "room", "secret", room.ID, "5678")
	assert.True(t, withSecret.SecretsSet["player2_target"])

	output, err = alice.run("room", "secret", room.ID, "9999")
	assert.Error(t, err)
	assert.Contains(t, output, "SECRET_ALREADY_SET")

	var guess response.RoomGuessResult
	bob.runJSON(t, &guess, "room", "guess", room.ID, "5678")
	assert.True(t, guess.Completed)
	assert.True(t, guess.RoomCompleted)

	var status response.RoomStatus
	alice.runJSON(t, &status, "room", "status", room.ID)
	require.NotNil(t, status.Winner)
	assert.Equal(t, b.Player.ID, status.Winner.PlayerID)

	// Secrets never leave the server
	output, err = alice.run("room", "get", room.ID)
	require.NoError(t, err, "output: %s", output)
	assert.NotContains(t, output, "1234")
	assert.NotContains(t, output, "5678")
}

func TestCLI_RoomEvents(t *testing.T) {
	app, ts := startTestServer(t)
	alice := newCLIRunner(t, ts.URL)
	bob := alice.withTokenFile(t)

	var a, b response.AuthResponse
	alice.runJSON(t, &a, "player", "guest", "--name", "Alice")
	bob.runJSON(t, &b, "player", "guest", "--name", "Bob")

	var room response.Room
	alice.runJSON(t, &room, "room", "create", "--mode", "bot")

	var stdout bytes.Buffer
	events := alice.command("room", "events", room.ID, "--json", "--count", "1")
	events.Stdout = &stdout
	require.NoError(t, events.Start())
	done := make(chan error, 1)
	go func() { done <- events.Wait() }()

	// Wait for the stream to subscribe before producing an event
	require.Eventually(t, func() bool {
		hub := app.HubManager.GetHub(model.RoomID(room.ID))
		return hub != nil && hub.ClientCount() == 1
	}, 5*time.Second, 20*time.Millisecond)

	var joined response.Room
	bob.runJSON(t, &joined, "room", "join", room.Code)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		_ = events.Process.Kill()
		t.Fatal("event stream did not finish")
	}

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 2, "connected event then player_joined: %s", stdout.String())

	var evt struct {
		Event string `json:"event"`
		Data  string `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &evt))
	assert.Equal(t, "connected", evt.Event)

	require.NoError(t, json.Unmarshal([]byte(lines[1]), &evt))
	assert.Equal(t, "player_joined", evt.Event)
	assert.Contains(t, evt.Data, "Bob")
}

func TestCLI_ErrorHandling(t *testing.T) {
	_, ts := startTestServer(t)
	cli := newCLIRunner(t, ts.URL)

	output, err := cli.run("player", "me")
	assert.Error(t, err)
	assert.Contains(t, output, "UNAUTHORIZED")

	var auth response.AuthResponse
	cli.runJSON(t, &auth, "player", "guest", "--name", "Alice")

	output, err = cli.run("room", "get", "missing")
	assert.Error(t, err)
	assert.Contains(t, output, "ROOM_NOT_FOUND")

	output, err = cli.run("room", "join", "ZZZZZZ")
	assert.Error(t, err)
	assert.Contains(t, output, "ROOM_NOT_FOUND")

	output, err = cli.run("room", "create", "--mode", "chess")
	assert.Error(t, err)
	assert.Contains(t, output, "INVALID_MODE")
}
