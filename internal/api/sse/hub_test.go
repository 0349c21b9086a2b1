package sse

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/digitguess/internal/model"
	"github.com/mcoot/digitguess/internal/testutil"
)

func TestFormatMessage(t *testing.T) {
	tests := []struct {
		name      string
		eventName string
		data      string
		expected  string
	}{
		{
			name:      "single line data",
			eventName: "guess_scored",
			data:      `{"turns":1}`,
			expected:  "event: guess_scored\ndata: {\"turns\":1}\n\n",
		},
		{
			name:      "multi-line data",
			eventName: "update",
			data:      "one\ntwo",
			expected:  "event: update\ndata: one\ndata: two\n\n",
		},
		{
			name:      "empty data",
			eventName: "ping",
			data:      "",
			expected:  "event: ping\ndata: \n\n",
		},
		{
			name:      "data with carriage returns",
			eventName: "test",
			data:      "line1\r\nline2\r\n",
			expected:  "event: test\ndata: line1\ndata: line2\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(formatMessage(tt.eventName, tt.data)))
		})
	}
}

func receive(t *testing.T, client *Client) string {
	t.Helper()
	select {
	case msg := <-client.send:
		return string(msg)
	case <-time.After(time.Second):
		t.Fatal("client did not receive message")
		return ""
	}
}

func registered(hub *Hub, n int) func() bool {
	return func() bool { return hub.ClientCount() == n }
}

func TestHub_RegisterAndBroadcast(t *testing.T) {
	hub := NewHub("room-1", testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	client := NewClient(hub, "alice")
	require.True(t, hub.Register(client))
	require.Eventually(t, registered(hub, 1), time.Second, 5*time.Millisecond)

	hub.BroadcastEvent("test-event", "test data")

	assert.Equal(t, "event: test-event\ndata: test data\n\n", receive(t, client))
}

func TestHub_Unregister(t *testing.T) {
	hub := NewHub("room-1", testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	client := NewClient(hub, "alice")
	require.True(t, hub.Register(client))
	require.Eventually(t, registered(hub, 1), time.Second, 5*time.Millisecond)

	hub.Unregister(client)
	assert.Eventually(t, registered(hub, 0), time.Second, 5*time.Millisecond)

	_, open := <-client.send
	assert.False(t, open)
}

func TestHub_RegisterAfterCloseFails(t *testing.T) {
	hub := NewHub("room-1", testutil.NopLogger())
	go hub.Run()
	hub.Close()

	assert.False(t, hub.Register(NewClient(hub, "alice")))
	// Must not block once the loop has exited
	hub.Unregister(NewClient(hub, "alice"))
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	hub := NewHub("room-1", testutil.NopLogger())
	go hub.Run()

	client := NewClient(hub, "alice")
	require.True(t, hub.Register(client))
	require.Eventually(t, registered(hub, 1), time.Second, 5*time.Millisecond)

	hub.Close()
	hub.Close()

	select {
	case _, open := <-client.send:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("client channel was not closed")
	}
}

func TestHub_BroadcastToMultipleClients(t *testing.T) {
	hub := NewHub("room-1", testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	clients := []*Client{NewClient(hub, "alice"), NewClient(hub, "bob"), NewClient(hub, "carol")}
	for _, c := range clients {
		require.True(t, hub.Register(c))
	}
	require.Eventually(t, registered(hub, 3), time.Second, 5*time.Millisecond)

	hub.BroadcastEvent("update", "data")

	for _, c := range clients {
		assert.Equal(t, "event: update\ndata: data\n\n", receive(t, c))
	}
}

func TestHubManager_GetOrCreateHub(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.Close()

	hub1 := manager.GetOrCreateHub("room-1")
	require.NotNil(t, hub1)
	assert.Same(t, hub1, manager.GetOrCreateHub("room-1"))
	assert.NotSame(t, hub1, manager.GetOrCreateHub("room-2"))
	assert.Same(t, hub1, manager.GetHub("room-1"))
	assert.Nil(t, manager.GetHub("missing"))
}

func TestHubManager_RemoveHub(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())

	manager.GetOrCreateHub("room-1")
	manager.RemoveHub("room-1")
	assert.Nil(t, manager.GetHub("room-1"))

	manager.RemoveHub("missing")
}

func TestHubManager_CleanupEmptyHubs(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.Close()

	manager.GetOrCreateHub("empty")
	active := manager.GetOrCreateHub("active")
	require.True(t, active.Register(NewClient(active, "alice")))
	require.Eventually(t, registered(active, 1), time.Second, 5*time.Millisecond)

	manager.CleanupEmptyHubs()

	assert.Nil(t, manager.GetHub("empty"))
	assert.NotNil(t, manager.GetHub("active"))
}

func TestHubManager_PublishEncodesEvent(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.Close()

	hub := manager.GetOrCreateHub("room-1")
	client := NewClient(hub, "bob")
	require.True(t, hub.Register(client))
	require.Eventually(t, registered(hub, 1), time.Second, 5*time.Millisecond)

	winner := model.PlayerID("alice")
	manager.Publish(model.RoomEvent{
		Type:      model.EventRoomCompleted,
		Timestamp: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		RoomID:    "room-1",
		PlayerID:  "alice",
		Payload:   model.RoomCompletedPayload{Winner: &winner, Turns: 4},
	})

	msg := receive(t, client)
	require.True(t, strings.HasPrefix(msg, "event: room_completed\ndata: "))

	var event struct {
		Type    string `json:"type"`
		RoomID  string `json:"room_id"`
		Payload struct {
			Winner string `json:"winner"`
			Turns  int    `json:"turns"`
		} `json:"payload"`
	}
	data := strings.TrimSuffix(strings.TrimPrefix(msg, "event: room_completed\ndata: "), "\n\n")
	require.NoError(t, json.Unmarshal([]byte(data), &event))
	assert.Equal(t, "room_completed", event.Type)
	assert.Equal(t, "room-1", event.RoomID)
	assert.Equal(t, "alice", event.Payload.Winner)
	assert.Equal(t, 4, event.Payload.Turns)
}

func TestHubManager_PublishWithoutSubscribersIsDropped(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())

	manager.Publish(model.RoomEvent{Type: model.EventRoomReset, RoomID: "nobody-watching"})

	assert.Nil(t, manager.GetHub("nobody-watching"))
}

func TestEventFromModel_GuessScoredOmitsGuess(t *testing.T) {
	event := EventFromModel(model.RoomEvent{
		Type:   model.EventGuessScored,
		RoomID: "room-1",
		Payload: model.GuessScoredPayload{
			DisplayName: "Alice",
			Turns:       2,
			Result:      model.ScoreResult{NumbersCorrect: 3, PositionsCorrect: 1},
		},
	})

	payload, ok := event.Payload.(guessScored)
	require.True(t, ok)
	assert.Equal(t, 3, payload.NumbersCorrect)
	assert.Equal(t, 1, payload.PositionsCorrect)
	assert.Equal(t, 2, payload.Turns)
}
