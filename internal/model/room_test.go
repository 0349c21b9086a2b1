package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSecret(t *testing.T) {
	cases := []struct {
		raw string
		ok  bool
	}{
		{"0000", true},
		{"0123", true},
		{" 482 ", true},
		{"", false},
		{"12a4", false},
		{"-123", false},
		{"1234567890123", false},
	}
	for _, tc := range cases {
		_, err := ParseSecret(tc.raw)
		if tc.ok {
			assert.NoError(t, err, tc.raw)
		} else {
			assert.ErrorIs(t, err, ErrInvalidSecret, tc.raw)
		}
	}
}

func TestTargetSlots(t *testing.T) {
	two := &Room{Mode: ModeTwoPlayer}
	assert.Equal(t, SlotPlayer1Target, two.TargetSlot(RoleFirst))
	assert.Equal(t, SlotPlayer2Target, two.TargetSlot(RoleSecond))
	assert.Equal(t, SlotPlayer2Target, two.OpponentSlot(RoleFirst))
	assert.Equal(t, SlotPlayer1Target, two.OpponentSlot(RoleSecond))
	assert.Equal(t, SecretSlot(""), two.TargetSlot(RoleGuest))

	bot := &Room{Mode: ModeBot}
	assert.Equal(t, SlotBot, bot.TargetSlot(RoleFirst))
	assert.Equal(t, SlotBot, bot.TargetSlot(RoleGuest))
}

func TestWinnerPrefersFewestTurnsThenEarliestCompletion(t *testing.T) {
	snap := &RoomSnapshot{
		Room: &Room{},
		Roster: []*PlayerProgress{
			{PlayerID: "a", Turns: 4, Completed: true, CompletedSeq: 1},
			{PlayerID: "b", Turns: 3, Completed: true, CompletedSeq: 3},
			{PlayerID: "c", Turns: 3, Completed: true, CompletedSeq: 2},
			{PlayerID: "d", Turns: 1, Completed: false},
		},
	}

	winner := snap.Winner()
	require.NotNil(t, winner)
	assert.Equal(t, PlayerID("c"), winner.PlayerID)
}

func TestWinnerNilWithoutFinisher(t *testing.T) {
	snap := &RoomSnapshot{Room: &Room{}, Roster: []*PlayerProgress{{PlayerID: "a", Turns: 9}}}
	assert.Nil(t, snap.Winner())
}

func TestCloneIsDeep(t *testing.T) {
	snap := &RoomSnapshot{
		Room:   &Room{Secrets: map[SecretSlot]Secret{SlotBot: "123"}},
		Roster: []*PlayerProgress{{PlayerID: "a", Turns: 1}},
	}
	c := snap.Clone()
	c.Room.Secrets[SlotBot] = "999"
	c.Roster[0].Turns = 5

	assert.Equal(t, Secret("123"), snap.Room.Secrets[SlotBot])
	assert.Equal(t, 1, snap.Roster[0].Turns)
}

func TestStandingsOrder(t *testing.T) {
	snap := &RoomSnapshot{
		Room: &Room{},
		Roster: []*PlayerProgress{
			{PlayerID: "a", Turns: 5, JoinSeq: 0},
			{PlayerID: "b", Turns: 2, JoinSeq: 1},
			{PlayerID: "c", Turns: 5, JoinSeq: 2},
		},
	}
	standings := snap.Standings()
	ids := []PlayerID{standings[0].PlayerID, standings[1].PlayerID, standings[2].PlayerID}
	assert.Equal(t, []PlayerID{"b", "a", "c"}, ids)
}
