package match

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/pong-server/internal/game/player"
)

func TestNewRoom(t *testing.T) {
	a := endpoint(t, 52001)
	b := endpoint(t, 52002)
	p1 := player.New(a)
	p2 := player.New(b)

	room := NewRoom(p1, p2)
	assert.NotEqual(t, room.ID, NewRoom(p1, p2).ID, "room ids must be unique")

	assert.True(t, room.Contains(a))
	assert.True(t, room.Contains(b))
	assert.False(t, room.Contains(endpoint(t, 52003)))
	assert.Len(t, room.Endpoints(), 2)
}

func TestRoom_SharesPlayerHandles(t *testing.T) {
	a := endpoint(t, 52011)
	b := endpoint(t, 52012)
	p1 := player.New(a)
	p2 := player.New(b)
	room := NewRoom(p1, p2)

	// Updates made through the registry-side handle must be visible
	// through the room.
	p1.SetPosition(7, 9)
	got, ok := room.Player(a)
	require.True(t, ok)
	x, y := got.Position()
	assert.Equal(t, 7.0, x)
	assert.Equal(t, 9.0, y)
}

func TestRoom_Start(t *testing.T) {
	room := NewRoom(player.New(endpoint(t, 52021)), player.New(endpoint(t, 52022)))
	assert.NoError(t, room.Start(context.Background()))
}
