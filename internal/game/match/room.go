// Package match forms two-player rooms from a FIFO queue of waiting
// endpoints.
package match

import (
	"context"
	"net/netip"

	"github.com/google/uuid"

	"github.com/cory-johannsen/pong-server/internal/game/player"
)

// Room is one live two-player session. It holds shared handles to its
// members, so status and position updates made through the registry are
// visible here without copying.
type Room struct {
	// ID is the unique room identifier.
	ID uuid.UUID

	players map[netip.AddrPort]*player.Player
}

// NewRoom pairs exactly two players into a fresh room. The two-player
// arity is fixed by the signature; callers must have already marked
// both players InMatch.
func NewRoom(first, second *player.Player) *Room {
	return &Room{
		ID: uuid.New(),
		players: map[netip.AddrPort]*player.Player{
			first.Endpoint:  first,
			second.Endpoint: second,
		},
	}
}

// Player returns the room member registered at endpoint.
func (r *Room) Player(endpoint netip.AddrPort) (*player.Player, bool) {
	p, ok := r.players[endpoint]
	return p, ok
}

// Contains reports whether endpoint belongs to this room.
func (r *Room) Contains(endpoint netip.AddrPort) bool {
	_, ok := r.players[endpoint]
	return ok
}

// Endpoints returns both member endpoints in no particular order.
func (r *Room) Endpoints() []netip.AddrPort {
	out := make([]netip.AddrPort, 0, len(r.players))
	for ep := range r.players {
		out = append(out, ep)
	}
	return out
}

// Start is the seam where the in-room simulation attaches. The
// per-tick game loop is not implemented yet, so Start returns
// immediately.
func (r *Room) Start(_ context.Context) error {
	return nil
}
