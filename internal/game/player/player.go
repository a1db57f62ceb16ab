// Package player tracks connected players keyed by their network endpoint.
package player

import (
	"net/netip"
	"sync"

	"github.com/google/uuid"
)

// Status describes a player's matchmaking state.
type Status int

const (
	// StatusAvailable means the player is connected and not in a match.
	StatusAvailable Status = iota
	// StatusInMatch means the player has been paired into a room.
	StatusInMatch
)

// String returns the lowercase name of the status.
func (s Status) String() string {
	switch s {
	case StatusAvailable:
		return "available"
	case StatusInMatch:
		return "in_match"
	default:
		return "unknown"
	}
}

// Player is one connected client. The endpoint is the registry key and
// stays unique while the player is registered; the ID survives repeated
// "enter" messages from the same endpoint.
type Player struct {
	// ID is the stable unique player identifier.
	ID uuid.UUID
	// Endpoint is the client's observed address and port.
	Endpoint netip.AddrPort

	mu     sync.Mutex
	status Status
	x, y   float64
}

// New creates a Player for the given endpoint with a fresh ID,
// StatusAvailable, and position (0, 0).
func New(endpoint netip.AddrPort) *Player {
	return &Player{
		ID:       uuid.New(),
		Endpoint: endpoint,
	}
}

// Status returns the player's current matchmaking state.
func (p *Player) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// SetStatus updates the player's matchmaking state.
func (p *Player) SetStatus(s Status) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = s
}

// Position returns the player's 2D position.
func (p *Player) Position() (x, y float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.x, p.y
}

// SetPosition updates the player's 2D position. Nothing drives this
// from the wire yet; the reserved "move" action will.
func (p *Player) SetPosition(x, y float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.x, p.y = x, y
}
