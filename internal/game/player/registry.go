package player

import (
	"net/netip"
	"sync"
)

// Registry is the single source of truth for connected players. It
// hands out shared *Player handles so that status and position changes
// are visible to every holder. All methods are safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	players map[netip.AddrPort]*Player
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		players: make(map[netip.AddrPort]*Player),
	}
}

// Register inserts a new Player for endpoint and reports whether one
// was created. Registering a known endpoint is a no-op: the existing
// player keeps its ID and status, and is returned unchanged.
func (r *Registry) Register(endpoint netip.AddrPort) (*Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.players[endpoint]; ok {
		return p, false
	}
	p := New(endpoint)
	r.players[endpoint] = p
	return p, true
}

// Get returns the shared player handle for endpoint.
func (r *Registry) Get(endpoint netip.AddrPort) (*Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[endpoint]
	return p, ok
}

// Count returns the number of registered players.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// Endpoints returns the endpoints of all registered players in no
// particular order.
func (r *Registry) Endpoints() []netip.AddrPort {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]netip.AddrPort, 0, len(r.players))
	for ep := range r.players {
		out = append(out, ep)
	}
	return out
}

// Remove deletes the player for endpoint and reports whether it
// existed. Nothing reaches this from the wire yet; it is the seam for
// the future disconnect reaper.
func (r *Registry) Remove(endpoint netip.AddrPort) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.players[endpoint]; !ok {
		return false
	}
	delete(r.players, endpoint)
	return true
}
