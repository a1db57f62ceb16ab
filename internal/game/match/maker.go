package match

import (
	"errors"
	"net/netip"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/pong-server/internal/game/player"
)

// Matchmaking rejections surfaced by Enqueue.
var (
	// ErrAlreadyQueued means the endpoint is still waiting in the queue.
	ErrAlreadyQueued = errors.New("endpoint already in match queue")
	// ErrAlreadyMatched means the endpoint is already in a room.
	ErrAlreadyMatched = errors.New("endpoint already in a room")
)

// Maker pairs waiting endpoints into rooms, two at a time, in strict
// enqueue order.
//
// A single mutex guards the queue, the room table, and the player-room
// index together, so a whole formation attempt is atomic with respect
// to concurrent Enqueue calls: no interleaving can pair the same
// endpoint twice or place a player in two rooms. When player state is
// needed the registry is consulted while this mutex is held; the
// reverse lock order never occurs.
type Maker struct {
	registry *player.Registry
	logger   *zap.Logger

	mu         sync.Mutex
	queue      []netip.AddrPort
	queued     map[netip.AddrPort]struct{}
	rooms      map[uuid.UUID]*Room
	playerRoom map[netip.AddrPort]uuid.UUID
}

// NewMaker creates a Maker that resolves endpoints through registry.
func NewMaker(registry *player.Registry, logger *zap.Logger) *Maker {
	return &Maker{
		registry:   registry,
		logger:     logger,
		queued:     make(map[netip.AddrPort]struct{}),
		rooms:      make(map[uuid.UUID]*Room),
		playerRoom: make(map[netip.AddrPort]uuid.UUID),
	}
}

// Enqueue appends endpoint to the tail of the match queue and
// immediately attempts room formation; there is no separate scheduler
// tick. Duplicate joins are rejected rather than re-enqueued:
// ErrAlreadyQueued while the endpoint is still waiting,
// ErrAlreadyMatched once it is in a room.
func (m *Maker) Enqueue(endpoint netip.AddrPort) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.queued[endpoint]; ok {
		return ErrAlreadyQueued
	}
	if _, ok := m.playerRoom[endpoint]; ok {
		return ErrAlreadyMatched
	}

	m.queue = append(m.queue, endpoint)
	m.queued[endpoint] = struct{}{}
	m.logger.Debug("endpoint queued",
		zap.Stringer("endpoint", endpoint),
		zap.Int("queue_len", len(m.queue)),
	)

	m.formRooms()
	return nil
}

// formRooms drains the queue two at a time. A popped endpoint with no
// registered player is discarded with a warning; its registered
// partner goes back to the front of the queue so its position is
// preserved. Every iteration removes at least one endpoint, so the
// loop terminates. Caller must hold m.mu.
func (m *Maker) formRooms() {
	for len(m.queue) >= 2 {
		first := m.pop()
		second := m.pop()

		p1, ok1 := m.registry.Get(first)
		p2, ok2 := m.registry.Get(second)

		switch {
		case ok1 && ok2:
			m.createRoom(p1, p2)
		case ok1:
			m.pushFront(first)
			m.logger.Warn("dropping unregistered endpoint from queue",
				zap.Stringer("endpoint", second),
			)
		case ok2:
			m.pushFront(second)
			m.logger.Warn("dropping unregistered endpoint from queue",
				zap.Stringer("endpoint", first),
			)
		default:
			m.logger.Warn("dropping two unregistered endpoints from queue",
				zap.Stringer("first", first),
				zap.Stringer("second", second),
			)
		}
	}
}

// createRoom applies the formation step as one unit: both status
// writes, the room insert, and both index inserts. Caller must hold
// m.mu.
func (m *Maker) createRoom(p1, p2 *player.Player) {
	p1.SetStatus(player.StatusInMatch)
	p2.SetStatus(player.StatusInMatch)

	room := NewRoom(p1, p2)
	m.rooms[room.ID] = room
	m.playerRoom[p1.Endpoint] = room.ID
	m.playerRoom[p2.Endpoint] = room.ID

	m.logger.Info("room created",
		zap.Stringer("room_id", room.ID),
		zap.Stringer("first", p1.Endpoint),
		zap.Stringer("second", p2.Endpoint),
	)
}

func (m *Maker) pop() netip.AddrPort {
	ep := m.queue[0]
	m.queue = m.queue[1:]
	delete(m.queued, ep)
	return ep
}

func (m *Maker) pushFront(endpoint netip.AddrPort) {
	m.queue = append([]netip.AddrPort{endpoint}, m.queue...)
	m.queued[endpoint] = struct{}{}
}

// Release removes endpoint from matchmaking: a queued endpoint leaves
// the queue, and a matched endpoint's room is torn down with the
// partner returned to StatusAvailable. It reports whether anything
// changed. The wire protocol does not reach this yet; it is the seam
// for the future leave/disconnect path.
func (m *Maker) Release(endpoint netip.AddrPort) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.queued[endpoint]; ok {
		delete(m.queued, endpoint)
		for i, ep := range m.queue {
			if ep == endpoint {
				m.queue = append(m.queue[:i], m.queue[i+1:]...)
				break
			}
		}
		return true
	}

	id, ok := m.playerRoom[endpoint]
	if !ok {
		return false
	}
	room := m.rooms[id]
	delete(m.rooms, id)
	for _, ep := range room.Endpoints() {
		delete(m.playerRoom, ep)
		if ep == endpoint {
			continue
		}
		if partner, ok := m.registry.Get(ep); ok {
			partner.SetStatus(player.StatusAvailable)
		}
	}
	m.logger.Info("room released",
		zap.Stringer("room_id", id),
		zap.Stringer("endpoint", endpoint),
	)
	return true
}

// QueueLen returns the number of endpoints waiting for a room.
func (m *Maker) QueueLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// RoomCount returns the number of live rooms.
func (m *Maker) RoomCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms)
}

// Room returns the live room with the given id.
func (m *Maker) Room(id uuid.UUID) (*Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	return r, ok
}

// RoomFor returns the room that endpoint currently belongs to.
func (m *Maker) RoomFor(endpoint netip.AddrPort) (*Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.playerRoom[endpoint]
	if !ok {
		return nil, false
	}
	return m.rooms[id], true
}

// Rooms returns all live rooms in no particular order.
func (m *Maker) Rooms() []*Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r)
	}
	return out
}
