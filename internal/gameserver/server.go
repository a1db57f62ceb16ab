// Package gameserver implements the UDP ingestion pipeline: one
// receive loop feeding a bounded queue, drained by an admission-limited
// pool of per-packet goroutines that decode client messages and apply
// them to the shared player registry and matchmaker.
package gameserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/cory-johannsen/pong-server/internal/config"
	"github.com/cory-johannsen/pong-server/internal/game/match"
	"github.com/cory-johannsen/pong-server/internal/game/player"
)

// packet is one received datagram plus its sender.
type packet struct {
	length  int
	src     netip.AddrPort
	payload []byte
}

// Server owns the UDP socket and the shared matchmaking state reached
// by packet handlers. It implements the lifecycle Service interface:
// Start binds the socket and blocks, Stop shuts the pipeline down.
type Server struct {
	cfg      config.Config
	logger   *zap.Logger
	registry *player.Registry
	maker    *match.Maker

	queue chan packet
	sem   *semaphore.Weighted

	inFlight atomic.Int64
	dropped  atomic.Int64

	// handle processes one packet. Tests substitute it to observe the
	// admission bound without touching the socket.
	handle func(packet)

	mu     sync.Mutex
	conn   *net.UDPConn
	cancel context.CancelFunc
	closed atomic.Bool
	wg     sync.WaitGroup
}

// New creates a Server bound to nothing yet. The queue capacity and
// admission bound come from cfg.Pipeline.
func New(cfg config.Config, registry *player.Registry, maker *match.Maker, logger *zap.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		maker:    maker,
		queue:    make(chan packet, cfg.Pipeline.QueueCapacity),
		sem:      semaphore.NewWeighted(cfg.Pipeline.MaxInFlight),
	}
	s.handle = s.processPacket
	return s
}

// Start binds the UDP socket and blocks serving packets until Stop is
// called. A bind failure is returned immediately; the server cannot
// run without its socket.
func (s *Server) Start() error {
	addr, err := net.ResolveUDPAddr("udp", s.cfg.Server.Addr())
	if err != nil {
		return fmt.Errorf("resolving %s: %w", s.cfg.Server.Addr(), err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("binding %s: %w", s.cfg.Server.Addr(), err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()
		cancel()
		return conn.Close()
	}
	s.conn = conn
	s.cancel = cancel
	s.mu.Unlock()

	s.logger.Info("udp server listening", zap.Stringer("addr", conn.LocalAddr()))

	s.wg.Add(2)
	go s.receiveLoop(conn)
	go s.dispatchLoop(ctx)
	s.wg.Wait()
	return nil
}

// Stop closes the socket and cancels dispatch. In-flight packets run
// to completion but are not waited for.
func (s *Server) Stop() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	if s.conn != nil {
		_ = s.conn.Close()
	}
}

// LocalAddr returns the bound socket address, or nil before Start has
// bound it.
func (s *Server) LocalAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

// receiveLoop owns the socket exclusively. Each datagram is copied out
// of the read buffer and handed off without blocking; read errors are
// logged and the loop continues. Closing the socket ends the loop and
// the queue with it.
func (s *Server) receiveLoop(conn *net.UDPConn) {
	defer s.wg.Done()
	defer close(s.queue)

	buf := make([]byte, s.cfg.Pipeline.ReadBufferBytes)
	for {
		n, src, err := conn.ReadFromUDPAddrPort(buf)
		if err != nil {
			if s.closed.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("udp read failed", zap.Error(err))
			continue
		}

		payload := make([]byte, n)
		copy(payload, buf[:n])
		s.enqueue(packet{length: n, src: src, payload: payload})
	}
}

// enqueue performs the non-blocking hand-off from the receive loop to
// the dispatcher. A full queue sheds the packet instead of stalling
// the socket.
func (s *Server) enqueue(pkt packet) bool {
	select {
	case s.queue <- pkt:
		return true
	default:
		s.dropped.Add(1)
		s.logger.Warn("ingest queue full, dropping packet", zap.Stringer("src", pkt.src))
		return false
	}
}

// dispatchLoop drains the queue, acquiring one admission permit per
// packet before spawning its handler. Permit acquisition suspends the
// dispatcher, never the receive loop, and caps concurrent processing
// at MaxInFlight. The permit is released when the handler returns,
// whether or not processing succeeded.
func (s *Server) dispatchLoop(ctx context.Context) {
	defer s.wg.Done()

	for pkt := range s.queue {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			return
		}
		go func(pkt packet) {
			defer s.sem.Release(1)
			s.inFlight.Add(1)
			defer s.inFlight.Add(-1)
			s.handle(pkt)
		}(pkt)
	}
}

// processPacket decodes one datagram and dispatches on its action. All
// failures are absorbed here: the sender never receives a reply, and
// nothing below this level propagates.
func (s *Server) processPacket(pkt packet) {
	s.logger.Debug("packet received",
		zap.Int("bytes", pkt.length),
		zap.Stringer("src", pkt.src),
	)

	env, err := ParseEnvelope(pkt.payload)
	if err != nil {
		s.logger.Warn("discarding malformed packet",
			zap.Stringer("src", pkt.src),
			zap.Error(err),
		)
		return
	}

	switch env.Action {
	case ActionEnter:
		s.handleEnter(pkt.src)
	case ActionJoin:
		s.handleJoin(pkt.src)
	case ActionLeave, ActionMove:
		// Reserved actions carry no server-side behavior yet.
	case "":
		// Valid object without an action string; nothing to do.
	default:
		s.logger.Warn("unknown action",
			zap.String("action", string(env.Action)),
			zap.Stringer("src", pkt.src),
		)
	}
}

func (s *Server) handleEnter(src netip.AddrPort) {
	if p, created := s.registry.Register(src); created {
		s.logger.Info("player connected",
			zap.Stringer("endpoint", src),
			zap.Stringer("player_id", p.ID),
		)
	}
}

func (s *Server) handleJoin(src netip.AddrPort) {
	if err := s.maker.Enqueue(src); err != nil {
		s.logger.Debug("join rejected",
			zap.Stringer("endpoint", src),
			zap.Error(err),
		)
	}
}

// InFlight returns the number of packets currently mid-processing.
func (s *Server) InFlight() int64 {
	return s.inFlight.Load()
}

// Dropped returns the number of packets shed because the queue was
// full.
func (s *Server) Dropped() int64 {
	return s.dropped.Load()
}
