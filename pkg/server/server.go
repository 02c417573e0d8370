// Package server implements the lineserv TCP server: a single-threaded
// reactor that multiplexes every client connection through one event loop.
//
// The loop is the sole owner of the connection registry and of every
// per-connection state object (framer and session). Readiness is delivered
// to it as events on a channel: the accept goroutine announces new
// connections and a bounded-read goroutine per connection forwards inbound
// bytes. All framing, state transitions, command evaluation, and response
// writes happen inside the loop, strictly sequentially, so no two
// connections are ever processed concurrently and no locking is needed.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marmos91/lineserv/internal/logger"
	"github.com/marmos91/lineserv/pkg/auth"
	"github.com/marmos91/lineserv/pkg/metrics"
	"github.com/marmos91/lineserv/pkg/protocol"
)

// Config holds the server settings.
type Config struct {
	// BindAddress is the IP address to bind to. Empty binds all interfaces.
	BindAddress string

	// Port is the TCP port to listen on. 0 picks an ephemeral port
	// (useful in tests; read it back via Port()).
	Port int

	// MaxConnections limits concurrent client connections. 0 = unlimited.
	MaxConnections int

	// MaxLineLength bounds the per-connection partial-line buffer.
	MaxLineLength int

	// Policy selects the pre-login failure handling.
	Policy LoginPolicy

	// IdleTimeout closes connections with no inbound traffic for this
	// long. 0 disables the timeout.
	IdleTimeout time.Duration

	// ShutdownTimeout bounds the graceful-shutdown drain.
	ShutdownTimeout time.Duration
}

// eventKind discriminates reactor events.
type eventKind int

const (
	evAccept eventKind = iota
	evData
	evClosed
)

// event is one readiness notification delivered to the reactor loop.
type event struct {
	kind eventKind
	c    *conn
	data []byte
	err  error
}

// Server multiplexes client connections over a single reactor loop.
type Server struct {
	config  Config
	store   *auth.Store
	metrics metrics.ServerMetrics

	listener net.Listener
	port     atomic.Int32

	// ListenerReady is closed when the listener is accepting connections.
	// Used by tests to synchronize with server startup.
	ListenerReady chan struct{}

	// connSemaphore limits concurrent connections when MaxConnections > 0.
	connSemaphore chan struct{}

	// shutdown signals the accept goroutine that the listener was closed
	// deliberately.
	shutdown chan struct{}

	// events carries readiness notifications from the accept and reader
	// goroutines into the loop.
	events chan event

	// readers tracks live reader goroutines for shutdown draining.
	readers sync.WaitGroup

	nextConnID uint64
	registry   map[uint64]*conn
}

// New creates a server. metrics may be nil to disable collection.
func New(cfg Config, store *auth.Store, m metrics.ServerMetrics) *Server {
	if cfg.MaxLineLength <= 0 {
		cfg.MaxLineLength = protocol.DefaultMaxLineLength
	}

	var sem chan struct{}
	if cfg.MaxConnections > 0 {
		sem = make(chan struct{}, cfg.MaxConnections)
	}

	return &Server{
		config:        cfg,
		store:         store,
		metrics:       m,
		ListenerReady: make(chan struct{}),
		connSemaphore: sem,
		shutdown:      make(chan struct{}),
		registry:      make(map[uint64]*conn),
	}
}

// Port returns the port the listener is bound to. Valid once
// ListenerReady is closed.
func (s *Server) Port() int {
	return int(s.port.Load())
}

// Serve listens and runs the reactor loop until the context is cancelled.
// It returns nil on graceful shutdown.
func (s *Server) Serve(ctx context.Context) error {
	listenAddr := fmt.Sprintf("%s:%d", s.config.BindAddress, s.config.Port)
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return fmt.Errorf("failed to create listener on %s: %w", listenAddr, err)
	}
	s.listener = listener
	s.port.Store(int32(listener.Addr().(*net.TCPAddr).Port))
	close(s.ListenerReady)

	logger.Info("Server listening", logger.KeyPort, s.Port(), "login_policy", s.policyName())

	s.events = make(chan event, 128)
	go s.acceptLoop(s.events)

	for {
		select {
		case <-ctx.Done():
			return s.gracefulShutdown()
		case ev := <-s.events:
			s.handleEvent(ev)
		}
	}
}

// acceptLoop accepts connections and forwards them to the reactor as
// events. It runs until the listener is closed.
func (s *Server) acceptLoop(events chan<- event) {
	for {
		if s.connSemaphore != nil {
			select {
			case s.connSemaphore <- struct{}{}:
			case <-s.shutdown:
				return
			}
		}

		nc, err := s.listener.Accept()
		if err != nil {
			if s.connSemaphore != nil {
				<-s.connSemaphore
			}
			select {
			case <-s.shutdown:
				return
			default:
				logger.Debug("Error accepting connection", logger.KeyError, err)
				continue
			}
		}

		// Disable Nagle's algorithm; every protocol message is one short line.
		if tcp, ok := nc.(*net.TCPConn); ok {
			if err := tcp.SetNoDelay(true); err != nil {
				logger.Debug("Failed to set TCP_NODELAY", logger.KeyError, err)
			}
		}

		select {
		case events <- event{kind: evAccept, c: &conn{nc: nc}}:
		case <-s.shutdown:
			_ = nc.Close()
			return
		}
	}
}

// handleEvent processes one readiness event inside the loop.
func (s *Server) handleEvent(ev event) {
	switch ev.kind {
	case evAccept:
		s.handleAccept(ev.c)
	case evData:
		if !ev.c.closed {
			s.handleData(ev.c, ev.data)
		}
	case evClosed:
		if !ev.c.closed {
			s.handlePeerClose(ev.c, ev.err)
		}
	}
}

// handleAccept registers the connection, sends the welcome line, and only
// then starts its reader goroutine, so no data event can precede
// registration.
func (s *Server) handleAccept(c *conn) {
	s.nextConnID++
	c.id = s.nextConnID
	c.framer = protocol.NewLineFramer(s.config.MaxLineLength)
	c.session = NewSession(s.store, s.config.Policy, s.metrics)
	c.logCtx = logger.NewLogContext(c.id, c.nc.RemoteAddr().String())

	s.registry[c.id] = c

	if s.metrics != nil {
		s.metrics.RecordConnectionAccepted()
		s.metrics.SetActiveConnections(int32(len(s.registry)))
	}
	logger.DebugCtx(c.logContext(), "Connection accepted", logger.KeyActive, len(s.registry))

	if !s.write(c, protocol.MsgWelcome) {
		s.closeConn(c)
		return
	}

	s.readers.Add(1)
	go func() {
		defer s.readers.Done()
		c.readLoop(s.events, s.config.IdleTimeout)
	}()
}

// handleData feeds freshly read bytes through the connection's framer and
// drives the session with every complete line, in arrival order.
func (s *Server) handleData(c *conn, data []byte) {
	lines, err := c.framer.Feed(data)

	for _, line := range lines {
		responses, closeConn := c.session.HandleLine(line)
		for _, response := range responses {
			if !s.write(c, response) {
				s.closeConn(c)
				return
			}
		}
		if closeConn {
			logger.DebugCtx(c.logContext(), "Session closed by state machine")
			s.closeConn(c)
			return
		}
	}

	if err != nil {
		logger.WarnCtx(c.logContext(), "Oversized line from peer", logger.KeyError, err)
		if s.metrics != nil {
			s.metrics.RecordProtocolViolation("line_too_long")
		}
		s.closeConn(c)
	}
}

// handlePeerClose tears down a connection whose reader saw EOF or an
// error. EOF and loop-initiated closes are normal; deadline expiry is the
// idle timeout firing.
func (s *Server) handlePeerClose(c *conn, err error) {
	switch {
	case errors.Is(err, io.EOF):
		logger.DebugCtx(c.logContext(), "Peer disconnected")
	case errors.Is(err, os.ErrDeadlineExceeded):
		logger.InfoCtx(c.logContext(), "Idle timeout expired")
	default:
		logger.DebugCtx(c.logContext(), "Read error", logger.KeyError, err)
	}
	s.closeConn(c)
}

// write sends one protocol line. Returns false if the write failed, in
// which case the caller must close the connection.
func (s *Server) write(c *conn, line string) bool {
	if _, err := c.nc.Write([]byte(line + "\n")); err != nil {
		logger.DebugCtx(c.logContext(), "Write failed", logger.KeyError, err)
		return false
	}
	return true
}

// closeConn closes the socket and removes the connection from the
// registry. Idempotent per connection; late events are dropped by the
// closed flag.
func (s *Server) closeConn(c *conn) {
	if c.closed {
		return
	}
	c.closed = true

	_ = c.nc.Close()
	delete(s.registry, c.id)

	if s.connSemaphore != nil {
		<-s.connSemaphore
	}
	if s.metrics != nil {
		s.metrics.RecordConnectionClosed()
		s.metrics.SetActiveConnections(int32(len(s.registry)))
	}
	logger.DebugCtx(c.logContext(), "Connection closed",
		logger.KeyActive, len(s.registry),
		logger.KeyDurationMS, logger.Duration(c.logCtx.StartTime))
}

// gracefulShutdown stops accepting, closes every live connection, and
// drains the reader goroutines, bounded by ShutdownTimeout.
func (s *Server) gracefulShutdown() error {
	logger.Info("Shutting down", logger.KeyActive, len(s.registry))

	close(s.shutdown)
	_ = s.listener.Close()

	for _, c := range s.registry {
		s.closeConn(c)
	}

	// Drain the event channel until every reader goroutine has exited, so
	// none stays blocked on a send.
	done := make(chan struct{})
	go func() {
		s.readers.Wait()
		close(done)
	}()

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = time.Second
	}
	deadline := time.After(timeout)
	for {
		select {
		case ev := <-s.events:
			if ev.kind == evAccept {
				_ = ev.c.nc.Close()
			}
		case <-done:
			logger.Info("Server stopped")
			return nil
		case <-deadline:
			logger.Warn("Shutdown timeout expired with readers still live")
			return nil
		}
	}
}

func (s *Server) policyName() string {
	if s.config.Policy == PolicyStrict {
		return "strict"
	}
	return "retry"
}
