package kvserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/memkv-go/internal/pubsub"
	"github.com/yndnr/memkv-go/internal/server/config"
	"github.com/yndnr/memkv-go/internal/storage/memory"
	"github.com/yndnr/memkv-go/internal/telemetry/metric"
)

// DefaultAcceptPoll bounds how long Accept blocks before the loop checks
// for a port change or shutdown.
const DefaultAcceptPoll = 500 * time.Millisecond

// Server accepts connections and dispatches their commands.
type Server struct {
	live    *config.Live
	store   *memory.Store
	broker  *pubsub.Broker
	metrics *metric.Registry
	logger  *slog.Logger

	acceptPoll time.Duration

	mu        sync.Mutex
	ln        net.Listener
	boundPort string
	badPort   string
	conns     map[uint64]*conn

	running atomic.Bool
	wg      sync.WaitGroup
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics records command and connection metrics into reg.
func WithMetrics(reg *metric.Registry) Option {
	return func(s *Server) {
		s.metrics = reg
	}
}

// WithAcceptPoll sets the accept deadline used to observe port changes.
func WithAcceptPoll(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.acceptPoll = d
		}
	}
}

// New creates a server over the shared store, broker and live config.
func New(live *config.Live, store *memory.Store, broker *pubsub.Broker, opts ...Option) *Server {
	s := &Server{
		live:       live,
		store:      store,
		broker:     broker,
		logger:     slog.Default(),
		acceptPoll: DefaultAcceptPoll,
		conns:      make(map[uint64]*conn),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start binds the configured port and begins accepting in the background.
func (s *Server) Start(ctx context.Context) error {
	port := s.live.Port()
	ln, err := net.Listen("tcp", port)
	if err != nil {
		return fmt.Errorf("listen %s: %w", port, err)
	}

	s.mu.Lock()
	s.ln = ln
	s.boundPort = port
	s.mu.Unlock()

	s.running.Store(true)
	s.logger.Info("memkv server listening", "address", ln.Addr().String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acceptLoop(ctx)
	}()
	return nil
}

// Addr returns the address currently accepting connections.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// ListenAddr is Addr as text, or "" when not listening.
func (s *Server) ListenAddr() string {
	if a := s.Addr(); a != nil {
		return a.String()
	}
	return ""
}

// Shutdown stops accepting, closes every connection and waits for their
// goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	s.mu.Lock()
	var firstErr error
	if s.ln != nil {
		if err := s.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			firstErr = err
		}
	}
	for _, c := range s.conns {
		c.close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return firstErr
}

type deadliner interface {
	SetDeadline(time.Time) error
}

func (s *Server) acceptLoop(ctx context.Context) {
	for s.running.Load() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		s.rebindIfChanged()

		s.mu.Lock()
		ln := s.ln
		s.mu.Unlock()

		if d, ok := ln.(deadliner); ok {
			_ = d.SetDeadline(time.Now().Add(s.acceptPoll))
		}

		nc, err := ln.Accept()
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("accept failed", "error", err)
			time.Sleep(s.acceptPoll)
			continue
		}

		s.track(ctx, nc)
	}
}

// rebindIfChanged moves the listener to the live port. The old listener
// stays open until the new one is bound, so a bad address leaves the
// server reachable where it was.
func (s *Server) rebindIfChanged() {
	port := s.live.Port()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Nothing binds once Shutdown has closed the listener.
	if !s.running.Load() {
		return
	}
	if port == s.boundPort || port == s.badPort {
		return
	}

	ln, err := net.Listen("tcp", port)
	if err != nil {
		s.badPort = port
		s.logger.Error("rebind failed, keeping current listener",
			"address", port, "current", s.boundPort, "error", err)
		return
	}

	old := s.ln
	s.ln = ln
	s.boundPort = port
	s.badPort = ""
	if old != nil {
		_ = old.Close()
	}

	s.metrics.Rebound()
	s.logger.Info("listener moved", "address", ln.Addr().String())
}

func (s *Server) track(ctx context.Context, nc net.Conn) {
	c := newConn(s, nc)

	s.mu.Lock()
	if !s.running.Load() {
		s.mu.Unlock()
		_ = nc.Close()
		return
	}
	s.conns[c.id] = c
	s.wg.Add(1)
	s.mu.Unlock()

	s.metrics.ConnOpened()

	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.conns, c.id)
			s.mu.Unlock()
			s.metrics.ConnClosed()
		}()
		c.serve(ctx)
	}()
}

// ConnCount returns the number of connections being served.
func (s *Server) ConnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}
