package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"kvserver/internal/protocol"
)

// MaxClients caps concurrent accepted connections. Beyond this, new
// connections are rejected with an error reply and closed immediately
// rather than queued.
const MaxClients = 10000

const rejectionTimeout = 500 * time.Millisecond

// Config holds everything Serve needs that isn't derivable from the
// dispatch table itself.
type Config struct {
	Bind            string
	Port            int
	MaxConnections  int // 0 selects MaxClients
	ShutdownTimeout time.Duration

	// ReaperWorkers bounds how many idle connections the reaper closes
	// concurrently per sweep (0 selects DefaultReaperWorkers). Closing a
	// socket can block briefly on the kernel; a small worker pool keeps
	// one slow close from delaying the rest of a large sweep.
	ReaperWorkers int
}

// Server owns the listening socket, the live-connection registry, and the
// reaper. It speaks whatever commands table has registered; it knows
// nothing about the store or the command implementations.
type Server struct {
	cfg     Config
	table   *protocol.Table
	logger  *slog.Logger
	metrics *Metrics

	registry      registry
	connLimiter   chan struct{}
	listener      net.Listener
	wg            sync.WaitGroup
	reaperWorkers int
}

// New creates a Server around the given metrics. metrics is typically
// shared with the command layer, which increments and reports the same
// counters INFO exposes, so pass nil only when no caller needs to
// read them back. ReadyCh, if later passed to Serve, is closed once the
// listener is bound — tests use it to know when to start dialing.
func New(cfg Config, table *protocol.Table, logger *slog.Logger, metrics *Metrics) *Server {
	max := cfg.MaxConnections
	if max <= 0 {
		max = MaxClients
	}
	workers := cfg.ReaperWorkers
	if workers <= 0 {
		workers = DefaultReaperWorkers
	}
	if metrics == nil {
		metrics = &Metrics{}
	}
	return &Server{
		cfg:           cfg,
		table:         table,
		logger:        logger,
		metrics:       metrics,
		connLimiter:   make(chan struct{}, max),
		reaperWorkers: workers,
	}
}

// Metrics exposes the server's counters for the INFO handler.
func (s *Server) Metrics() *Metrics { return s.metrics }

// ActiveConnections reports the registry's live count, which is always
// kept equal to Metrics().ActiveConnections.
func (s *Server) ActiveConnections() int { return s.registry.count() }

// Serve binds the listener, starts the reaper, and runs the accept loop
// until a shutdown signal arrives. A first SIGINT/SIGTERM begins a
// graceful drain (stop accepting, wait up to ShutdownTimeout for in-flight
// connections); a second occurrence of either signal during the drain
// forces an immediate return without waiting further. readyCh, if
// non-nil, is closed once the listener is bound.
func (s *Server) Serve(readyCh chan struct{}) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Bind, s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", addr, err)
	}
	s.listener = ln

	if readyCh != nil {
		close(readyCh)
	}

	reaperStop := make(chan struct{})
	go s.runReaper(reaperStop)
	defer close(reaperStop)

	shutdownErr := make(chan error, 1)
	go s.handleSignals(ln, shutdownErr)

	s.logger.Info("server starting", "address", ln.Addr().String())

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}

		select {
		case s.connLimiter <- struct{}{}:
			s.wg.Add(1)
			go s.handleConnection(conn)
		default:
			s.logger.Info("rejecting connection, limit reached", "remote_addr", conn.RemoteAddr().String())
			_ = conn.SetWriteDeadline(time.Now().Add(rejectionTimeout))
			_, _ = conn.Write([]byte("-ERR max number of clients reached\r\n"))
			_ = conn.Close()
		}
	}

	err = <-shutdownErr
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

// handleSignals implements the two-signal shutdown contract: the first
// SIGINT/SIGTERM starts a graceful drain bounded by cfg.ShutdownTimeout; a
// second delivery of either signal while draining cuts the wait short.
func (s *Server) handleSignals(ln net.Listener, shutdownErr chan<- error) {
	quit := make(chan os.Signal, 2)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	first := <-quit
	s.logger.Info("caught signal, shutting down gracefully", "signal", first.String())

	if err := ln.Close(); err != nil {
		shutdownErr <- err
		return
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	wgDone := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(wgDone)
	}()

	select {
	case <-wgDone:
		shutdownErr <- nil
	case <-ctx.Done():
		shutdownErr <- ctx.Err()
	case <-quit:
		s.logger.Info("second signal received, forcing immediate shutdown")
		shutdownErr <- nil
	}
}
