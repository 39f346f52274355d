package server

import (
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"kvserver/internal/protocol"
)

// State is a connection's coarse lifecycle stage, tracked for
// introspection and for the reaper's CLOSING sweep. Go's runtime
// netpoller already provides the edge-triggered readiness this models, so
// nothing here drives actual I/O scheduling — it is bookkeeping, not a
// state machine the connection loop must consult to decide what to do
// next.
type State int32

const (
	StateReading State = iota
	StateProcessing
	StateWriting
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateReading:
		return "READING"
	case StateProcessing:
		return "PROCESSING"
	case StateWriting:
		return "WRITING"
	case StateClosing:
		return "CLOSING"
	default:
		return "UNKNOWN"
	}
}

// Connection tracks one accepted socket: its net.Conn, its place in the
// server's live-connection list, and the bookkeeping the reaper needs to
// evict it when idle.
type Connection struct {
	conn       net.Conn
	remoteAddr string
	state      atomic.Int32
	lastActive atomic.Int64 // unix nanos

	// list linkage, guarded by the owning registry's mutex — never read or
	// written without it held.
	prev, next *Connection
}

func newConnection(conn net.Conn) *Connection {
	c := &Connection{conn: conn, remoteAddr: conn.RemoteAddr().String()}
	c.touch()
	return c
}

// touch records activity, resetting the reaper's idle clock.
func (c *Connection) touch() {
	c.lastActive.Store(time.Now().UnixNano())
}

// idleFor returns how long it has been since the last recorded activity.
func (c *Connection) idleFor() time.Duration {
	return time.Since(time.Unix(0, c.lastActive.Load()))
}

func (c *Connection) setState(s State) { c.state.Store(int32(s)) }
func (c *Connection) State() State     { return State(c.state.Load()) }

// RemoteAddr returns the peer address string captured at accept time.
func (c *Connection) RemoteAddr() string { return c.remoteAddr }

// registry is the global intrusive list of live connections, walked by the
// reaper; its size backs Server.ActiveConnections. A dedicated
// mutex (distinct from the store's) guards insertion, removal, and
// traversal — mirroring the "two coarse-grained critical sections, never
// nested" resource model the rest of the engine follows.
type registry struct {
	mu   sync.Mutex
	head *Connection
	size int
}

func (r *registry) add(c *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.next = r.head
	if r.head != nil {
		r.head.prev = c
	}
	r.head = c
	r.size++
}

func (r *registry) remove(c *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.prev != nil {
		c.prev.next = c.next
	} else if r.head == c {
		r.head = c.next
	}
	if c.next != nil {
		c.next.prev = c.prev
	}
	c.prev, c.next = nil, nil
	r.size--
}

// sweep calls fn for every live connection while holding the registry
// mutex for the whole walk, matching the reaper's single-critical-section
// contract. fn must not call add/remove/sweep itself.
func (r *registry) sweep(fn func(*Connection)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for c := r.head; c != nil; c = c.next {
		fn(c)
	}
}

func (r *registry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// tuneSocket applies the TCP options the networked request pipeline
// requires: no Nagle delay, a keepalive probe schedule, and send/receive
// buffers sized to match the fixed per-connection write buffer.
func tuneSocket(conn net.Conn) {
	tc, ok := conn.(*net.TCPConn)
	if !ok {
		return
	}
	_ = tc.SetNoDelay(true)
	_ = tc.SetKeepAliveConfig(net.KeepAliveConfig{
		Enable:   true,
		Idle:     60 * time.Second,
		Interval: 10 * time.Second,
		Count:    3,
	})
	_ = tc.SetReadBuffer(64 * 1024)
	_ = tc.SetWriteBuffer(64 * 1024)
}

// handleConnection drives one accepted socket's read/dispatch/write cycle
// until the peer disconnects, a protocol error closes the connection, or
// the reaper closes the underlying socket out from under it. Shutdown
// closes only the listener and waits for this loop to end.
//
// Replies accumulate in a single ReplyWriter across a run of pipelined
// commands; the buffer is only flushed to the socket once the parser's
// internal buffer drains to zero ("smart flush" — it batches a pipelined
// burst into one write syscall instead of one write per command).
func (s *Server) handleConnection(netConn net.Conn) {
	defer func() { <-s.connLimiter }()
	defer s.wg.Done()
	defer netConn.Close()

	tuneSocket(netConn)

	c := newConnection(netConn)
	s.registry.add(c)
	s.metrics.TotalConnections.Add(1)
	s.metrics.ActiveConnections.Add(1)
	defer func() {
		s.registry.remove(c)
		s.metrics.ActiveConnections.Add(-1)
	}()

	s.logger.Info("new connection", "remote_addr", c.remoteAddr)

	parser := protocol.NewParser(netConn)
	var rw protocol.ReplyWriter

	for {
		c.setState(StateReading)
		parts, err := parser.Parse()
		if err != nil {
			switch {
			case err == io.EOF:
				s.logger.Info("client disconnected", "remote_addr", c.remoteAddr)
			case err == protocol.ErrLineTooLong:
				s.logger.Error("parser error", "error", err, "remote_addr", c.remoteAddr)
				rw.WriteError("ERR Command too long")
			default:
				s.logger.Error("parser error", "error", err, "remote_addr", c.remoteAddr)
			}
			s.flush(netConn, &rw, c)
			return
		}
		c.touch()

		if parts == nil {
			continue // blank line, nothing to dispatch
		}

		c.setState(StateProcessing)
		s.metrics.TotalCommands.Add(1)
		s.table.Dispatch(&rw, parts)

		if rw.Dropped() {
			s.metrics.TotalErrors.Add(1)
			s.logger.Error("reply dropped: write buffer exceeded", "remote_addr", c.remoteAddr)
		}

		if isQuit(parts) {
			c.setState(StateClosing)
			s.flush(netConn, &rw, c)
			return
		}

		if parser.Buffered() == 0 {
			if !s.flush(netConn, &rw, c) {
				return
			}
		}
	}
}

func isQuit(parts []string) bool {
	return len(parts) == 1 && strings.EqualFold(parts[0], "QUIT")
}

// flush writes the accumulated reply bytes and resets the writer for the
// next command. It reports whether the connection should keep going.
func (s *Server) flush(netConn net.Conn, rw *protocol.ReplyWriter, c *Connection) bool {
	if rw.Len() == 0 {
		rw.Reset()
		return true
	}
	c.setState(StateWriting)
	_, err := netConn.Write(rw.Bytes())
	rw.Reset()
	if err != nil {
		s.logger.Error("write failed", "error", err, "remote_addr", c.remoteAddr)
		return false
	}
	return true
}
