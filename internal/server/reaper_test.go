package server

import (
	"io"
	"log/slog"
	"net"
	"testing"
	"time"
)

func TestSweepIdleClosesConnectionsPastTimeout(t *testing.T) {
	s := &Server{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	staleConn, stalePeer := net.Pipe()
	defer stalePeer.Close()
	fresh, freshPeer := net.Pipe()
	defer fresh.Close()
	defer freshPeer.Close()

	stale := newConnection(staleConn)
	stale.lastActive.Store(time.Now().Add(-IdleTimeout - time.Second).UnixNano())
	live := newConnection(fresh)

	s.registry.add(stale)
	s.registry.add(live)

	s.sweepIdle()

	if _, err := staleConn.Write([]byte("x")); err == nil {
		t.Error("expected the stale connection's socket to be closed")
	}
	// net.Pipe writes block until the other end reads, so drain the live
	// peer to let the write below complete.
	go func() {
		buf := make([]byte, 1)
		_, _ = freshPeer.Read(buf)
	}()
	if _, err := fresh.Write([]byte("x")); err != nil {
		t.Errorf("expected the live connection's socket to stay open: %v", err)
	}
}

func TestSweepIdleClosesConnectionsMarkedClosing(t *testing.T) {
	s := &Server{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	conn, peer := net.Pipe()
	defer peer.Close()
	c := newConnection(conn)
	c.setState(StateClosing)
	s.registry.add(c)

	s.sweepIdle()

	if _, err := conn.Write([]byte("x")); err == nil {
		t.Error("expected a CLOSING connection's socket to be closed by the sweep")
	}
}
