package server

import (
	"sync"
	"time"
)

// ReaperInterval is how often the reaper wakes to sweep the live-
// connection list.
const ReaperInterval = 10 * time.Second

// IdleTimeout is the inactivity threshold past which a connection is
// released by the reaper. The connection loop sets no read deadline of its
// own, so this sweep is the only idle limit.
const IdleTimeout = 300 * time.Second

// DefaultReaperWorkers bounds how many sockets a sweep closes at once
// when Config.ReaperWorkers isn't set.
const DefaultReaperWorkers = 4

// runReaper wakes every ReaperInterval and closes any connection idle
// longer than IdleTimeout or already marked CLOSING. Closing the
// underlying socket is enough to unblock that connection's read loop,
// which then runs its own cleanup (registry removal, semaphore release).
// reaper holds the registry mutex only for the duration of one sweep,
// never while closing a socket.
func (s *Server) runReaper(stop <-chan struct{}) {
	ticker := time.NewTicker(ReaperInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.sweepIdle()
		}
	}
}

// sweepIdle collects every connection due for eviction, then closes them
// through a bounded pool of s.reaperWorkers goroutines so one slow
// Close doesn't delay the rest of a large sweep.
func (s *Server) sweepIdle() {
	var toClose []*Connection
	s.registry.sweep(func(c *Connection) {
		if c.State() == StateClosing || c.idleFor() > IdleTimeout {
			toClose = append(toClose, c)
		}
	})
	if len(toClose) == 0 {
		return
	}
	s.logger.Info("reaper closing connections", "count", len(toClose))

	jobs := make(chan *Connection)
	var wg sync.WaitGroup
	workers := s.reaperWorkers
	if workers <= 0 {
		workers = DefaultReaperWorkers
	}
	if workers > len(toClose) {
		workers = len(toClose)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				c.setState(StateClosing)
				_ = c.conn.Close()
			}
		}()
	}
	for _, c := range toClose {
		jobs <- c
	}
	close(jobs)
	wg.Wait()
}
