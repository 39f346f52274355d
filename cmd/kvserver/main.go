// main.go is the entry point for the key-value server. It wires together
// the storage engine, the command table, and the network server, and
// manages the process's startup and shutdown sequence.
//
// Startup loads the configured database file into a fresh Store before the
// listener ever opens, so no client can observe a partially-loaded store.
// A missing file is not an error: it just means the server starts empty,
// which is how a brand new deployment looks.
//
// Shutdown saves a final snapshot before the process exits, unless the
// store is empty or auto-save was disabled with -no-auto-save. Like the
// accept loop itself, this only runs after Serve returns, so it never
// races a snapshot against live traffic.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"kvserver/internal/command"
	"kvserver/internal/kvstore"
	"kvserver/internal/server"
)

type config struct {
	bind            string
	port            int
	dbFile          string
	capacity        int
	maxConnections  int
	workers         int
	backlog         int
	shutdownTimeout time.Duration
	noAutoSave      bool
	daemonize       bool
	logFile         string
	showVersion     bool
}

func main() {
	cfg := parseFlags()

	if cfg.showVersion {
		fmt.Println("kvserver 0.1.0")
		return
	}

	if cfg.daemonize {
		if done, err := daemonize(); err != nil {
			fmt.Fprintln(os.Stderr, "daemonize:", err)
			os.Exit(1)
		} else if done {
			return
		}
	}

	logger, closeLog := newLogger(cfg.logFile)
	defer closeLog()

	if cfg.backlog > 0 {
		// net.Listen has no portable hook for an explicit listen(2)
		// backlog short of constructing the socket with raw syscalls;
		// the kernel's net.core.somaxconn still bounds whatever we ask
		// for. The flag is accepted for compatibility and logged so an
		// operator can see the request was a no-op.
		logger.Warn("backlog is accepted but not applied; the kernel's somaxconn governs the accept queue", "requested", cfg.backlog)
	}

	store := kvstore.New(cfg.capacity)

	if err := store.Load(cfg.dbFile); err != nil {
		logger.Error("failed to load database file", "path", cfg.dbFile, "error", err)
		os.Exit(1)
	}
	logger.Info("database loaded", "path", cfg.dbFile, "keys", store.Size())

	metrics := &server.Metrics{}
	app := command.NewApplication(store, metrics, logger, cfg.dbFile)
	table := app.Commands()

	srv := server.New(server.Config{
		Bind:            cfg.bind,
		Port:            cfg.port,
		MaxConnections:  cfg.maxConnections,
		ShutdownTimeout: cfg.shutdownTimeout,
		ReaperWorkers:   cfg.workers,
	}, table, logger, metrics)

	defer func() {
		if cfg.noAutoSave || store.Size() == 0 {
			return
		}
		logger.Info("saving database before exit", "path", cfg.dbFile)
		if err := store.Save(cfg.dbFile); err != nil {
			logger.Error("failed to save database on shutdown", "error", err)
		}
	}()

	if err := srv.Serve(nil); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func parseFlags() config {
	var cfg config

	flag.StringVar(&cfg.bind, "bind", "127.0.0.1", "address to listen on")
	flag.StringVar(&cfg.bind, "b", "127.0.0.1", "address to listen on (shorthand)")
	flag.IntVar(&cfg.port, "port", 7379, "TCP port to listen on")
	flag.IntVar(&cfg.port, "p", 7379, "TCP port to listen on (shorthand)")
	flag.StringVar(&cfg.dbFile, "db-file", "kvstore.db", "snapshot file loaded at startup and saved at shutdown")
	flag.StringVar(&cfg.dbFile, "f", "kvstore.db", "snapshot file (shorthand)")
	flag.IntVar(&cfg.capacity, "capacity", 0, "initial bucket capacity hint (0 selects the engine default)")
	flag.IntVar(&cfg.capacity, "c", 0, "initial bucket capacity hint (shorthand)")
	flag.IntVar(&cfg.maxConnections, "max-connections", 0, "maximum concurrent clients (0 selects the server default)")
	flag.IntVar(&cfg.workers, "workers", server.DefaultReaperWorkers, "concurrent socket closes per reaper sweep, 1..64")
	flag.IntVar(&cfg.workers, "w", server.DefaultReaperWorkers, "reaper worker count (shorthand)")
	flag.IntVar(&cfg.backlog, "backlog", 0, "requested listen backlog (advisory; see -help)")
	flag.DurationVar(&cfg.shutdownTimeout, "shutdown-timeout", 30*time.Second, "time to wait for in-flight connections during graceful shutdown")
	flag.BoolVar(&cfg.noAutoSave, "no-auto-save", false, "skip the final snapshot on shutdown")
	flag.BoolVar(&cfg.daemonize, "daemonize", false, "detach from the controlling terminal and run in the background")
	flag.BoolVar(&cfg.daemonize, "d", false, "daemonize (shorthand)")
	flag.StringVar(&cfg.logFile, "log-file", "", "write logs here instead of stderr")
	flag.StringVar(&cfg.logFile, "l", "", "log file (shorthand)")
	flag.BoolVar(&cfg.showVersion, "version", false, "print the version and exit")
	flag.BoolVar(&cfg.showVersion, "v", false, "print the version and exit (shorthand)")
	flag.Parse()

	if cfg.workers < 1 {
		cfg.workers = 1
	} else if cfg.workers > 64 {
		cfg.workers = 64
	}

	return cfg
}

// newLogger opens logFile for append if given, or falls back to stderr.
// The returned closer must run before the process exits; it is a no-op
// for the stderr case.
func newLogger(logFile string) (*slog.Logger, func()) {
	if logFile == "" {
		return slog.New(slog.NewTextHandler(os.Stderr, nil)), func() {}
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		logger.Error("failed to open log file, logging to stderr instead", "path", logFile, "error", err)
		return logger, func() {}
	}
	return slog.New(slog.NewTextHandler(f, nil)), func() { _ = f.Close() }
}
