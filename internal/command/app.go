// Package command implements the PING/INFO/SET/GET/DEL/EXISTS/KEYS/CLEAR/
// STATS/SAVE/LOAD/BACKUP/QUIT handlers and the bloom-filter commands, and
// wires them into a protocol.Table the server package can dispatch
// through. It knows about the store and the wire format; the server
// package knows about neither.
package command

import (
	"log/slog"
	"time"

	"kvserver/internal/kvstore"
	"kvserver/internal/protocol"
	"kvserver/internal/server"
)

// version is reported by INFO. There is no release process for this
// binary yet, so it is pinned here rather than threaded through a build
// flag.
const version = "0.1.0"

// Application holds everything the command handlers close over: the
// store, the server's counters, the configured persistence path, and a
// logger. One Application is constructed in main and lives for the
// process's lifetime.
type Application struct {
	Store   *kvstore.Store
	Metrics *server.Metrics
	Logger  *slog.Logger

	DBFile string

	startedAt time.Time
}

// NewApplication constructs an Application ready to have its commands
// registered into a dispatch table.
func NewApplication(store *kvstore.Store, metrics *server.Metrics, logger *slog.Logger, dbFile string) *Application {
	return &Application{
		Store:     store,
		Metrics:   metrics,
		Logger:    logger,
		DBFile:    dbFile,
		startedAt: time.Now(),
	}
}

// Commands builds the dispatch table for every handler this package
// implements. This is the single source of truth for what commands the
// server supports.
func (app *Application) Commands() *protocol.Table {
	table := protocol.NewTable()

	table.Register("PING", 0, 1, app.handlePing)
	table.Register("INFO", 0, 0, app.handleInfo)
	table.Register("QUIT", 0, 0, app.handleQuit)

	table.Register("SET", 2, -1, app.handleSet)
	table.Register("GET", 1, 1, app.handleGet)
	table.Register("DEL", 1, -1, app.handleDel)
	table.Register("EXISTS", 1, -1, app.handleExists)
	table.Register("KEYS", 0, 0, app.handleKeys)
	table.Register("CLEAR", 0, 0, app.handleClear)
	table.Register("STATS", 0, 0, app.handleStats)

	table.Register("SAVE", 0, 1, app.handleSave)
	table.Register("LOAD", 0, 1, app.handleLoad)
	table.Register("BACKUP", 0, 1, app.handleBackup)

	table.Register("BF.ADD", 2, 2, app.handleBFAdd)
	table.Register("BF.MADD", 2, -1, app.handleBFMAdd)
	table.Register("BF.EXISTS", 2, 2, app.handleBFExists)
	table.Register("BF.MEXISTS", 2, -1, app.handleBFMExists)

	return table
}

func (app *Application) uptime() time.Duration {
	return time.Since(app.startedAt)
}
