// handlers_persistence.go implements SAVE, LOAD, and BACKUP — the store's
// only persistence primitives. There is no write-ahead log: a snapshot is
// an explicit, on-demand action.
package command

import (
	"time"

	"kvserver/internal/protocol"
)

// handleSave writes a snapshot to args[0], or to the configured DBFile if
// no path is given.
func (app *Application) handleSave(rw *protocol.ReplyWriter, args []string) {
	path := app.DBFile
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		rw.WriteError("ERR no database file configured")
		return
	}
	if err := app.Store.Save(path); err != nil {
		app.Logger.Error("save failed", "error", err, "path", path)
		rw.WriteError("ERR " + err.Error())
		return
	}
	app.Logger.Info("snapshot saved", "path", path)
	rw.WriteSimpleString("OK")
}

// handleLoad replaces the store's contents from args[0], or from DBFile.
// A missing file is not an error — the store is simply left untouched.
func (app *Application) handleLoad(rw *protocol.ReplyWriter, args []string) {
	path := app.DBFile
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		rw.WriteError("ERR no database file configured")
		return
	}
	if err := app.Store.Load(path); err != nil {
		app.Logger.Error("load failed", "error", err, "path", path)
		rw.WriteError("ERR " + err.Error())
		return
	}
	app.Logger.Info("snapshot loaded", "path", path)
	rw.WriteSimpleString("OK")
}

// handleBackup writes a timestamped copy of the store, named
// "<db-file>.backup.YYYYMMDD-HHMMSS" when no explicit name is given.
func (app *Application) handleBackup(rw *protocol.ReplyWriter, args []string) {
	var target string
	if len(args) == 1 {
		target = args[0]
	} else {
		base := app.DBFile
		if base == "" {
			rw.WriteError("ERR no database file configured")
			return
		}
		target = base + ".backup." + time.Now().Format("20060102-150405")
	}
	if err := app.Store.Save(target); err != nil {
		app.Logger.Error("backup failed", "error", err, "path", target)
		rw.WriteError("ERR " + err.Error())
		return
	}
	app.Logger.Info("backup written", "path", target)
	rw.WriteSimpleString("OK")
}
