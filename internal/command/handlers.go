// handlers.go implements the server-level commands that aren't specific
// to any stored data type: PING, INFO, QUIT.
package command

import (
	"strconv"
	"strings"

	"kvserver/internal/protocol"
)

// handlePing answers a liveness check. With no argument it replies with
// the standard status; with one, it echoes it back as a bulk string.
func (app *Application) handlePing(rw *protocol.ReplyWriter, args []string) {
	if len(args) == 0 {
		rw.WriteSimpleString("PONG")
		return
	}
	rw.WriteBulkString(args[0])
}

// handleInfo reports a key:value snapshot of server state: version,
// uptime, connection and command counters, and the current key count.
func (app *Application) handleInfo(rw *protocol.ReplyWriter, args []string) {
	var b strings.Builder

	b.WriteString("# Server\r\n")
	b.WriteString("version:" + version + "\r\n")
	b.WriteString("uptime_seconds:" + strconv.FormatInt(int64(app.uptime().Seconds()), 10) + "\r\n")

	b.WriteString("# Stats\r\n")
	b.WriteString("connections_total:" + strconv.FormatUint(app.Metrics.TotalConnections.Load(), 10) + "\r\n")
	b.WriteString("connections_active:" + strconv.FormatInt(app.Metrics.ActiveConnections.Load(), 10) + "\r\n")
	b.WriteString("commands_processed_total:" + strconv.FormatUint(app.Metrics.TotalCommands.Load(), 10) + "\r\n")
	b.WriteString("errors_total:" + strconv.FormatUint(app.Metrics.TotalErrors.Load(), 10) + "\r\n")
	b.WriteString("keys:" + strconv.Itoa(app.Store.Size()) + "\r\n")

	rw.WriteBulkString(b.String())
}

// handleQuit replies +OK; the server's connection loop recognizes QUIT by
// name and closes the socket right after this reply is flushed.
func (app *Application) handleQuit(rw *protocol.ReplyWriter, args []string) {
	rw.WriteSimpleString("OK")
}
