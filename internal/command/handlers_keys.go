// handlers_keys.go implements the key-space commands that aren't tied to
// a particular value type: DEL, EXISTS, KEYS, CLEAR, STATS.
package command

import (
	"strconv"

	"kvserver/internal/protocol"
)

// handleDel removes every listed key and replies with how many actually
// existed.
func (app *Application) handleDel(rw *protocol.ReplyWriter, args []string) {
	var count int64
	for _, key := range args {
		ok, err := app.Store.Delete([]byte(key))
		if err != nil {
			writeStoreError(rw, err)
			return
		}
		if ok {
			count++
		}
	}
	rw.WriteInteger(count)
}

// handleExists counts how many of the listed keys are present.
func (app *Application) handleExists(rw *protocol.ReplyWriter, args []string) {
	var count int64
	for _, key := range args {
		ok, err := app.Store.Exists([]byte(key))
		if err != nil {
			writeStoreError(rw, err)
			return
		}
		if ok {
			count++
		}
	}
	rw.WriteInteger(count)
}

// handleKeys returns every key currently stored, in whatever order the
// engine's bucket iteration produces. No pattern matching is supported.
func (app *Application) handleKeys(rw *protocol.ReplyWriter, args []string) {
	keys := app.Store.Keys()
	rw.WriteArrayHeader(len(keys))
	for _, k := range keys {
		rw.WriteBulkBytes(k)
	}
}

// handleClear empties the store entirely.
func (app *Application) handleClear(rw *protocol.ReplyWriter, args []string) {
	app.Store.Clear()
	rw.WriteSimpleString("OK")
}

// handleStats reports the engine-level sizing facts STATS promises:
// key count, bucket capacity, and load factor.
func (app *Application) handleStats(rw *protocol.ReplyWriter, args []string) {
	size := app.Store.Size()
	capacity := app.Store.Capacity()
	loadFactor := app.Store.LoadFactor()

	report := "keys:" + strconv.Itoa(size) +
		"\r\ncapacity:" + strconv.Itoa(capacity) +
		"\r\nload_factor:" + strconv.FormatFloat(loadFactor, 'f', 4, 64) +
		"\r\n"
	rw.WriteBulkString(report)
}
