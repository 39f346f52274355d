// handlers_string.go implements SET and GET. SET always produces a
// STRING value; GET renders whatever tag is actually stored, using the
// canonical text forms described for the wire protocol.
package command

import (
	"fmt"
	"strconv"
	"strings"

	"kvserver/internal/kvstore"
	"kvserver/internal/protocol"
)

// handleSet stores the joined remainder of args under key args[0].
// Because the parser is a plain whitespace tokenizer, a value containing
// spaces arrives as several tokens; they are rejoined with a single space
// each, collapsing any run of whitespace the value originally had — a
// known limitation of the line protocol, not a bug.
func (app *Application) handleSet(rw *protocol.ReplyWriter, args []string) {
	key := args[0]
	value := strings.Join(args[1:], " ")

	if err := app.Store.SetString([]byte(key), []byte(value)); err != nil {
		writeStoreError(rw, err)
		return
	}
	rw.WriteSimpleString("OK")
}

// handleGet fetches key and renders it by tag. A missing key is the
// protocol's one non-error "absence" reply ($-1), never an -ERR.
func (app *Application) handleGet(rw *protocol.ReplyWriter, args []string) {
	v, err := app.Store.Get([]byte(args[0]))
	if err != nil {
		if err == kvstore.ErrNotFound {
			rw.WriteNilBulk()
			return
		}
		writeStoreError(rw, err)
		return
	}
	rw.WriteBulkBytes(renderValue(v))
}

// renderValue produces the canonical text form GET uses for every tag
// other than STRING, which passes its bytes through unchanged.
func renderValue(v kvstore.Value) []byte {
	switch v.Tag {
	case kvstore.TagString, kvstore.TagBinary:
		return v.Bytes
	case kvstore.TagInt64:
		return []byte(strconv.FormatInt(v.Int, 10))
	case kvstore.TagDouble:
		return []byte(fmt.Sprintf("%g", v.Double))
	case kvstore.TagBool:
		if v.Bool {
			return []byte("true")
		}
		return []byte("false")
	case kvstore.TagNull:
		return []byte{}
	default:
		return []byte{}
	}
}

// writeStoreError translates an engine-level error into a wire reply.
// ErrNotFound is handled by each call site individually since its
// meaning (absent vs. error) differs per command.
func writeStoreError(rw *protocol.ReplyWriter, err error) {
	switch err {
	case kvstore.ErrTypeMismatch:
		rw.WriteError("WRONGTYPE Operation against a key holding the wrong kind of value")
	case kvstore.ErrInvalidKey:
		rw.WriteError("ERR invalid key")
	case kvstore.ErrValueTooLarge:
		rw.WriteError("ERR Value too large")
	default:
		rw.WriteError("ERR " + err.Error())
	}
}
