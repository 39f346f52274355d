package protocol

import "strconv"

// WriteBufferSize is the fixed capacity of a connection's send buffer. A
// reply that would overflow it is dropped in its entirety rather than
// partially written — the single-in-flight-reply model has no room for a
// growable queue of pending byte slices.
const WriteBufferSize = 64 * 1024

// Pre-built replies for the handful of responses common enough to be worth
// skipping the builder path for entirely.
var (
	respOK   = []byte("+OK\r\n")
	respPong = []byte("+PONG\r\n")
	respZero = []byte(":0\r\n")
	respOne  = []byte(":1\r\n")
	respNil  = []byte("$-1\r\n")
)

// ReplyWriter accumulates one connection's outgoing bytes in a fixed
// buffer. Nothing is written to the network here — the connection loop
// writes Bytes() to the socket and then calls Reset.
type ReplyWriter struct {
	buf     [WriteBufferSize]byte
	len     int
	dropped bool
}

// Reset clears the buffer for reuse across commands on the same
// connection, without reallocating.
func (rw *ReplyWriter) Reset() {
	rw.len = 0
	rw.dropped = false
}

// Len reports how many bytes are currently queued.
func (rw *ReplyWriter) Len() int { return rw.len }

// Bytes returns the queued bytes. The slice aliases the ReplyWriter's
// internal buffer and is only valid until the next Reset.
func (rw *ReplyWriter) Bytes() []byte { return rw.buf[:rw.len] }

// Dropped reports whether the most recent append attempt overflowed the
// buffer and was discarded.
func (rw *ReplyWriter) Dropped() bool { return rw.dropped }

// append copies b into the buffer if it fits, or marks the reply dropped
// and discards everything written for the current command. A half-written
// reply is worse than none: a client that sees a truncated RESP frame
// cannot resynchronize without closing the connection.
func (rw *ReplyWriter) append(b []byte) {
	if rw.dropped {
		return
	}
	if rw.len+len(b) > len(rw.buf) {
		rw.dropped = true
		return
	}
	copy(rw.buf[rw.len:], b)
	rw.len += len(b)
}

// WriteSimpleString appends a "+<text>\r\n" status reply.
func (rw *ReplyWriter) WriteSimpleString(s string) {
	if s == "OK" {
		rw.append(respOK)
		return
	}
	if s == "PONG" {
		rw.append(respPong)
		return
	}
	rw.append([]byte{'+'})
	rw.append([]byte(s))
	rw.append([]byte{'\r', '\n'})
}

// WriteError appends a "-<text>\r\n" error reply. Callers are expected to
// pass a message already prefixed with an error tag (e.g. "ERR ..." or
// "WRONGTYPE ...").
func (rw *ReplyWriter) WriteError(msg string) {
	rw.append([]byte{'-'})
	rw.append([]byte(msg))
	rw.append([]byte{'\r', '\n'})
}

// WriteInteger appends a ":<decimal>\r\n" reply.
func (rw *ReplyWriter) WriteInteger(i int64) {
	if i == 0 {
		rw.append(respZero)
		return
	}
	if i == 1 {
		rw.append(respOne)
		return
	}
	var scratch [24]byte
	b := strconv.AppendInt(scratch[:0], i, 10)
	rw.append([]byte{':'})
	rw.append(b)
	rw.append([]byte{'\r', '\n'})
}

// WriteNilBulk appends the "$-1\r\n" absent-value reply.
func (rw *ReplyWriter) WriteNilBulk() {
	rw.append(respNil)
}

// WriteBulkString appends a "$<len>\r\n<bytes>\r\n" reply carrying s.
func (rw *ReplyWriter) WriteBulkString(s string) {
	rw.WriteBulkBytes([]byte(s))
}

// WriteBulkBytes appends a "$<len>\r\n<bytes>\r\n" reply carrying b
// directly, avoiding a string conversion for binary payloads.
func (rw *ReplyWriter) WriteBulkBytes(b []byte) {
	var scratch [24]byte
	lenBytes := strconv.AppendInt(scratch[:0], int64(len(b)), 10)
	rw.append([]byte{'$'})
	rw.append(lenBytes)
	rw.append([]byte{'\r', '\n'})
	rw.append(b)
	rw.append([]byte{'\r', '\n'})
}

// WriteArrayHeader appends a "*<count>\r\n" array header. The caller is
// responsible for writing exactly count elements afterward.
func (rw *ReplyWriter) WriteArrayHeader(count int) {
	var scratch [24]byte
	b := strconv.AppendInt(scratch[:0], int64(count), 10)
	rw.append([]byte{'*'})
	rw.append(b)
	rw.append([]byte{'\r', '\n'})
}

// WriteBulkArray writes a full array of bulk strings: the header plus one
// WriteBulkBytes per element.
func (rw *ReplyWriter) WriteBulkArray(items [][]byte) {
	rw.WriteArrayHeader(len(items))
	for _, it := range items {
		rw.WriteBulkBytes(it)
	}
}

// WriteIntegerArray writes a full array of integer replies.
func (rw *ReplyWriter) WriteIntegerArray(values []int64) {
	rw.WriteArrayHeader(len(values))
	for _, v := range values {
		rw.WriteInteger(v)
	}
}
