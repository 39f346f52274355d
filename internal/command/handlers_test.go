package command

import (
	"strings"
	"testing"
)

func TestPingWithNoArgument(t *testing.T) {
	app := newTestApp()
	rw := newReplyWriter()

	app.handlePing(rw, nil)

	if got := string(rw.Bytes()); got != "+PONG\r\n" {
		t.Errorf("PING: got %q, want %q", got, "+PONG\r\n")
	}
}

func TestPingEchoesArgument(t *testing.T) {
	app := newTestApp()
	rw := newReplyWriter()

	app.handlePing(rw, []string{"hello"})

	if got := string(rw.Bytes()); got != "$5\r\nhello\r\n" {
		t.Errorf("PING hello: got %q, want %q", got, "$5\r\nhello\r\n")
	}
}

func TestInfoReportsKeyCount(t *testing.T) {
	app := newTestApp()
	if err := app.Store.SetString([]byte("a"), []byte("1")); err != nil {
		t.Fatalf("SetString: %v", err)
	}

	rw := newReplyWriter()
	app.handleInfo(rw, nil)

	got := string(rw.Bytes())
	if !strings.Contains(got, "keys:1") {
		t.Errorf("INFO reply %q does not report keys:1", got)
	}
	if !strings.Contains(got, "version:"+version) {
		t.Errorf("INFO reply %q does not report the version", got)
	}
}

func TestQuitRepliesOK(t *testing.T) {
	app := newTestApp()
	rw := newReplyWriter()

	app.handleQuit(rw, nil)

	if got := string(rw.Bytes()); got != "+OK\r\n" {
		t.Errorf("QUIT: got %q, want %q", got, "+OK\r\n")
	}
}

