package command

import "testing"

func TestSetGetRoundTrip(t *testing.T) {
	app := newTestApp()

	rw := newReplyWriter()
	app.handleSet(rw, []string{"mykey", "hello"})
	if got := string(rw.Bytes()); got != "+OK\r\n" {
		t.Fatalf("SET: got %q, want %q", got, "+OK\r\n")
	}

	rw.Reset()
	app.handleGet(rw, []string{"mykey"})
	if got := string(rw.Bytes()); got != "$5\r\nhello\r\n" {
		t.Errorf("GET: got %q, want %q", got, "$5\r\nhello\r\n")
	}
}

func TestSetJoinsMultiWordValue(t *testing.T) {
	app := newTestApp()

	rw := newReplyWriter()
	app.handleSet(rw, []string{"greeting", "hello", "there", "world"})

	rw.Reset()
	app.handleGet(rw, []string{"greeting"})
	if got := string(rw.Bytes()); got != "$17\r\nhello there world\r\n" {
		t.Errorf("GET: got %q, want %q", got, "$17\r\nhello there world\r\n")
	}
}

func TestGetMissingKeyRepliesNilBulk(t *testing.T) {
	app := newTestApp()
	rw := newReplyWriter()

	app.handleGet(rw, []string{"absent"})

	if got := string(rw.Bytes()); got != "$-1\r\n" {
		t.Errorf("GET on missing key: got %q, want %q", got, "$-1\r\n")
	}
}

func TestGetRendersNonStringTags(t *testing.T) {
	app := newTestApp()

	if err := app.Store.SetInt64([]byte("n"), 42); err != nil {
		t.Fatalf("SetInt64: %v", err)
	}
	if err := app.Store.SetBool([]byte("b"), true); err != nil {
		t.Fatalf("SetBool: %v", err)
	}

	rw := newReplyWriter()
	app.handleGet(rw, []string{"n"})
	if got := string(rw.Bytes()); got != "$2\r\n42\r\n" {
		t.Errorf("GET int: got %q, want %q", got, "$2\r\n42\r\n")
	}

	rw.Reset()
	app.handleGet(rw, []string{"b"})
	if got := string(rw.Bytes()); got != "$4\r\ntrue\r\n" {
		t.Errorf("GET bool: got %q, want %q", got, "$4\r\ntrue\r\n")
	}
}
