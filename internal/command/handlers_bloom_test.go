package command

import "testing"

func TestBFAddNewItemReturnsOne(t *testing.T) {
	app := newTestApp()
	rw := newReplyWriter()

	app.handleBFAdd(rw, []string{"filter", "element1"})

	if got := string(rw.Bytes()); got != ":1\r\n" {
		t.Errorf("BF.ADD: got %q, want %q", got, ":1\r\n")
	}
}

func TestBFAddDuplicateReturnsZero(t *testing.T) {
	app := newTestApp()
	rw := newReplyWriter()

	app.handleBFAdd(rw, []string{"filter", "dup"})
	rw.Reset()
	app.handleBFAdd(rw, []string{"filter", "dup"})

	if got := string(rw.Bytes()); got != ":0\r\n" {
		t.Errorf("BF.ADD duplicate: got %q, want %q", got, ":0\r\n")
	}
}

func TestBFExistsOnAbsentKeyReturnsZero(t *testing.T) {
	app := newTestApp()
	rw := newReplyWriter()

	app.handleBFExists(rw, []string{"nosuchfilter", "x"})

	if got := string(rw.Bytes()); got != ":0\r\n" {
		t.Errorf("BF.EXISTS on absent filter: got %q, want %q", got, ":0\r\n")
	}
}

func TestBFAddThenExistsFindsIt(t *testing.T) {
	app := newTestApp()
	rw := newReplyWriter()

	app.handleBFAdd(rw, []string{"filter", "element1"})

	rw.Reset()
	app.handleBFExists(rw, []string{"filter", "element1"})
	if got := string(rw.Bytes()); got != ":1\r\n" {
		t.Errorf("BF.EXISTS: got %q, want %q", got, ":1\r\n")
	}

	rw.Reset()
	app.handleBFExists(rw, []string{"filter", "never-added"})
	if got := string(rw.Bytes()); got != ":0\r\n" {
		t.Errorf("BF.EXISTS on absent element: got %q, want %q", got, ":0\r\n")
	}
}

func TestBFMAddAddsEveryItem(t *testing.T) {
	app := newTestApp()
	rw := newReplyWriter()

	app.handleBFMAdd(rw, []string{"filter", "a", "b", "a"})

	if got := string(rw.Bytes()); got != "*3\r\n:1\r\n:1\r\n:0\r\n" {
		t.Errorf("BF.MADD: got %q, want %q", got, "*3\r\n:1\r\n:1\r\n:0\r\n")
	}
}

func TestBFMExistsReportsEachItem(t *testing.T) {
	app := newTestApp()
	rw := newReplyWriter()
	app.handleBFAdd(rw, []string{"filter", "a"})

	rw.Reset()
	app.handleBFMExists(rw, []string{"filter", "a", "b"})

	if got := string(rw.Bytes()); got != "*2\r\n:1\r\n:0\r\n" {
		t.Errorf("BF.MEXISTS: got %q, want %q", got, "*2\r\n:1\r\n:0\r\n")
	}
}

func TestBFAddOnWrongTypeKeyErrors(t *testing.T) {
	app := newTestApp()
	mustSet(t, app, "notafilter", "plain string")

	rw := newReplyWriter()
	app.handleBFAdd(rw, []string{"notafilter", "x"})

	got := string(rw.Bytes())
	if got[0] != '-' {
		t.Errorf("BF.ADD against a STRING key: got %q, want a -WRONGTYPE reply", got)
	}
}

func TestBFAddPersistsAcrossCalls(t *testing.T) {
	app := newTestApp()
	rw := newReplyWriter()

	for i := 0; i < 50; i++ {
		rw.Reset()
		app.handleBFAdd(rw, []string{"filter", string(rune('a' + i%26))})
	}

	v, err := app.Store.Get([]byte("filter"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(v.Bytes) == 0 {
		t.Fatal("filter key holds no bytes after repeated BF.ADD calls")
	}
}
