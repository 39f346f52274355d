package command

import (
	"sort"
	"strings"
	"testing"
)

func TestDelCountsOnlyExistingKeys(t *testing.T) {
	app := newTestApp()
	mustSet(t, app, "a", "1")
	mustSet(t, app, "b", "2")

	rw := newReplyWriter()
	app.handleDel(rw, []string{"a", "b", "missing"})

	if got := string(rw.Bytes()); got != ":2\r\n" {
		t.Errorf("DEL: got %q, want %q", got, ":2\r\n")
	}

	rw.Reset()
	app.handleExists(rw, []string{"a"})
	if got := string(rw.Bytes()); got != ":0\r\n" {
		t.Errorf("EXISTS after DEL: got %q, want %q", got, ":0\r\n")
	}
}

func TestExistsCountsDuplicatesInArgsSeparately(t *testing.T) {
	app := newTestApp()
	mustSet(t, app, "a", "1")

	rw := newReplyWriter()
	app.handleExists(rw, []string{"a", "a", "missing"})

	if got := string(rw.Bytes()); got != ":2\r\n" {
		t.Errorf("EXISTS: got %q, want %q", got, ":2\r\n")
	}
}

func TestKeysListsEveryStoredKey(t *testing.T) {
	app := newTestApp()
	mustSet(t, app, "a", "1")
	mustSet(t, app, "b", "2")

	rw := newReplyWriter()
	app.handleKeys(rw, nil)

	got := string(rw.Bytes())
	if !strings.HasPrefix(got, "*2\r\n") {
		t.Fatalf("KEYS: got %q, want an array header of 2", got)
	}

	names := app.Store.Keys()
	keyStrings := make([]string, len(names))
	for i, k := range names {
		keyStrings[i] = string(k)
	}
	sort.Strings(keyStrings)
	if keyStrings[0] != "a" || keyStrings[1] != "b" {
		t.Errorf("Keys() = %v, want [a b]", keyStrings)
	}
}

func TestClearEmptiesTheStore(t *testing.T) {
	app := newTestApp()
	mustSet(t, app, "a", "1")

	rw := newReplyWriter()
	app.handleClear(rw, nil)

	if got := string(rw.Bytes()); got != "+OK\r\n" {
		t.Errorf("CLEAR: got %q, want %q", got, "+OK\r\n")
	}
	if app.Store.Size() != 0 {
		t.Errorf("store size after CLEAR = %d, want 0", app.Store.Size())
	}
}

func TestStatsReportsKeyCount(t *testing.T) {
	app := newTestApp()
	mustSet(t, app, "a", "1")

	rw := newReplyWriter()
	app.handleStats(rw, nil)

	got := string(rw.Bytes())
	if !strings.Contains(got, "keys:1") {
		t.Errorf("STATS reply %q does not report keys:1", got)
	}
	if !strings.Contains(got, "load_factor:") {
		t.Errorf("STATS reply %q does not report load_factor", got)
	}
}

func mustSet(t *testing.T, app *Application, key, value string) {
	t.Helper()
	if err := app.Store.SetString([]byte(key), []byte(value)); err != nil {
		t.Fatalf("SetString(%q, %q): %v", key, value, err)
	}
}
