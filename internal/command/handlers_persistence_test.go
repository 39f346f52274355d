package command

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveLoadRoundTripThroughHandlers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.db")

	app := newTestApp()
	mustSet(t, app, "a", "1")
	mustSet(t, app, "b", "2")

	rw := newReplyWriter()
	app.handleSave(rw, []string{path})
	if got := string(rw.Bytes()); got != "+OK\r\n" {
		t.Fatalf("SAVE: got %q, want %q", got, "+OK\r\n")
	}

	fresh := newTestApp()
	rw.Reset()
	fresh.handleLoad(rw, []string{path})
	if got := string(rw.Bytes()); got != "+OK\r\n" {
		t.Fatalf("LOAD: got %q, want %q", got, "+OK\r\n")
	}
	if fresh.Store.Size() != 2 {
		t.Errorf("loaded store size = %d, want 2", fresh.Store.Size())
	}
}

func TestSaveWithNoPathAndNoDBFileErrors(t *testing.T) {
	app := newTestApp()
	rw := newReplyWriter()

	app.handleSave(rw, nil)

	got := string(rw.Bytes())
	if got[0] != '-' {
		t.Errorf("SAVE with no path configured: got %q, want an -ERR reply", got)
	}
}

func TestBackupWritesTimestampedFileByDefault(t *testing.T) {
	dir := t.TempDir()
	dbFile := filepath.Join(dir, "kvserver.db")

	app := newTestApp()
	app.DBFile = dbFile
	mustSet(t, app, "a", "1")

	rw := newReplyWriter()
	app.handleBackup(rw, nil)
	if got := string(rw.Bytes()); got != "+OK\r\n" {
		t.Fatalf("BACKUP: got %q, want %q", got, "+OK\r\n")
	}

	matches, err := filepath.Glob(dbFile + ".backup.*")
	if err != nil {
		t.Fatalf("Glob: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected exactly one backup file, found %v", matches)
	}
	if _, err := os.Stat(matches[0]); err != nil {
		t.Errorf("backup file missing: %v", err)
	}
}

func TestBackupWithExplicitNameUsesIt(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "explicit.bak")

	app := newTestApp()
	mustSet(t, app, "a", "1")

	rw := newReplyWriter()
	app.handleBackup(rw, []string{target})
	if got := string(rw.Bytes()); got != "+OK\r\n" {
		t.Fatalf("BACKUP: got %q, want %q", got, "+OK\r\n")
	}
	if _, err := os.Stat(target); err != nil {
		t.Errorf("explicit backup target missing: %v", err)
	}
}
