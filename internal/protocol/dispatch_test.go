package protocol

import "testing"

func TestDispatchInvokesRegisteredHandler(t *testing.T) {
	table := NewTable()
	var gotArgs []string
	table.Register("ECHO", 1, 1, func(rw *ReplyWriter, args []string) {
		gotArgs = args
		rw.WriteBulkString(args[0])
	})

	var rw ReplyWriter
	table.Dispatch(&rw, []string{"echo", "hi"})

	if string(rw.Bytes()) != "$2\r\nhi\r\n" {
		t.Errorf("got %q", rw.Bytes())
	}
	if len(gotArgs) != 1 || gotArgs[0] != "hi" {
		t.Errorf("gotArgs = %v", gotArgs)
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	table := NewTable()
	var rw ReplyWriter
	table.Dispatch(&rw, []string{"BOGUS"})
	if string(rw.Bytes()) != "-ERR unknown command 'BOGUS'\r\n" {
		t.Errorf("got %q", rw.Bytes())
	}
}

func TestDispatchArityViolation(t *testing.T) {
	table := NewTable()
	called := false
	table.Register("SET", 2, -1, func(rw *ReplyWriter, args []string) { called = true })

	var rw ReplyWriter
	table.Dispatch(&rw, []string{"SET", "onlykey"})

	if called {
		t.Error("handler invoked despite an arity violation")
	}
	if string(rw.Bytes()) != "-ERR wrong number of arguments for 'SET' command\r\n" {
		t.Errorf("got %q", rw.Bytes())
	}
}

func TestDispatchUnboundedMaxArgs(t *testing.T) {
	table := NewTable()
	table.Register("SET", 2, -1, func(rw *ReplyWriter, args []string) {
		rw.WriteSimpleString("OK")
	})
	var rw ReplyWriter
	table.Dispatch(&rw, []string{"SET", "k", "v1", "v2", "v3"})
	if string(rw.Bytes()) != "+OK\r\n" {
		t.Errorf("got %q", rw.Bytes())
	}
}
