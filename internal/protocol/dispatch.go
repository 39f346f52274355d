package protocol

import "strings"

// Handler executes one command, appending its reply to rw. args excludes
// the command name itself.
type Handler func(rw *ReplyWriter, args []string)

// command is one row of the dispatch table: a name, its handler, and the
// argument-count bounds the table enforces before the handler ever runs.
// maxArgs of -1 means unbounded.
type command struct {
	name    string
	handler Handler
	minArgs int
	maxArgs int
}

// Table is a static, case-insensitive name→handler map with centralized
// arity checking: Dispatch rejects a bad argument count or an unknown name
// without ever calling into the handler.
type Table struct {
	commands map[string]command
}

// NewTable creates an empty dispatch table.
func NewTable() *Table {
	return &Table{commands: make(map[string]command)}
}

// Register adds a command. minArgs/maxArgs bound len(args) (the command
// name itself is not counted). maxArgs = -1 means no upper bound.
func (t *Table) Register(name string, minArgs, maxArgs int, h Handler) {
	t.commands[strings.ToUpper(name)] = command{
		name:    strings.ToUpper(name),
		handler: h,
		minArgs: minArgs,
		maxArgs: maxArgs,
	}
}

// Dispatch looks up parts[0] and, if found and its arity matches
// len(parts)-1, invokes the handler with parts[1:]. An unknown command or
// an arity violation appends an error reply without invoking anything.
func (t *Table) Dispatch(rw *ReplyWriter, parts []string) {
	if len(parts) == 0 {
		return
	}
	name := strings.ToUpper(parts[0])
	args := parts[1:]

	cmd, ok := t.commands[name]
	if !ok {
		rw.WriteError("ERR unknown command '" + parts[0] + "'")
		return
	}
	if len(args) < cmd.minArgs || (cmd.maxArgs >= 0 && len(args) > cmd.maxArgs) {
		rw.WriteError("ERR wrong number of arguments for '" + cmd.name + "' command")
		return
	}
	cmd.handler(rw, args)
}
