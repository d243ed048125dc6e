package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

type command func(ctx context.Context, args []string) error

// execIface is the command surface the REPL dispatches to. App satisfies
// it; tests use a stub.
type execIface interface {
	syncEnabled() bool

	Slot(ctx context.Context, args []string) error
	Record(ctx context.Context, args []string) error
	Scan(ctx context.Context, args []string) error
	List(ctx context.Context, args []string) error
	Edit(ctx context.Context, args []string) error
	Photo(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Push(ctx context.Context, args []string) error
	Pull(ctx context.Context, args []string) error
	Sync(ctx context.Context, args []string) error
	SyncAll(ctx context.Context, args []string) error
	Masters(ctx context.Context, args []string) error
	Template(ctx context.Context, args []string) error
	Export(ctx context.Context, args []string) error
	Archive(ctx context.Context, args []string) error
	Settings(ctx context.Context, args []string) error
	PingCmd(ctx context.Context, args []string) error
}

const helpText = `Commands:
  slot [key=value ...]       show or set the current slot (mode, subject, activity, hour, by, location, date)
  template save|use|delete <name> | template list
  r, record <id> <status>    record a student (H, S, I, A, T, D) with an optional reason
  scan [payload]             record a QR payload as present
  l, list [date] [filters]   list records (status=, mode=, pending, synced, q=)
  edit <id> key=value ...    change status, time, reason, location or by
  photo <id> <file>          attach a photo
  delete <id>                delete a record
  push | pull [date] | sync  synchronize with the endpoint
  syncall <start> <end>      pull a date range
  masters merge|pull|list|import <file>|delete <kind> <id>
  export [start] [end]       send the recap to the endpoint
  archive                    upload pending photos
  settings ...               show or change settings
  ping                       check the endpoint
  exit | quit                leave the program`

// runREPL reads commands line by line and dispatches them to a. The
// prompt carries statusFn's summary. It returns on EOF, on ctx done, or
// when the user types exit or quit.
//
// Sync commands are refused while sync is disabled. Command errors are
// printed and the loop goes on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	commands := map[string]command{
		"slot":     a.Slot,
		"r":        a.Record,
		"record":   a.Record,
		"scan":     a.Scan,
		"l":        a.List,
		"list":     a.List,
		"edit":     a.Edit,
		"photo":    a.Photo,
		"delete":   a.Delete,
		"push":     a.Push,
		"pull":     a.Pull,
		"sync":     a.Sync,
		"syncall":  a.SyncAll,
		"masters":  a.Masters,
		"template": a.Template,
		"export":   a.Export,
		"archive":  a.Archive,
		"settings": a.Settings,
		"ping":     a.PingCmd,
	}
	syncCommands := map[string]bool{"push": true, "pull": true, "sync": true, "syncall": true}

	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("absensi %s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || strings.TrimSpace(line) == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := strings.ToLower(parts[0]), parts[1:]

		switch cmd {
		case "help", "?":
			printlnFn(helpText)
			continue
		case "exit", "quit":
			printlnFn("Bye!")
			return
		}

		fn, ok := commands[cmd]
		if !ok {
			printlnFn("Unknown command:", cmd)
			continue
		}
		if syncCommands[cmd] && !a.syncEnabled() {
			printlnFn("Sync is unavailable while offline.")
			continue
		}
		if err := fn(ctx, args); err != nil {
			printlnFn(explain(err))
		}
	}
}
