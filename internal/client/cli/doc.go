// Package cli is the absensi terminal client.
//
// It wires configuration, the local SQLite store, the sync services and an
// interactive REPL. Records are always written locally first; a background
// connectivity monitor pushes pending rows and pulls today's attendance
// whenever the endpoint becomes reachable.
//
// Every REPL command also exists as a one-shot cobra subcommand, see
// NewRootCommand and Execute.
package cli
