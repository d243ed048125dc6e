// Package client holds the device side plumbing below the services: opening
// and migrating the SQLite database, wiring the repositories, and the HTTP
// client for the remote endpoint.
//
// Transport failures surface as ErrUnavailable, non-2xx answers as
// *StatusError and undecodable bodies as ErrMalformedResponse. The services
// package turns all three into its failed_fetch outcome.
package client
