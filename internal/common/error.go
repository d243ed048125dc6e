// Package common defines sentinel errors shared by the client store, the
// client services and the endpoint. Match them with errors.Is.
package common

import "errors"

var (
	ErrorNotFound   = errors.New("not found")
	ErrorValidation = errors.New("validation error")
	ErrorInternal   = errors.New("internal error")
	ErrorLocked     = errors.New("settings are locked")
)
