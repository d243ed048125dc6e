package models

import (
	"errors"
	"strings"
)

var ErrInvalidQRPayload = errors.New(`qr payload must be "STUDENTID|NAME"`)

// ParseQRPayload splits a scanned "STUDENTID|NAME" payload. The name part is
// optional; the id is not.
func ParseQRPayload(s string) (id, name string, err error) {
	s = strings.TrimSpace(s)
	id, name, _ = strings.Cut(s, "|")
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if id == "" {
		return "", "", ErrInvalidQRPayload
	}
	return id, name, nil
}
