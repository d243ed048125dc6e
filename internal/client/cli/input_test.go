package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rdr(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("hello world\n"), "Name?", &out)
	if err != nil || got != "hello world" {
		t.Fatalf("got %q, err=%v", got, err)
	}
	assert.Equal(t, "Name?\n> ", out.String())
}

func TestGetSimpleTextEOF(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("lastline"), "Name?", &out)
	if err != nil || got != "lastline" {
		t.Fatalf("got %q, err=%v", got, err)
	}

	_, err = GetSimpleText(rdr(""), "Name?", &out)
	assert.Error(t, err)
}

func TestGetTextOr(t *testing.T) {
	var out bytes.Buffer
	got, err := GetTextOr(rdr("\n"), "Subject", "Matematika", &out)
	require.NoError(t, err)
	assert.Equal(t, "Matematika", got)
	assert.Contains(t, out.String(), "Subject [Matematika]")

	got, err = GetTextOr(rdr("IPA\n"), "Subject", "Matematika", &out)
	require.NoError(t, err)
	assert.Equal(t, "IPA", got)
}

func TestGetPIN(t *testing.T) {
	old := readPassword
	defer func() { readPassword = old }()

	readPassword = func(int) ([]byte, error) { return []byte(" 1234 "), nil }
	var out bytes.Buffer
	pin, err := GetPIN("PIN", &out)
	require.NoError(t, err)
	assert.Equal(t, "1234", pin)
	assert.Equal(t, "PIN: \n", out.String())

	readPassword = func(int) ([]byte, error) { return nil, errors.New("boom") }
	_, err = GetPIN("PIN", &out)
	assert.Error(t, err)
}

func TestParseKV(t *testing.T) {
	got, err := parseKV([]string{"status=Sakit", "By=Bu_Sari", "reason="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"status": "Sakit", "by": "Bu Sari", "reason": ""}, got)

	_, err = parseKV([]string{"oops"})
	assert.Error(t, err)
	_, err = parseKV([]string{"=x"})
	assert.Error(t, err)
}
