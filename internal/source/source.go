// Package source delivers raw UserAssist values from a registry backend.
//
// Every backend walks UserAssist\<GUID>\Count and hands each value to the
// caller as a RawEntry. Enumeration order is whatever the backend yields and
// callers must not rely on it.
package source

import (
	"bytes"
	"context"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/text/encoding/unicode"
)

// UserAssistPath is the UserAssist key relative to a user hive root
// (HKEY_CURRENT_USER or the root of NTUSER.DAT).
const UserAssistPath = `Software\Microsoft\Windows\CurrentVersion\Explorer\UserAssist`

// CountKey is the subkey of each UserAssist GUID key holding program records.
const CountKey = "Count"

var (
	// ErrNotFound is returned when the UserAssist key does not exist.
	ErrNotFound = goerr.New("UserAssist key not found")

	// ErrLiveUnsupported is returned by the live backend on non-Windows hosts.
	ErrLiveUnsupported = goerr.New("live registry access is only available on Windows")

	// ErrBadName is returned when a raw value name cannot be decoded to text.
	ErrBadName = goerr.New("undecodable value name")
)

// Encoding describes how RawEntry.Name is encoded.
type Encoding int

const (
	// UTF8 names are already text, as returned by most registry APIs.
	UTF8 Encoding = iota
	// UTF16LE names are raw little-endian UTF-16, possibly NUL terminated.
	UTF16LE
)

// RawEntry is one value found under a Count key.
type RawEntry struct {
	Name     []byte
	Encoding Encoding
	Value    []byte

	// Key is the path of the Count key the value was read from.
	Key string
}

// NewEntry builds a RawEntry from a value name that is already text.
func NewEntry(key, name string, value []byte) RawEntry {
	return RawEntry{Name: []byte(name), Encoding: UTF8, Value: value, Key: key}
}

// DecodeName returns the value name as a Go string.
func (e RawEntry) DecodeName() (string, error) {
	if e.Encoding != UTF16LE {
		return string(e.Name), nil
	}
	if len(e.Name)%2 != 0 {
		return "", goerr.Wrap(ErrBadName, "odd UTF-16 byte count",
			goerr.V("length", len(e.Name)), goerr.V("key", e.Key))
	}

	decoded, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(e.Name)
	if err != nil {
		return "", goerr.Wrap(ErrBadName, "invalid UTF-16", goerr.V("key", e.Key), goerr.V("cause", err.Error()))
	}
	if i := bytes.IndexByte(decoded, 0); i >= 0 {
		decoded = decoded[:i]
	}
	return string(decoded), nil
}

// Source produces the raw entries of one user profile. Walk may be called
// more than once; each call restarts the traversal. Walk stops at the first
// error returned by fn and returns it.
type Source interface {
	Walk(ctx context.Context, fn func(RawEntry) error) error
	String() string
}

// Static is a Source over a fixed slice of entries.
type Static struct {
	Name    string
	Entries []RawEntry
}

// Walk implements Source.
func (s *Static) Walk(ctx context.Context, fn func(RawEntry) error) error {
	for _, e := range s.Entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

func (s *Static) String() string {
	if s.Name == "" {
		return "static"
	}
	return s.Name
}
