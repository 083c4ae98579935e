package userassist

import (
	"encoding/binary"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// SessionToken names the session-tracking pseudo-record.
const SessionToken = "UEME_CTLSESSION"

// MinRecordSize is the shortest payload holding every field we read.
const MinRecordSize = 68

const (
	offRunCounter   = 4
	offFocusCount   = 8
	offFocusTime    = 12
	offLastExecuted = 60
)

// ErrMalformedRecord is returned for payloads shorter than MinRecordSize.
var ErrMalformedRecord = goerr.New("malformed UserAssist record")

// Record is one decoded UserAssist entry.
type Record struct {
	ProgramName  string
	RunCounter   uint32
	FocusCount   uint32
	FocusTime    string
	LastExecuted string

	FocusTimeMS     uint32
	LastExecutedRaw uint64
}

// LastExecutedAt returns the last-executed time and whether it is set.
func (r *Record) LastExecutedAt() (time.Time, bool) {
	if r.LastExecuted == "" {
		return time.Time{}, false
	}
	return FileTimeToTime(r.LastExecutedRaw), true
}

// DecodeRecord parses value for the already decoded program name. It returns
// nil, nil for the session pseudo-record.
func DecodeRecord(name string, value []byte) (*Record, error) {
	if name == SessionToken {
		return nil, nil
	}
	if len(value) < MinRecordSize {
		return nil, goerr.Wrap(ErrMalformedRecord, "payload too short",
			goerr.V("program", name),
			goerr.V("length", len(value)),
			goerr.V("minimum", MinRecordSize))
	}

	focusMS := binary.LittleEndian.Uint32(value[offFocusTime:])
	lastRaw := binary.LittleEndian.Uint64(value[offLastExecuted:])

	return &Record{
		ProgramName:     name,
		RunCounter:      binary.LittleEndian.Uint32(value[offRunCounter:]),
		FocusCount:      binary.LittleEndian.Uint32(value[offFocusCount:]),
		FocusTime:       FormatFocusTime(focusMS),
		LastExecuted:    FormatLastExecuted(lastRaw, name),
		FocusTimeMS:     focusMS,
		LastExecutedRaw: lastRaw,
	}, nil
}
