package userassist

import (
	"fmt"
	"time"
)

const (
	// fileTimeTicksPerSecond is the number of 100ns FILETIME ticks per second.
	fileTimeTicksPerSecond = 10_000_000
	// fileTimeEpochDelta is the number of seconds from 1601-01-01 to 1970-01-01.
	fileTimeEpochDelta = 11_644_473_600

	// TimeLayout renders last-executed timestamps.
	TimeLayout = "2006-01-02 15:04:05 UTC"
)

// FileTimeToTime converts a FILETIME to UTC, truncating sub-second ticks.
func FileTimeToTime(ft uint64) time.Time {
	secs := int64(ft/fileTimeTicksPerSecond) - fileTimeEpochDelta
	return time.Unix(secs, 0).UTC()
}

// TimeToFileTime is the inverse of FileTimeToTime for whole seconds.
func TimeToFileTime(t time.Time) uint64 {
	return uint64(t.Unix()+fileTimeEpochDelta) * fileTimeTicksPerSecond
}

// FormatLastExecuted renders a last-executed FILETIME. Zero means the program
// never ran, and the session pseudo-record has no meaningful timestamp; both
// render as the empty string.
func FormatLastExecuted(ft uint64, programName string) string {
	if ft == 0 || programName == SessionToken {
		return ""
	}
	return FileTimeToTime(ft).Format(TimeLayout)
}

// FormatFocusTime renders a millisecond count as "{d}d, {h}h, {m}m, {s}s".
// Leftover milliseconds are dropped.
func FormatFocusTime(ms uint32) string {
	total := ms / 1000

	days := total / 86400
	total %= 86400
	hours := total / 3600
	total %= 3600
	minutes := total / 60
	seconds := total % 60

	return fmt.Sprintf("%dd, %dh, %dm, %ds", days, hours, minutes, seconds)
}
