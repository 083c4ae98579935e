// Package output provides terminal output utilities for uassist.
//
// This package includes:
//   - Table rendering for stored runs and their records
//   - A spinner for extractions that take a while (large hives, slow disks)
//
// Tables use box-drawing rules and ANSI color codes on a terminal only.
package output

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/uassist/internal/store"
	"github.com/blackwell-systems/uassist/internal/userassist"
)

// ANSI color codes
const (
	colorReset = "\033[0m"
	colorGray  = "\033[90m"
	colorBold  = "\033[1m"
)

// now is replaced in tests.
var now = time.Now

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// colorize wraps text in the given ANSI color code if color is enabled,
// otherwise returns the plain text.
func colorize(color, text string) string {
	if IsColorEnabled() {
		return color + text + colorReset
	}
	return text
}

// RenderRunTable renders stored runs, newest first.
func RenderRunTable(runs []*store.Run) string {
	if len(runs) == 0 {
		return "No runs recorded.\n"
	}

	sorted := make([]*store.Run, len(runs))
	copy(sorted, runs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartedAt.After(sorted[j].StartedAt)
	})

	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("%-8s %-16s %-8s %-8s %s\n",
		"Run", "Started", "Records", "Skipped", "Source"))
	sb.WriteString(strings.Repeat("─", 80))
	sb.WriteString("\n")

	// Rows
	for _, run := range sorted {
		sb.WriteString(fmt.Sprintf("%-8s %-16s %-8s %-8s %s\n",
			ShortID(run.ID),
			humanize.RelTime(run.StartedAt, now(), "ago", "from now"),
			humanize.Comma(int64(run.RecordCount)),
			humanize.Comma(int64(run.SkippedCount)),
			run.Source))
	}

	return sb.String()
}

// ShortID returns the leading characters of a run ID shown in tables. It is
// long enough to be accepted back as a RUN_ID prefix.
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// RenderRecordTable renders records sorted by run counter, highest first.
// Programs that never ran are shown dimmed.
func RenderRecordTable(records []*userassist.Record) string {
	if len(records) == 0 {
		return "No records.\n"
	}

	sorted := make([]*userassist.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].RunCounter > sorted[j].RunCounter
	})

	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("%-48s %6s %6s %-18s %s\n",
		"Program Name", "Runs", "Focus", "Focus Time", "Last Executed"))
	sb.WriteString(strings.Repeat("─", 110))
	sb.WriteString("\n")

	// Rows
	for _, rec := range sorted {
		line := fmt.Sprintf("%-48s %6d %6d %-18s %s",
			truncate(rec.ProgramName, 48),
			rec.RunCounter,
			rec.FocusCount,
			rec.FocusTime,
			formatLastExecuted(rec))
		if rec.LastExecuted == "" {
			line = colorize(colorGray, line)
		}
		sb.WriteString(line + "\n")
	}

	return sb.String()
}

// RenderRunSummary renders the one-line summary printed after an extraction.
func RenderRunSummary(source string, records, excluded, skipped int) string {
	msg := fmt.Sprintf("%s: %s records", source, humanize.Comma(int64(records)))
	if excluded > 0 {
		msg += fmt.Sprintf(", %d session entries excluded", excluded)
	}
	if skipped > 0 {
		msg += fmt.Sprintf(", %d malformed skipped", skipped)
	}
	return colorize(colorBold, msg) + "\n"
}

// formatLastExecuted shows the UTC timestamp with a relative hint.
func formatLastExecuted(rec *userassist.Record) string {
	at, ok := rec.LastExecutedAt()
	if !ok {
		return "never"
	}
	return fmt.Sprintf("%s (%s)", rec.LastExecuted, humanize.RelTime(at, now(), "ago", "from now"))
}

// truncate shortens s to maxLen runes, marking the cut with "...".
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
