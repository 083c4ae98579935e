package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/blackwell-systems/uassist/internal/userassist"
)

const rule = "--------------------------------------"

// Console prints each record as a labelled block.
type Console struct {
	w     io.Writer
	label *color.Color
}

// NewConsole returns a Console writing to w. Color follows fatih/color's
// terminal and NO_COLOR detection.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w, label: color.New(color.FgCyan, color.Bold)}
}

// Write implements Writer.
func (c *Console) Write(rec *userassist.Record) error {
	var sb strings.Builder
	sb.WriteString("\n" + rule + "\n")
	c.field(&sb, "Program Name", rec.ProgramName)
	c.field(&sb, "Run Counter", fmt.Sprint(rec.RunCounter))
	c.field(&sb, "Focus Count", fmt.Sprint(rec.FocusCount))
	c.field(&sb, "Focus Time", rec.FocusTime)
	c.field(&sb, "Last Executed", rec.LastExecuted)
	sb.WriteString(rule + "\n")

	_, err := io.WriteString(c.w, sb.String())
	return err
}

// Close implements Writer.
func (c *Console) Close() error { return nil }

func (c *Console) field(sb *strings.Builder, name, value string) {
	sb.WriteString(c.label.Sprint(name+":") + " " + value + "\n")
}
