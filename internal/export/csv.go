package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/blackwell-systems/uassist/internal/userassist"
)

// CSVWriter writes one row per record after a header row.
type CSVWriter struct {
	w *csv.Writer
}

// NewCSV writes the header row to w and returns the writer.
func NewCSV(w io.Writer) (*CSVWriter, error) {
	cw := &CSVWriter{w: csv.NewWriter(w)}
	if err := cw.w.Write(Columns); err != nil {
		return nil, err
	}
	return cw, nil
}

// Write implements Writer.
func (cw *CSVWriter) Write(rec *userassist.Record) error {
	return cw.w.Write([]string{
		rec.ProgramName,
		strconv.FormatUint(uint64(rec.RunCounter), 10),
		strconv.FormatUint(uint64(rec.FocusCount), 10),
		rec.FocusTime,
		rec.LastExecuted,
	})
}

// Close flushes buffered rows.
func (cw *CSVWriter) Close() error {
	cw.w.Flush()
	return cw.w.Error()
}
