package export

import (
	"bufio"
	"io"

	"github.com/valyala/fastjson"

	"github.com/blackwell-systems/uassist/internal/userassist"
)

// JSONLWriter writes one JSON object per line, keyed by the column names.
type JSONLWriter struct {
	w     *bufio.Writer
	arena fastjson.Arena
	buf   []byte
}

// NewJSONL returns a JSON Lines writer over w.
func NewJSONL(w io.Writer) *JSONLWriter {
	return &JSONLWriter{w: bufio.NewWriter(w)}
}

// Write implements Writer.
func (jw *JSONLWriter) Write(rec *userassist.Record) error {
	a := &jw.arena
	obj := a.NewObject()
	obj.Set(Columns[0], a.NewString(rec.ProgramName))
	obj.Set(Columns[1], a.NewNumberInt(int(rec.RunCounter)))
	obj.Set(Columns[2], a.NewNumberInt(int(rec.FocusCount)))
	obj.Set(Columns[3], a.NewString(rec.FocusTime))
	obj.Set(Columns[4], a.NewString(rec.LastExecuted))

	jw.buf = obj.MarshalTo(jw.buf[:0])
	jw.buf = append(jw.buf, '\n')
	a.Reset()

	_, err := jw.w.Write(jw.buf)
	return err
}

// Close flushes buffered lines.
func (jw *JSONLWriter) Close() error {
	return jw.w.Flush()
}
