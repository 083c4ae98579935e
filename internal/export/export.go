// Package export serializes decoded UserAssist records.
//
// Every tabular format carries the same five columns, in order: Program Name,
// Run Counter, Focus Count, Focus Time, Last Executed.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/blackwell-systems/uassist/internal/userassist"
)

// Columns is the header row of every export.
var Columns = []string{"Program Name", "Run Counter", "Focus Count", "Focus Time", "Last Executed"}

// Format selects the serialization.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSONL Format = "jsonl"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatCSV, FormatJSONL:
		return f, nil
	case "":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unknown output format %q (want csv or jsonl)", s)
}

// Ext returns the file extension for the format, without compression suffix.
func (f Format) Ext() string {
	if f == FormatJSONL {
		return ".jsonl"
	}
	return ".csv"
}

// Writer receives records one at a time. Close flushes buffered output.
type Writer interface {
	Write(rec *userassist.Record) error
	Close() error
}

// New returns a Writer of the given format over w.
func New(w io.Writer, format Format) (Writer, error) {
	switch format {
	case FormatJSONL:
		return NewJSONL(w), nil
	default:
		return NewCSV(w)
	}
}

// Options controls where and how Open writes a file. Name is used as given;
// see FileName for adding the format's extension.
type Options struct {
	Dir      string
	Name     string
	Format   Format
	Compress bool
}

// Path returns the file Open will create.
func (o Options) Path() string {
	name := o.Name
	if o.Compress && !strings.HasSuffix(name, ".zst") {
		name += ".zst"
	}
	return filepath.Join(o.Dir, name)
}

// FileName appends f's extension to name if name has none.
func FileName(name string, f Format) string {
	if filepath.Ext(name) == "" {
		return name + f.Ext()
	}
	return name
}

// Open creates the output directory if needed and returns a Writer writing
// to Options.Path.
func Open(opts Options) (Writer, string, error) {
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0755); err != nil {
			return nil, "", fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	path := opts.Path()
	f, err := os.Create(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create output file: %w", err)
	}

	closers := []io.Closer{f}
	var out io.Writer = f
	if opts.Compress {
		enc, err := zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, "", fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		out = enc
		closers = append([]io.Closer{enc}, closers...)
	}

	w, err := New(out, opts.Format)
	if err != nil {
		for _, c := range closers {
			c.Close()
		}
		return nil, "", err
	}
	return &fileWriter{Writer: w, closers: closers}, path, nil
}

// WriteAll writes every record and closes w.
func WriteAll(w Writer, records []*userassist.Record) error {
	for _, rec := range records {
		if err := w.Write(rec); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}

type fileWriter struct {
	Writer
	closers []io.Closer
}

func (fw *fileWriter) Close() error {
	err := fw.Writer.Close()
	for _, c := range fw.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
