// Package guidmap resolves Windows known-folder and shell GUIDs to friendly
// names.
//
// A Table is built once from a two-column CSV dataset (GUID, friendly name)
// with a header row, and is read-only afterwards, so a single Table may be
// shared by any number of decoders and goroutines.
package guidmap

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// UnknownPrefix is prepended to a GUID that has no entry in the table.
const UnknownPrefix = "Unknown GUID: "

// ErrLoad is returned when the GUID dataset is missing, unreadable or malformed.
var ErrLoad = goerr.New("failed to load GUID dataset")

//go:embed knownGUIDs.csv
var knownGUIDs []byte

// Table maps canonical GUID strings to friendly labels.
type Table struct {
	labels map[string]string
}

// Resolver is implemented by anything that can turn a GUID into a label.
type Resolver interface {
	Resolve(guid string) string
}

// New builds a Table from an in-memory mapping. Keys that are not valid GUIDs
// are rejected.
func New(labels map[string]string) (*Table, error) {
	t := &Table{labels: make(map[string]string, len(labels))}
	for guid, label := range labels {
		key, err := canonical(guid)
		if err != nil {
			return nil, goerr.Wrap(ErrLoad, "invalid GUID key", goerr.V("guid", guid))
		}
		t.labels[key] = label
	}
	return t, nil
}

// Default returns the table built from the dataset compiled into the binary.
func Default() (*Table, error) {
	return Parse(bytes.NewReader(knownGUIDs), "knownGUIDs.csv")
}

// Load reads the dataset at path.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, goerr.Wrap(ErrLoad, "cannot open dataset",
			goerr.V("path", path), goerr.V("cause", err.Error()))
	}
	defer f.Close()

	return Parse(f, path)
}

// Parse reads a dataset from r. name is only used in error values.
//
// The first row is a header and is discarded. Every following row must have
// exactly two columns and a syntactically valid GUID; any violation aborts the
// load. Duplicate GUIDs overwrite earlier rows.
func Parse(r io.Reader, name string) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2
	reader.TrimLeadingSpace = true

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, goerr.Wrap(ErrLoad, "missing header row", goerr.V("source", name))
		}
		return nil, goerr.Wrap(ErrLoad, "malformed header row",
			goerr.V("source", name), goerr.V("cause", err.Error()))
	}

	t := &Table{labels: make(map[string]string)}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(ErrLoad, "malformed row",
				goerr.V("source", name), goerr.V("cause", err.Error()))
		}

		key, err := canonical(row[0])
		if err != nil {
			line, _ := reader.FieldPos(0)
			return nil, goerr.Wrap(ErrLoad, "invalid GUID",
				goerr.V("source", name), goerr.V("line", line), goerr.V("guid", row[0]))
		}
		t.labels[key] = strings.TrimSpace(row[1])
	}

	return t, nil
}

// Resolve returns the label for guid. Lookup is case-insensitive. A GUID that
// is not in the table yields UnknownPrefix followed by guid exactly as given.
func (t *Table) Resolve(guid string) string {
	if t != nil {
		if key, err := canonical(guid); err == nil {
			if label, ok := t.labels[key]; ok {
				return label
			}
		}
	}
	return UnknownPrefix + guid
}

// Len reports the number of distinct GUIDs in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.labels)
}

func canonical(guid string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(guid))
	if err != nil {
		return "", err
	}
	return strings.ToUpper(id.String()), nil
}
