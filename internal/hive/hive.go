// Package hive reads keys and values from an offline Windows registry hive
// file (regf format), such as a user's NTUSER.DAT.
//
// Only the read path needed to enumerate keys and values is implemented:
// transaction logs are not replayed and dirty hives are read as-is.
package hive

import (
	"bytes"
	"encoding/binary"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

const (
	baseBlockSize = 0x1000

	offRootCell    = 0x24
	offMinorVer    = 0x18
	keyCompName    = 0x0020
	valueCompName  = 0x0001
	bigDataSegment = 16344
	maxListDepth   = 8
)

var (
	// ErrFormat is returned for data that is not a well-formed hive.
	ErrFormat = goerr.New("invalid registry hive")
	// ErrKeyNotFound is returned when a key path does not exist.
	ErrKeyNotFound = goerr.New("registry key not found")
)

// Hive is a registry hive loaded into memory.
type Hive struct {
	data  []byte
	root  uint32
	minor uint32
}

// Open reads the hive file at path.
func Open(path string) (*Hive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read hive", goerr.V("path", path))
	}
	h, err := New(data)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse hive", goerr.V("path", path))
	}
	return h, nil
}

// New parses a hive image held in data.
func New(data []byte) (*Hive, error) {
	if len(data) < baseBlockSize || !bytes.Equal(data[:4], []byte("regf")) {
		return nil, goerr.Wrap(ErrFormat, "missing regf signature")
	}
	return &Hive{
		data:  data,
		root:  binary.LittleEndian.Uint32(data[offRootCell:]),
		minor: binary.LittleEndian.Uint32(data[offMinorVer:]),
	}, nil
}

// Root returns the hive's root key.
func (h *Hive) Root() (*Key, error) {
	return h.key(h.root)
}

// OpenKey resolves a backslash-separated path relative to the root key.
// Matching is case-insensitive, as it is in Windows.
func (h *Hive) OpenKey(path string) (*Key, error) {
	k, err := h.Root()
	if err != nil {
		return nil, err
	}
	for _, part := range strings.Split(path, `\`) {
		if part == "" {
			continue
		}
		if k, err = k.Subkey(part); err != nil {
			return nil, goerr.Wrap(err, "failed to open key", goerr.V("path", path))
		}
	}
	return k, nil
}

// cell returns the payload of the cell at offset off (relative to the first
// hive bin).
func (h *Hive) cell(off uint32) ([]byte, error) {
	pos := int64(baseBlockSize) + int64(off)
	if pos+4 > int64(len(h.data)) {
		return nil, goerr.Wrap(ErrFormat, "cell offset out of range", goerr.V("offset", off))
	}
	size := int64(int32(binary.LittleEndian.Uint32(h.data[pos:])))
	if size < 0 {
		size = -size
	}
	if size < 4 || pos+size > int64(len(h.data)) {
		return nil, goerr.Wrap(ErrFormat, "cell size out of range", goerr.V("offset", off), goerr.V("size", size))
	}
	return h.data[pos+4 : pos+size], nil
}

func (h *Hive) key(off uint32) (*Key, error) {
	c, err := h.cell(off)
	if err != nil {
		return nil, err
	}
	if len(c) < 0x4C || string(c[:2]) != "nk" {
		return nil, goerr.Wrap(ErrFormat, "expected key node", goerr.V("offset", off))
	}
	nameLen := int(binary.LittleEndian.Uint16(c[0x48:]))
	if 0x4C+nameLen > len(c) {
		return nil, goerr.Wrap(ErrFormat, "key name out of range", goerr.V("offset", off))
	}
	return &Key{hive: h, nk: c}, nil
}

// subkeyOffsets flattens an lf, lh, li or ri list into key node offsets.
func (h *Hive) subkeyOffsets(off uint32, depth int) ([]uint32, error) {
	if depth > maxListDepth {
		return nil, goerr.Wrap(ErrFormat, "subkey index nested too deeply", goerr.V("offset", off))
	}
	c, err := h.cell(off)
	if err != nil {
		return nil, err
	}
	if len(c) < 4 {
		return nil, goerr.Wrap(ErrFormat, "short subkey list", goerr.V("offset", off))
	}
	n := int(binary.LittleEndian.Uint16(c[2:]))

	stride := 4
	switch string(c[:2]) {
	case "lf", "lh":
		stride = 8
	case "li", "ri":
	default:
		return nil, goerr.Wrap(ErrFormat, "unknown subkey list", goerr.V("offset", off), goerr.V("signature", string(c[:2])))
	}
	if 4+n*stride > len(c) {
		return nil, goerr.Wrap(ErrFormat, "subkey list out of range", goerr.V("offset", off))
	}

	var out []uint32
	for i := 0; i < n; i++ {
		child := binary.LittleEndian.Uint32(c[4+i*stride:])
		if string(c[:2]) != "ri" {
			out = append(out, child)
			continue
		}
		nested, err := h.subkeyOffsets(child, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, nested...)
	}
	return out, nil
}

func decodeName(b []byte, compressed bool) string {
	var dec []byte
	var err error
	if compressed {
		dec, err = charmap.ISO8859_1.NewDecoder().Bytes(b)
	} else {
		dec, err = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(b)
	}
	if err != nil {
		return string(b)
	}
	return string(dec)
}
