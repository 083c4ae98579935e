package hive

import (
	"encoding/binary"

	"github.com/m-mizutani/goerr/v2"
)

// RegBinary is the REG_BINARY value type.
const RegBinary = 3

// Value is a registry value.
type Value struct {
	// RawName is the name as stored: Latin-1 when Compressed, else UTF-16LE.
	RawName    []byte
	Compressed bool
	Type       uint32
	Data       []byte
}

// Name returns the decoded value name.
func (v *Value) Name() string {
	return decodeName(v.RawName, v.Compressed)
}

func (h *Hive) value(off uint32) (*Value, error) {
	c, err := h.cell(off)
	if err != nil {
		return nil, err
	}
	if len(c) < 0x14 || string(c[:2]) != "vk" {
		return nil, goerr.Wrap(ErrFormat, "expected value node", goerr.V("offset", off))
	}

	nameLen := int(binary.LittleEndian.Uint16(c[0x02:]))
	if 0x14+nameLen > len(c) {
		return nil, goerr.Wrap(ErrFormat, "value name out of range", goerr.V("offset", off))
	}
	v := &Value{
		RawName:    c[0x14 : 0x14+nameLen],
		Compressed: binary.LittleEndian.Uint16(c[0x10:])&valueCompName != 0,
		Type:       binary.LittleEndian.Uint32(c[0x0C:]),
	}

	size := binary.LittleEndian.Uint32(c[0x04:])
	if size&0x80000000 != 0 {
		size &^= 0x80000000
		if size > 4 {
			size = 4
		}
		v.Data = c[0x08 : 0x08+size]
		return v, nil
	}
	if size == 0 {
		return v, nil
	}

	data, err := h.cell(binary.LittleEndian.Uint32(c[0x08:]))
	if err != nil {
		return nil, err
	}
	if size > bigDataSegment && h.minor >= 4 && len(data) >= 8 && string(data[:2]) == "db" {
		v.Data, err = h.bigData(data, int(size))
		return v, err
	}
	if int(size) > len(data) {
		return nil, goerr.Wrap(ErrFormat, "value data out of range", goerr.V("offset", off), goerr.V("size", size))
	}
	v.Data = data[:size]
	return v, nil
}

// bigData joins the segments of a "db" record.
func (h *Hive) bigData(db []byte, size int) ([]byte, error) {
	n := int(binary.LittleEndian.Uint16(db[2:]))
	list, err := h.cell(binary.LittleEndian.Uint32(db[4:]))
	if err != nil {
		return nil, err
	}
	if n*4 > len(list) {
		return nil, goerr.Wrap(ErrFormat, "big data segment list out of range")
	}

	out := make([]byte, 0, size)
	for i := 0; i < n && len(out) < size; i++ {
		seg, err := h.cell(binary.LittleEndian.Uint32(list[i*4:]))
		if err != nil {
			return nil, err
		}
		want := min(size-len(out), bigDataSegment, len(seg))
		out = append(out, seg[:want]...)
	}
	if len(out) != size {
		return nil, goerr.Wrap(ErrFormat, "big data truncated", goerr.V("want", size), goerr.V("got", len(out)))
	}
	return out, nil
}
