// Package hivetest assembles small in-memory registry hives for tests.
package hivetest

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf16"
)

// Key describes a key to be written.
type Key struct {
	Name    string
	Subkeys []Key
	Values  []Value
}

// Value describes a value to be written. Names are stored Latin-1
// compressed unless UTF16 is set.
type Value struct {
	Name  string
	UTF16 bool
	Type  uint32
	Data  []byte
}

// UserAssistGUID is the "executable files" UserAssist subkey on Windows 7+.
const UserAssistGUID = "{CEBFF5CD-ACE2-4F4F-9178-9926F41749EA}"

// UserAssist returns a root key holding
// Software\Microsoft\Windows\CurrentVersion\Explorer\UserAssist\<guid>\Count
// with values.
func UserAssist(guid string, values ...Value) Key {
	count := Key{Name: "Count", Values: values}
	ua := Key{Name: "UserAssist", Subkeys: []Key{{Name: guid, Subkeys: []Key{count}}}}
	return Nest(ua, "ROOT", "Software", "Microsoft", "Windows", "CurrentVersion", "Explorer")
}

// Nest wraps leaf in a chain of parent keys, outermost first.
func Nest(leaf Key, parents ...string) Key {
	k := leaf
	for i := len(parents) - 1; i >= 0; i-- {
		k = Key{Name: parents[i], Subkeys: []Key{k}}
	}
	return k
}

// Build returns a hive image whose root key is root.
func Build(root Key) []byte {
	b := &builder{}
	// hbin header; cell offsets are relative to its start.
	b.buf = append(b.buf, []byte("hbin")...)
	b.buf = append(b.buf, make([]byte, 28)...)

	rootOff := b.key(root)

	for len(b.buf)%0x1000 != 0 {
		b.buf = append(b.buf, 0)
	}
	binary.LittleEndian.PutUint32(b.buf[8:], uint32(len(b.buf)))

	base := make([]byte, 0x1000)
	copy(base, "regf")
	binary.LittleEndian.PutUint32(base[0x14:], 1)
	binary.LittleEndian.PutUint32(base[0x18:], 5)
	binary.LittleEndian.PutUint32(base[0x24:], rootOff)
	binary.LittleEndian.PutUint32(base[0x28:], uint32(len(b.buf)))
	return append(base, b.buf...)
}

// WriteFile builds a hive and writes it to dir/name, creating dir if needed,
// and returns the path.
func WriteFile(t testing.TB, dir, name string, root Key) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create hive directory: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, Build(root), 0644); err != nil {
		t.Fatalf("failed to write hive: %v", err)
	}
	return path
}

type builder struct {
	buf []byte
}

func (b *builder) cell(data []byte) uint32 {
	off := uint32(len(b.buf))
	size := 4 + len(data)
	if size%8 != 0 {
		size += 8 - size%8
	}
	hdr := make([]byte, 4)
	binary.LittleEndian.PutUint32(hdr, uint32(int32(-size)))
	b.buf = append(b.buf, hdr...)
	b.buf = append(b.buf, data...)
	b.buf = append(b.buf, make([]byte, size-4-len(data))...)
	return off
}

func (b *builder) key(k Key) uint32 {
	var children []uint32
	for _, sk := range k.Subkeys {
		children = append(children, b.key(sk))
	}

	listOff := uint32(0xFFFFFFFF)
	if len(children) > 0 {
		lf := make([]byte, 4+8*len(children))
		copy(lf, "lf")
		binary.LittleEndian.PutUint16(lf[2:], uint16(len(children)))
		for i, c := range children {
			binary.LittleEndian.PutUint32(lf[4+i*8:], c)
		}
		listOff = b.cell(lf)
	}

	valueListOff := uint32(0xFFFFFFFF)
	if len(k.Values) > 0 {
		list := make([]byte, 4*len(k.Values))
		for i, v := range k.Values {
			binary.LittleEndian.PutUint32(list[i*4:], b.value(v))
		}
		valueListOff = b.cell(list)
	}

	nk := make([]byte, 0x4C+len(k.Name))
	copy(nk, "nk")
	binary.LittleEndian.PutUint16(nk[0x02:], 0x0020)
	binary.LittleEndian.PutUint32(nk[0x14:], uint32(len(children)))
	binary.LittleEndian.PutUint32(nk[0x1C:], listOff)
	binary.LittleEndian.PutUint32(nk[0x24:], uint32(len(k.Values)))
	binary.LittleEndian.PutUint32(nk[0x28:], valueListOff)
	binary.LittleEndian.PutUint16(nk[0x48:], uint16(len(k.Name)))
	copy(nk[0x4C:], k.Name)
	return b.cell(nk)
}

func (b *builder) value(v Value) uint32 {
	name := []byte(v.Name)
	var flags uint16 = 0x0001
	if v.UTF16 {
		flags = 0
		name = nil
		for _, u := range utf16.Encode([]rune(v.Name)) {
			name = binary.LittleEndian.AppendUint16(name, u)
		}
	}
	typ := v.Type
	if typ == 0 {
		typ = 3
	}

	vk := make([]byte, 0x14+len(name))
	copy(vk, "vk")
	binary.LittleEndian.PutUint16(vk[0x02:], uint16(len(name)))
	binary.LittleEndian.PutUint32(vk[0x0C:], typ)
	binary.LittleEndian.PutUint16(vk[0x10:], flags)
	copy(vk[0x14:], name)

	switch {
	case len(v.Data) <= 4:
		binary.LittleEndian.PutUint32(vk[0x04:], uint32(len(v.Data))|0x80000000)
		copy(vk[0x08:0x0C], v.Data)
	default:
		binary.LittleEndian.PutUint32(vk[0x04:], uint32(len(v.Data)))
		binary.LittleEndian.PutUint32(vk[0x08:], b.cell(v.Data))
	}
	return b.cell(vk)
}
