package hive

import (
	"encoding/binary"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// Key is a key node.
type Key struct {
	hive *Hive
	nk   []byte
}

// Name returns the key name.
func (k *Key) Name() string {
	n := int(binary.LittleEndian.Uint16(k.nk[0x48:]))
	flags := binary.LittleEndian.Uint16(k.nk[0x02:])
	return decodeName(k.nk[0x4C:0x4C+n], flags&keyCompName != 0)
}

// Subkeys returns the key's children in on-disk order.
func (k *Key) Subkeys() ([]*Key, error) {
	count := binary.LittleEndian.Uint32(k.nk[0x14:])
	if count == 0 {
		return nil, nil
	}
	offsets, err := k.hive.subkeyOffsets(binary.LittleEndian.Uint32(k.nk[0x1C:]), 0)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read subkeys", goerr.V("key", k.Name()))
	}

	keys := make([]*Key, 0, len(offsets))
	for _, off := range offsets {
		child, err := k.hive.key(off)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read subkey", goerr.V("key", k.Name()))
		}
		keys = append(keys, child)
	}
	return keys, nil
}

// Subkey returns the child named name, compared case-insensitively.
func (k *Key) Subkey(name string) (*Key, error) {
	children, err := k.Subkeys()
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		if strings.EqualFold(child.Name(), name) {
			return child, nil
		}
	}
	return nil, goerr.Wrap(ErrKeyNotFound, "no such subkey", goerr.V("parent", k.Name()), goerr.V("name", name))
}

// Values returns the key's values in on-disk order.
func (k *Key) Values() ([]*Value, error) {
	count := int(binary.LittleEndian.Uint32(k.nk[0x24:]))
	listOff := binary.LittleEndian.Uint32(k.nk[0x28:])
	if count == 0 || listOff == 0xFFFFFFFF {
		return nil, nil
	}

	list, err := k.hive.cell(listOff)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read value list", goerr.V("key", k.Name()))
	}
	if count*4 > len(list) {
		return nil, goerr.Wrap(ErrFormat, "value list out of range", goerr.V("key", k.Name()))
	}

	values := make([]*Value, 0, count)
	for i := 0; i < count; i++ {
		v, err := k.hive.value(binary.LittleEndian.Uint32(list[i*4:]))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read value", goerr.V("key", k.Name()), goerr.V("index", i))
		}
		values = append(values, v)
	}
	return values, nil
}
