package source

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"

	"github.com/blackwell-systems/uassist/internal/hive"
)

// HiveSource reads UserAssist values from an offline NTUSER.DAT file.
type HiveSource struct {
	Path string
}

// NewHiveSource returns a Source over the hive file at path.
func NewHiveSource(path string) *HiveSource {
	return &HiveSource{Path: path}
}

func (s *HiveSource) String() string {
	return "hive:" + s.Path
}

// Walk implements Source. The hive is re-read on every call.
func (s *HiveSource) Walk(ctx context.Context, fn func(RawEntry) error) error {
	h, err := hive.Open(s.Path)
	if err != nil {
		return err
	}

	ua, err := h.OpenKey(UserAssistPath)
	if errors.Is(err, hive.ErrKeyNotFound) {
		return goerr.Wrap(ErrNotFound, "UserAssist key missing from hive",
			goerr.V("path", s.Path), goerr.V("key", UserAssistPath))
	}
	if err != nil {
		return err
	}

	guids, err := ua.Subkeys()
	if err != nil {
		return err
	}
	for _, guid := range guids {
		count, err := guid.Subkey(CountKey)
		if errors.Is(err, hive.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return err
		}

		values, err := count.Values()
		if err != nil {
			return err
		}
		keyPath := UserAssistPath + `\` + guid.Name() + `\` + CountKey
		for _, v := range values {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(hiveEntry(keyPath, v)); err != nil {
				return err
			}
		}
	}
	return nil
}

func hiveEntry(key string, v *hive.Value) RawEntry {
	if v.Compressed {
		return NewEntry(key, v.Name(), v.Data)
	}
	return RawEntry{Name: v.RawName, Encoding: UTF16LE, Value: v.Data, Key: key}
}
