//go:build windows

package source

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sys/windows/registry"
)

// LiveSource reads UserAssist values from HKEY_CURRENT_USER.
type LiveSource struct{}

// NewLiveSource returns a Source over the current user's registry.
func NewLiveSource() *LiveSource {
	return &LiveSource{}
}

func (s *LiveSource) String() string {
	return `live:HKCU\` + UserAssistPath
}

// Walk implements Source.
func (s *LiveSource) Walk(ctx context.Context, fn func(RawEntry) error) error {
	ua, err := registry.OpenKey(registry.CURRENT_USER, UserAssistPath, registry.ENUMERATE_SUB_KEYS)
	if errors.Is(err, registry.ErrNotExist) {
		return goerr.Wrap(ErrNotFound, "UserAssist key missing from HKCU", goerr.V("key", UserAssistPath))
	}
	if err != nil {
		return goerr.Wrap(err, "failed to open UserAssist key")
	}
	defer ua.Close()

	guids, err := ua.ReadSubKeyNames(-1)
	if err != nil {
		return goerr.Wrap(err, "failed to enumerate UserAssist subkeys")
	}

	for _, guid := range guids {
		keyPath := UserAssistPath + `\` + guid + `\` + CountKey
		if err := walkCount(ctx, keyPath, fn); err != nil {
			return err
		}
	}
	return nil
}

func walkCount(ctx context.Context, keyPath string, fn func(RawEntry) error) error {
	count, err := registry.OpenKey(registry.CURRENT_USER, keyPath, registry.QUERY_VALUE)
	if errors.Is(err, registry.ErrNotExist) {
		return nil
	}
	if err != nil {
		return goerr.Wrap(err, "failed to open Count key", goerr.V("key", keyPath))
	}
	defer count.Close()

	names, err := count.ReadValueNames(-1)
	if err != nil {
		return goerr.Wrap(err, "failed to enumerate values", goerr.V("key", keyPath))
	}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, _, err := count.GetBinaryValue(name)
		if err != nil {
			return goerr.Wrap(err, "failed to read value", goerr.V("key", keyPath), goerr.V("name", name))
		}
		if err := fn(NewEntry(keyPath, name, data)); err != nil {
			return err
		}
	}
	return nil
}
