//go:build !windows

package source

import "context"

// LiveSource reads UserAssist values from HKEY_CURRENT_USER. It is only
// functional on Windows; elsewhere Walk returns ErrLiveUnsupported.
type LiveSource struct{}

// NewLiveSource returns a Source over the current user's registry.
func NewLiveSource() *LiveSource {
	return &LiveSource{}
}

func (s *LiveSource) String() string {
	return `live:HKCU\` + UserAssistPath
}

// Walk implements Source.
func (s *LiveSource) Walk(context.Context, func(RawEntry) error) error {
	return ErrLiveUnsupported
}
