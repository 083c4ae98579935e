package userassist

import (
	"regexp"
	"strings"

	"github.com/blackwell-systems/uassist/internal/guidmap"
)

var guidToken = regexp.MustCompile(`\{[0-9A-Fa-f]{8}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{12}\}`)

// ROT13 rotates ASCII letters by 13 places and leaves everything else alone.
// It is its own inverse.
func ROT13(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return 'a' + (r-'a'+13)%26
		case r >= 'A' && r <= 'Z':
			return 'A' + (r-'A'+13)%26
		}
		return r
	}, s)
}

// SubstituteGUID replaces the first {GUID} token in name with {label}, where
// label comes from r. Names without a token are returned unchanged.
func SubstituteGUID(name string, r guidmap.Resolver) string {
	loc := guidToken.FindStringIndex(name)
	if loc == nil {
		return name
	}
	guid := name[loc[0]+1 : loc[1]-1]
	return name[:loc[0]] + "{" + r.Resolve(guid) + "}" + name[loc[1]:]
}

// DecodeName reverses the ROT13 obfuscation of a value name and resolves its
// folder GUID.
func DecodeName(raw string, r guidmap.Resolver) string {
	return SubstituteGUID(ROT13(raw), r)
}
