package seqio

import (
	"regexp"
	"strings"
)

// endSuffix matches a trailing end marker: a separator followed by 1 or 2.
var endSuffix = regexp.MustCompile(`^(.*)[\s/._]([12])$`)

// Normalize derives the canonical (name, end marker) pair from a raw record
// header under the given read role.
//
// A recognized end suffix (separator plus '1' or '2', as in "read_7/1" or
// "read_7 2") is stripped from the end of the header to obtain the bare
// name. Paired roles clamp the end marker regardless of what the header
// carries; the other roles keep the parsed marker, or none. Normalize never
// fails: at worst the entire trimmed header becomes the name.
func Normalize(header string, role Role) (string, End) {
	name := strings.TrimSpace(header)
	end := EndNone
	if m := endSuffix.FindStringSubmatch(name); m != nil {
		name = m[1]
		end = End(m[2])
	}
	if clamp := role.Clamp(); clamp != EndNone {
		end = clamp
	}
	return name, end
}
