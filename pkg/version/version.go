// Package version provides Knut protocol version parsing and
// comparison.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Current is the protocol version implemented by this module.
const Current = "1.0"

// Version is a parsed "major.minor" protocol version.
type Version struct {
	Major uint16
	Minor uint16
}

// Parse parses a "major.minor" version string.
func Parse(s string) (Version, error) {
	major, minor, ok := strings.Cut(s, ".")
	if !ok {
		return Version{}, fmt.Errorf("invalid version %q: expected major.minor", s)
	}

	maj, err := strconv.ParseUint(major, 10, 16)
	if err != nil || major == "" {
		return Version{}, fmt.Errorf("invalid version %q: bad major component", s)
	}

	min, err := strconv.ParseUint(minor, 10, 16)
	if err != nil || minor == "" {
		return Version{}, fmt.Errorf("invalid version %q: bad minor component", s)
	}

	return Version{Major: uint16(maj), Minor: uint16(min)}, nil
}

// String returns the version as "major.minor".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Compatible reports whether the other version shares the major
// version. Minor revisions only add message types, so a client and a
// gateway interoperate whenever the majors match.
func (v Version) Compatible(other Version) bool {
	return v.Major == other.Major
}
