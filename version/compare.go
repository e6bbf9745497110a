// Package version compares dot-separated application version strings.
//
// Parsing never fails: a segment that is empty, non-numeric, negative or too
// large for an int64 is read as 0, so "1.x.3" compares like "1.0.3" and an
// empty string compares like "0".
package version

import (
	"strconv"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

// Result is the outcome of comparing a current version against a minimum
type Result int

const (
	// Lower means the current version is below the minimum
	Lower Result = iota
	// EqualOrHigher means the current version satisfies the minimum
	EqualOrHigher
)

func (r Result) String() string {
	if r == Lower {
		return "LOWER"
	}
	return "EQUAL_OR_HIGHER"
}

// Version is an ordered sequence of non-negative numeric segments
type Version []int64

// Parse splits s on "." and reads every piece as a non-negative integer
func Parse(s string) Version {
	pieces := strings.Split(s, ".")
	v := make(Version, len(pieces))
	for i, piece := range pieces {
		n, err := strconv.ParseInt(strings.TrimSpace(piece), 10, 64)
		if err != nil || n < 0 {
			n = 0
		}
		v[i] = n
	}
	return v
}

// String renders the canonical dotted form, e.g. "1.0.3"
func (v Version) String() string {
	if len(v) == 0 {
		return "0"
	}
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.FormatInt(n, 10)
	}
	return strings.Join(parts, ".")
}

// canonical converts v into a go-version value. The canonical form is
// digits and dots only, so it always parses.
func (v Version) canonical() *goversion.Version {
	return goversion.Must(goversion.NewVersion(v.String()))
}

// Compare reports whether current is below min. Missing trailing segments
// count as zero, so "1.2" and "1.2.0" are equal.
func Compare(current, min string) Result {
	if Parse(current).canonical().LessThan(Parse(min).canonical()) {
		return Lower
	}
	return EqualOrHigher
}

// IsLower returns true if current < min
func IsLower(current, min string) bool {
	return Compare(current, min) == Lower
}
