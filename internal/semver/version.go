// Package semver implements the minimal semantic-version ordering needed to
// compare package manifest constraints: major.minor.patch with an optional
// pre-release tag that sorts below the corresponding release.
package semver

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Version is a parsed semantic version.
type Version struct {
	Major uint64
	Minor uint64
	Patch uint64
	Pre   string // empty for releases
}

// ErrBadVersion is returned when a string cannot be parsed as a version.
var ErrBadVersion = errors.New("malformed version")

// Parse parses "major.minor.patch" with an optional "-pre" suffix.
// Missing minor/patch components default to zero ("1.2" == "1.2.0").
// Build metadata after "+" is accepted and ignored for ordering.
func Parse(s string) (Version, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Version{}, fmt.Errorf("%w: empty string", ErrBadVersion)
	}
	raw = strings.TrimPrefix(raw, "v")

	if plus := strings.IndexByte(raw, '+'); plus >= 0 {
		raw = raw[:plus]
	}

	var pre string
	if dash := strings.IndexByte(raw, '-'); dash >= 0 {
		pre = raw[dash+1:]
		raw = raw[:dash]
		if pre == "" {
			return Version{}, fmt.Errorf("%w: empty pre-release in %q", ErrBadVersion, s)
		}
	}

	parts := strings.Split(raw, ".")
	if len(parts) == 0 || len(parts) > 3 {
		return Version{}, fmt.Errorf("%w: %q", ErrBadVersion, s)
	}

	nums := [3]uint64{}
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return Version{}, fmt.Errorf("%w: %q", ErrBadVersion, s)
		}
		nums[i] = n
	}

	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2], Pre: pre}, nil
}

func (v Version) String() string {
	base := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Pre != "" {
		return base + "-" + v.Pre
	}
	return base
}

// IsPreRelease reports whether the version carries a pre-release tag.
func (v Version) IsPreRelease() bool {
	return v.Pre != ""
}

// Compare returns -1, 0 or 1 depending on whether v is less than, equal to
// or greater than other. A pre-release sorts below its release.
func (v Version) Compare(other Version) int {
	if c := compareUint(v.Major, other.Major); c != 0 {
		return c
	}
	if c := compareUint(v.Minor, other.Minor); c != 0 {
		return c
	}
	if c := compareUint(v.Patch, other.Patch); c != 0 {
		return c
	}
	return comparePre(v.Pre, other.Pre)
}

// Less reports whether v sorts strictly before other.
func (v Version) Less(other Version) bool {
	return v.Compare(other) < 0
}

func compareUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// comparePre orders pre-release tags: no tag sorts highest; otherwise tags
// are compared identifier by identifier, numeric identifiers numerically and
// below alphanumeric ones, with the shorter tag first on a shared prefix.
func comparePre(a, b string) int {
	if a == b {
		return 0
	}
	if a == "" {
		return 1
	}
	if b == "" {
		return -1
	}

	aParts := strings.Split(a, ".")
	bParts := strings.Split(b, ".")
	for i := 0; i < len(aParts) && i < len(bParts); i++ {
		if c := comparePreIdent(aParts[i], bParts[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(aParts) < len(bParts):
		return -1
	case len(aParts) > len(bParts):
		return 1
	default:
		return 0
	}
}

func comparePreIdent(a, b string) int {
	aNum, aErr := strconv.ParseUint(a, 10, 64)
	bNum, bErr := strconv.ParseUint(b, 10, 64)
	switch {
	case aErr == nil && bErr == nil:
		return compareUint(aNum, bNum)
	case aErr == nil:
		return -1 // numeric identifiers sort below alphanumeric
	case bErr == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}
