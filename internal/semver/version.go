// Package semver parses, orders, and matches semantic versions per
// SemVer 2.0.0, and exposes a small range-constraint grammar (the
// "version spec") used throughout the dependency resolver.
//
// Version parsing, ordering, and equality are delegated to
// Masterminds/semver/v3, which already implements SemVer 2.0's
// precedence rules (numeric identifiers rank below alphanumeric ones,
// shorter pre-release identifier lists rank lower on a prefix match,
// and build metadata is excluded from ordering and equality). This
// package adds the strict validation and exact round-trip behavior
// the resolver depends on.
package semver

import (
	"fmt"
	"sort"

	mmsemver "github.com/Masterminds/semver/v3"
)

// Version is an immutable semantic version.
type Version struct {
	v   *mmsemver.Version
	src string
}

// Parse parses s as a SemVer 2.0.0 version string. It rejects missing
// components, negative numbers, empty pre-release or build identifiers,
// empty dotted sub-tokens, and characters outside [A-Za-z0-9-].
func Parse(s string) (Version, error) {
	v, err := mmsemver.StrictNewVersion(s)
	if err != nil {
		return Version{}, fmt.Errorf("semver: invalid version %q: %w", s, err)
	}
	return Version{v: v, src: s}, nil
}

// MustParse parses s and panics on error. Intended for tests and
// compile-time constants.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// IsValid reports whether s parses as a valid SemVer 2.0.0 version.
func IsValid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// String returns the version in its original textual form, satisfying
// the round-trip law String(Parse(s)) == s for any s with IsValid(s).
func (v Version) String() string {
	if v.v == nil {
		return ""
	}
	return v.src
}

// Major, Minor, and Patch return the version's numeric components.
func (v Version) Major() uint64 { return v.v.Major() }
func (v Version) Minor() uint64 { return v.v.Minor() }
func (v Version) Patch() uint64 { return v.v.Patch() }

// Prerelease returns the dot-separated pre-release identifiers, or ""
// if the version has none.
func (v Version) Prerelease() string { return v.v.Prerelease() }

// Metadata returns the build-metadata string, or "" if the version has
// none. Metadata is excluded from Compare, Equal, and Hash.
func (v Version) Metadata() string { return v.v.Metadata() }

// Compare returns -1, 0, or +1 as v is less than, equal to, or greater
// than other, per SemVer 2.0.0 §11 precedence. Build metadata is
// ignored.
func (v Version) Compare(other Version) int {
	return v.v.Compare(other.v)
}

// LessThan reports whether v orders before other.
func (v Version) LessThan(other Version) bool { return v.Compare(other) < 0 }

// Equal reports whether v and other are the same version, ignoring
// build metadata.
func (v Version) Equal(other Version) bool { return v.Compare(other) == 0 }

// HashKey returns a string suitable for use as a map key or hash
// input that is stable under Equal: two equal versions (build metadata
// aside) produce the same key.
func (v Version) HashKey() string {
	if v.Prerelease() == "" {
		return fmt.Sprintf("%d.%d.%d", v.Major(), v.Minor(), v.Patch())
	}
	return fmt.Sprintf("%d.%d.%d-%s", v.Major(), v.Minor(), v.Patch(), v.Prerelease())
}

// Versions implements sort.Interface in ascending precedence order.
type Versions []Version

func (vs Versions) Len() int           { return len(vs) }
func (vs Versions) Less(i, j int) bool { return vs[i].LessThan(vs[j]) }
func (vs Versions) Swap(i, j int)      { vs[i], vs[j] = vs[j], vs[i] }

// SortUnique returns vs sorted ascending with Equal duplicates removed,
// keeping the first occurrence of each distinct version.
func SortUnique(vs []Version) []Version {
	cp := make(Versions, len(vs))
	copy(cp, vs)
	sort.Stable(cp)

	out := cp[:0:0]
	for i, v := range cp {
		if i == 0 || !v.Equal(cp[i-1]) {
			out = append(out, v)
		}
	}
	return out
}
