package recipe

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Version is a concrete package version.
//
// Versions are totally ordered under semver comparison. Parsing is
// lenient: partial versions like "1.9" are accepted (Conan recipes use
// them routinely) and compare as "1.9.0". The original spelling is
// preserved for rendering, since Conan echoes back exactly what the
// recipe declared.
type Version struct {
	raw string
	v   *semver.Version
}

// ParseVersion parses a version string.
func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Version{}, fmt.Errorf("empty version")
	}
	v, err := semver.NewVersion(s)
	if err != nil {
		return Version{}, fmt.Errorf("invalid version %q: %w", s, err)
	}
	return Version{raw: s, v: v}, nil
}

// MustVersion parses a version string and panics on error.
// Intended for scenario literals, mirroring semver.MustParse.
func MustVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the version as originally spelled.
func (v Version) String() string { return v.raw }

// IsZero reports whether v is the zero Version (never parsed).
func (v Version) IsZero() bool { return v.v == nil }

// Equal reports semantic equality: "1.9" equals "1.9.0".
func (v Version) Equal(o Version) bool {
	if v.v == nil || o.v == nil {
		return v.v == o.v
	}
	return v.v.Equal(o.v)
}

// Compare returns -1, 0, or 1 ordering v against o.
func (v Version) Compare(o Version) int { return v.v.Compare(o.v) }

// Less reports whether v orders strictly before o.
func (v Version) Less(o Version) bool { return v.Compare(o) < 0 }

// Range is a version-range predicate in Conan syntax.
//
// A bracketed expression like "[>=1.5 <2.0]" selects from a range;
// space-separated terms are conjunctive and "||" separates alternatives.
// A bare version like "1.9" pins exactly. The predicate is compiled to a
// semver constraint so the harness can check satisfaction locally; the
// resolver under test never sees the compiled form, only the raw
// expression rendered into the recipe.
type Range struct {
	raw string
	c   *semver.Constraints
}

// ParseRange parses a Conan version-range expression.
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Range{}, fmt.Errorf("empty version range")
	}
	expr := s
	if strings.HasPrefix(expr, "[") {
		if !strings.HasSuffix(expr, "]") {
			return Range{}, fmt.Errorf("unterminated version range %q", s)
		}
		expr = strings.TrimSpace(expr[1 : len(expr)-1])
		if expr == "" {
			return Range{}, fmt.Errorf("empty version range %q", s)
		}
	}
	c, err := semver.NewConstraint(expr)
	if err != nil {
		return Range{}, fmt.Errorf("invalid version range %q: %w", s, err)
	}
	return Range{raw: s, c: c}, nil
}

// MustRange parses a range expression and panics on error.
func MustRange(s string) Range {
	r, err := ParseRange(s)
	if err != nil {
		panic(err)
	}
	return r
}

// String returns the range as originally spelled, brackets included.
func (r Range) String() string { return r.raw }

// IsZero reports whether r is the zero Range (never parsed).
func (r Range) IsZero() bool { return r.c == nil }

// Matches reports whether the concrete version satisfies the range.
// The answer is deterministic for any version.
func (r Range) Matches(v Version) bool {
	if r.c == nil || v.v == nil {
		return false
	}
	return r.c.Check(v.v)
}
