package semver

import (
	"fmt"
	"strings"
)

// op is a single comparison operator recognized in a version spec.
type op int

const (
	opEQ op = iota
	opLT
	opLE
	opGE
	opGT
)

var opText = map[op]string{
	opEQ: "=",
	opLT: "<",
	opLE: "<=",
	opGE: ">=",
	opGT: ">",
}

// comparator is one "<op><version>" term of a Spec.
type comparator struct {
	op op
	v  Version
}

func (c comparator) matches(v Version) bool {
	cmp := v.Compare(c.v)
	switch c.op {
	case opEQ:
		return cmp == 0
	case opLT:
		return cmp < 0
	case opLE:
		return cmp <= 0
	case opGE:
		return cmp >= 0
	case opGT:
		return cmp > 0
	default:
		return false
	}
}

func (c comparator) String() string {
	return opText[c.op] + c.v.String()
}

// Spec is a version-spec: a conjunction of comparators that a version
// must satisfy to match. An empty Spec matches every version.
type Spec struct {
	comparators []comparator
	src         string
}

// ParseSpec parses a version spec. Recognized forms are single
// comparisons ("<1.0.0", "<=1.0.0", "=1.0.0", ">=1.0.0", ">1.0.0") and
// whitespace-separated conjunctions of them ("`>=1.0.0 <2.0.0`"). A bare
// version with no operator is treated as exact equality.
func ParseSpec(s string) (Spec, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Spec{}, fmt.Errorf("semver: empty version spec")
	}

	fields := strings.Fields(trimmed)
	comparators := make([]comparator, 0, len(fields))
	for _, field := range fields {
		c, err := parseComparator(field)
		if err != nil {
			return Spec{}, fmt.Errorf("semver: invalid version spec %q: %w", s, err)
		}
		comparators = append(comparators, c)
	}

	return Spec{comparators: comparators, src: trimmed}, nil
}

// MustParseSpec parses s and panics on error.
func MustParseSpec(s string) Spec {
	sp, err := ParseSpec(s)
	if err != nil {
		panic(err)
	}
	return sp
}

func parseComparator(field string) (comparator, error) {
	for _, candidate := range []struct {
		prefix string
		op     op
	}{
		{">=", opGE},
		{"<=", opLE},
		{"=", opEQ},
		{"<", opLT},
		{">", opGT},
	} {
		if rest, ok := strings.CutPrefix(field, candidate.prefix); ok {
			v, err := Parse(rest)
			if err != nil {
				return comparator{}, err
			}
			return comparator{op: candidate.op, v: v}, nil
		}
	}

	v, err := Parse(field)
	if err != nil {
		return comparator{}, fmt.Errorf("%q is neither a comparator nor a bare version", field)
	}
	return comparator{op: opEQ, v: v}, nil
}

// Matches reports whether v satisfies every comparator in the spec.
func (s Spec) Matches(v Version) bool {
	for _, c := range s.comparators {
		if !c.matches(v) {
			return false
		}
	}
	return true
}

// String returns the spec's textual form, as parsed.
func (s Spec) String() string { return s.src }

// IsZero reports whether s is the zero value (never produced by
// ParseSpec, used to detect an unset field).
func (s Spec) IsZero() bool { return s.src == "" && len(s.comparators) == 0 }
