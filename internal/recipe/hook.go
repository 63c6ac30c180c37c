package recipe

import "github.com/dopamine-pm/dopamine/internal/profile"

// SourceKind tags a recipe's "source" hook value: a string means
// in-tree relative source directory, a callable means out-of-tree
// (must be invoked to fetch), and absent defaults to ".".
type SourceKind int

const (
	// SourceDefault is the absent case: source defaults to ".".
	SourceDefault SourceKind = iota
	// SourceLiteral is an in-tree relative source directory.
	SourceLiteral
	// SourceCallable must be invoked to fetch the out-of-tree source.
	SourceCallable
)

// SourceValue is the tagged literal-or-callable value a recipe's
// "source" symbol carries. A native reimplementation of the embedded
// interpreter's dynamic typing shares this one type between static and
// dynamic recipes.
type SourceValue struct {
	Kind    SourceKind
	Literal string
	Fetch   func() (string, error)
}

// Dir resolves the source value to a directory path without invoking
// any callable: SourceDefault yields ".", SourceLiteral yields its
// literal path, SourceCallable has no directory until Fetch runs.
func (s SourceValue) Dir() (string, bool) {
	switch s.Kind {
	case SourceDefault:
		return ".", true
	case SourceLiteral:
		return s.Literal, true
	default:
		return "", false
	}
}

// RevisionKind tags a recipe's "revision" hook: a callable that the
// facade invokes, or absent (fall back to content hashing).
type RevisionKind int

const (
	RevisionAbsent RevisionKind = iota
	RevisionCallable
)

// RevisionValue is the tagged value of a recipe's optional "revision"
// hook.
type RevisionValue struct {
	Kind RevisionKind
	Func func() (string, error)
}

// DependenciesKind tags whether a recipe's "dependencies" table is
// static or computed by a callable taking the active profile.
type DependenciesKind int

const (
	DependenciesStatic DependenciesKind = iota
	DependenciesCallable
)

// DependenciesValue is the tagged static-or-callable value of a
// recipe's "dependencies" declaration.
type DependenciesValue struct {
	Kind   DependenciesKind
	Static []Dependency
	Func   func(*profile.Profile) ([]Dependency, error)
}
