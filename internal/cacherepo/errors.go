package cacherepo

import "fmt"

// ErrNoSuchPackage is returned when a package name has no versions
// anywhere the repo knows to look: an empty result set is always a
// fatal error, never a silent empty list.
type ErrNoSuchPackage struct {
	Name string
}

func (e *ErrNoSuchPackage) Error() string {
	return fmt.Sprintf("cacherepo: no such package %q", e.Name)
}

// ErrNoSuchVersion is returned when a specific (name, version) pair is
// not known to the cache or registry.
type ErrNoSuchVersion struct {
	Name    string
	Version string
}

func (e *ErrNoSuchVersion) Error() string {
	return fmt.Sprintf("cacherepo: no such version %s@%s", e.Name, e.Version)
}

// ErrServerDown wraps a registry transport failure.
type ErrServerDown struct {
	Cause error
}

func (e *ErrServerDown) Error() string {
	return fmt.Sprintf("cacherepo: registry unreachable: %v", e.Cause)
}

func (e *ErrServerDown) Unwrap() error { return e.Cause }

// ErrIntegrity is returned when a registry response disagrees with the
// request it answered: the recipe's own name, version, or revision
// does not match what was asked for.
type ErrIntegrity struct {
	Name             string
	Version          string
	RequestRevision  string
	ResponseRevision string
}

func (e *ErrIntegrity) Error() string {
	return fmt.Sprintf("cacherepo: integrity error for %s@%s: requested revision %s, registry returned %s",
		e.Name, e.Version, e.RequestRevision, e.ResponseRevision)
}
