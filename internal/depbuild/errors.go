package depbuild

import "fmt"

// BuildError reports a fatal failure while bringing one resolved
// package version to an installed state, aborting the walk.
type BuildError struct {
	Package string
	Version string
	Reason  string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("depbuild: %s@%s: %s", e.Package, e.Version, e.Reason)
}
