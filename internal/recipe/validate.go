package recipe

import (
	"fmt"
	"path/filepath"
)

// Validate checks a Recipe's basic well-formedness: it must carry a
// non-empty name, and if its source is an in-tree literal path, that
// path must be relative.
func (r *Recipe) Validate() error {
	if r.meta.Name == "" {
		return fmt.Errorf("recipe: missing name")
	}
	if r.meta.Source.Kind == SourceLiteral && filepath.IsAbs(r.meta.Source.Literal) {
		return fmt.Errorf("recipe %s: in-tree source %q must be a relative path", r.meta.Name, r.meta.Source.Literal)
	}
	return nil
}
