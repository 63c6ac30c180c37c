package recipe

import "github.com/dopamine-pm/dopamine/internal/profile"

// StaticHandle is a Handle backed entirely by literal values: no
// callable hooks, used for recipes that declare a fixed in-tree source,
// a static dependency table, and build/pack/patch_install functions
// supplied directly in Go. It is the degenerate case of the tagged
// literal-or-callable hook surface, and is what the test suite and any
// from-disk recipe fixture construct; a real embedded interpreter
// would instead produce a Handle whose hooks run interpreted script
// code.
type StaticHandle struct {
	meta      Metadata
	BuildFunc func(Dirs, *profile.Profile, map[string]DepInfo) (bool, error)
	PackFunc  func(Dirs, *profile.Profile, string) error
	PatchFunc func(*profile.Profile, string) error
	CloseFunc func() error
}

// NewStaticHandle returns a Handle reporting meta as its metadata.
func NewStaticHandle(meta Metadata) *StaticHandle {
	return &StaticHandle{meta: meta}
}

func (h *StaticHandle) Metadata() Metadata { return h.meta }

func (h *StaticHandle) Build(dirs Dirs, p *profile.Profile, deps map[string]DepInfo) (bool, error) {
	if h.BuildFunc == nil {
		return false, nil
	}
	return h.BuildFunc(dirs, p, deps)
}

func (h *StaticHandle) Pack(dirs Dirs, p *profile.Profile, dest string) error {
	if h.PackFunc == nil {
		return nil
	}
	return h.PackFunc(dirs, p, dest)
}

func (h *StaticHandle) PatchInstall(p *profile.Profile, installDir string) error {
	if h.PatchFunc == nil {
		return nil
	}
	return h.PatchFunc(p, installDir)
}

func (h *StaticHandle) Close() error {
	if h.CloseFunc == nil {
		return nil
	}
	return h.CloseFunc()
}

// Interpreter turns recipe bytes into a Handle. It stands in for the
// embedded scripting engine that would normally run recipe source,
// modeled here only as the seam the cache-repo layer calls through to
// materialize a Recipe facade from disk or network bytes.
type Interpreter interface {
	Parse(content []byte, sourceFile string) (Handle, error)
}
