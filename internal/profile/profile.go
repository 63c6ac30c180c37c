// Package profile models the build profile: the tuple of host,
// build-type, and toolchain set that parametrizes a dependency build
// and partitions the cache and build directories.
package profile

import (
	"fmt"
	"sort"
	"strings"
)

// BuildType is the release/debug toggle carried by a profile.
type BuildType string

const (
	BuildTypeRelease BuildType = "release"
	BuildTypeDebug   BuildType = "debug"
)

// Profile is the tuple (basename, host, build-type, sorted compilers).
// No language may appear twice among Compilers.
type Profile struct {
	Basename  string
	Host      Host
	BuildType BuildType
	Compilers []Compiler
}

// New builds a Profile, sorting compilers by language and rejecting
// duplicate languages.
func New(basename string, host Host, buildType BuildType, compilers []Compiler) (*Profile, error) {
	sorted := make(Compilers, len(compilers))
	copy(sorted, compilers)
	sort.Sort(sorted)

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Lang == sorted[i-1].Lang {
			return nil, fmt.Errorf("profile: language %q appears more than once", sorted[i].Lang)
		}
	}

	return &Profile{
		Basename:  basename,
		Host:      host,
		BuildType: buildType,
		Compilers: sorted,
	}, nil
}

// Langs returns the profile's languages in canonical order.
func (p *Profile) Langs() []Lang {
	langs := make([]Lang, len(p.Compilers))
	for i, c := range p.Compilers {
		langs[i] = c.Lang
	}
	return langs
}

// Name returns basename + "-" + langs.join("-"), the derived profile
// name.
func (p *Profile) Name() string {
	langs := p.Langs()
	parts := make([]string, len(langs))
	for i, l := range langs {
		parts[i] = string(l)
	}
	if len(parts) == 0 {
		return p.Basename
	}
	return p.Basename + "-" + strings.Join(parts, "-")
}

// HasAllLangs reports whether every language in langs is present in the
// profile.
func (p *Profile) HasAllLangs(langs []Lang) bool {
	have := make(map[Lang]bool, len(p.Compilers))
	for _, c := range p.Compilers {
		have[c.Lang] = true
	}
	for _, l := range langs {
		if !have[l] {
			return false
		}
	}
	return true
}

// Compiler returns the compiler for lang, if present.
func (p *Profile) Compiler(lang Lang) (Compiler, bool) {
	for _, c := range p.Compilers {
		if c.Lang == lang {
			return c, true
		}
	}
	return Compiler{}, false
}

// Subset returns a new Profile keeping only the compilers for langs.
// All named languages must already be present; otherwise an error is
// returned, which the build orchestrator treats as a fatal abort of
// the dependency walk.
func (p *Profile) Subset(langs []Lang) (*Profile, error) {
	if !p.HasAllLangs(langs) {
		return nil, fmt.Errorf("profile: %q lacks a required language among %v", p.Name(), langs)
	}

	kept := make([]Compiler, 0, len(langs))
	for _, l := range langs {
		c, _ := p.Compiler(l)
		kept = append(kept, c)
	}

	return New(p.Basename, p.Host, p.BuildType, kept)
}
