package profile

import (
	"fmt"
	"os/exec"
	"regexp"
)

// Compiler describes one toolchain component detected (or declared) for
// a single language.
type Compiler struct {
	Lang    Lang
	Name    string
	Version string
	Path    string
}

// prober runs a single compiler-detection probe: execute Cmd with
// "--version" and extract a version using VersionRE's first capture
// group.
type prober struct {
	Name      string
	Cmd       string
	VersionRE *regexp.Regexp
}

func (p prober) probe() (Compiler, bool) {
	path, err := exec.LookPath(p.Cmd)
	if err != nil {
		return Compiler{}, false
	}

	out, err := exec.Command(path, "--version").Output()
	if err != nil {
		return Compiler{}, false
	}

	m := p.VersionRE.FindSubmatch(out)
	if m == nil || len(m) < 2 {
		return Compiler{}, false
	}

	return Compiler{Name: p.Name, Version: string(m[1]), Path: path}, true
}

var (
	gccRE   = regexp.MustCompile(`(?m)^gcc.* ((?:[0-9]+\.)+[0-9]+)`)
	clangRE = regexp.MustCompile(`(?m)clang version ((?:[0-9]+\.)+[0-9]+)`)
	dmdRE   = regexp.MustCompile(`DMD.* v((?:[0-9]+\.)+[0-9]+)`)
	ldcRE   = regexp.MustCompile(`LDC - the LLVM D compiler \(((?:[0-9]+\.)+[0-9]+)`)
)

// proberOrder lists, per language, the ordered list of probers to try.
// On Linux, C prefers GCC then Clang; D always tries LDC then DMD, the
// only two D toolchains this package knows how to probe for.
func proberOrder(lang Lang, host Host) []prober {
	switch lang {
	case LangC, LangCpp:
		gcc := prober{Name: "gcc", Cmd: cCompilerCmd(lang, "gcc"), VersionRE: gccRE}
		clang := prober{Name: "clang", Cmd: cCompilerCmd(lang, "clang"), VersionRE: clangRE}
		if host.OS == OSLinux {
			return []prober{gcc, clang}
		}
		// macOS and other non-Linux hosts default to the reverse order
		// per §4.2; Windows adds an MSVC probe ahead of both, but MSVC
		// detection talks to vswhere.exe rather than --version and is
		// out of scope for this port.
		return []prober{clang, gcc}
	case LangD:
		return []prober{
			{Name: "ldc2", Cmd: "ldc2", VersionRE: ldcRE},
			{Name: "dmd", Cmd: "dmd", VersionRE: dmdRE},
		}
	default:
		return nil
	}
}

func cCompilerCmd(lang Lang, family string) string {
	if lang == LangCpp {
		if family == "gcc" {
			return "g++"
		}
		return "clang++"
	}
	return family
}

// DetectCompiler runs the ordered probers for lang on host and returns
// the first successful detection. A missing compiler is fatal per
// §4.2.
func DetectCompiler(lang Lang, host Host) (Compiler, error) {
	for _, p := range proberOrder(lang, host) {
		if c, ok := p.probe(); ok {
			c.Lang = lang
			return c, nil
		}
	}
	return Compiler{}, fmt.Errorf("profile: no %s compiler found on PATH", lang)
}

// Compilers implements sort.Interface ordering by Lang.
type Compilers []Compiler

func (c Compilers) Len() int      { return len(c) }
func (c Compilers) Swap(i, j int) { c[i], c[j] = c[j], c[i] }
func (c Compilers) Less(i, j int) bool {
	return langOrder[c[i].Lang] < langOrder[c[j].Lang]
}
