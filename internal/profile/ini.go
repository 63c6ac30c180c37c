package profile

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

// SaveINI serializes p to its canonical INI format: [main], [host],
// one [compiler.<lang>] per compiler, and [digest].
func (p *Profile) SaveINI() ([]byte, error) {
	f := ini.Empty()

	main, err := f.NewSection("main")
	if err != nil {
		return nil, err
	}
	main.Key("basename").SetValue(p.Basename)
	main.Key("buildtype").SetValue(string(p.BuildType))

	host, err := f.NewSection("host")
	if err != nil {
		return nil, err
	}
	host.Key("arch").SetValue(string(p.Host.Arch))
	host.Key("os").SetValue(string(p.Host.OS))

	for _, c := range p.Compilers {
		sec, err := f.NewSection("compiler." + string(c.Lang))
		if err != nil {
			return nil, err
		}
		sec.Key("name").SetValue(c.Name)
		sec.Key("ver").SetValue(c.Version)
		sec.Key("path").SetValue(escapeWindowsPath(c.Path))
	}

	digest, err := f.NewSection("digest")
	if err != nil {
		return nil, err
	}
	digest.Key("hash").SetValue(p.Compute().String())

	var buf strings.Builder
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return []byte(buf.String()), nil
}

// LoadINI parses a profile INI document. If the file carries a
// [digest] hash, it must match the recomputed digest or loading fails.
func LoadINI(data []byte) (*Profile, error) {
	f, err := ini.Load(data)
	if err != nil {
		return nil, fmt.Errorf("profile: invalid ini: %w", err)
	}

	main, err := f.GetSection("main")
	if err != nil {
		return nil, fmt.Errorf("profile: missing [main] section")
	}
	host, err := f.GetSection("host")
	if err != nil {
		return nil, fmt.Errorf("profile: missing [host] section")
	}

	var compilers []Compiler
	for _, sec := range f.Sections() {
		lang, ok := strings.CutPrefix(sec.Name(), "compiler.")
		if !ok {
			continue
		}
		l, err := ParseLang(lang)
		if err != nil {
			return nil, fmt.Errorf("profile: %w", err)
		}
		compilers = append(compilers, Compiler{
			Lang:    l,
			Name:    sec.Key("name").String(),
			Version: sec.Key("ver").String(),
			Path:    unescapeWindowsPath(sec.Key("path").String()),
		})
	}

	p, err := New(
		main.Key("basename").String(),
		Host{Arch: Arch(host.Key("arch").String()), OS: OS(host.Key("os").String())},
		BuildType(main.Key("buildtype").String()),
		compilers,
	)
	if err != nil {
		return nil, err
	}

	if digestSec, err := f.GetSection("digest"); err == nil {
		stored := digestSec.Key("hash").String()
		if stored != "" && stored != p.Compute().String() {
			return nil, fmt.Errorf("profile: stored digest %s does not match recomputed digest %s", stored, p.Compute())
		}
	}

	return p, nil
}

// escapeWindowsPath doubles backslashes so Windows compiler paths
// round-trip through INI's backslash-escaping rules.
func escapeWindowsPath(path string) string {
	return strings.ReplaceAll(path, `\`, `\\`)
}

func unescapeWindowsPath(path string) string {
	return strings.ReplaceAll(path, `\\`, `\`)
}
