package lockfile

import (
	"strconv"
	"strings"

	"github.com/dopamine-pm/dopamine/internal/dag"
	"github.com/dopamine-pm/dopamine/internal/profile"
	"github.com/dopamine-pm/dopamine/internal/semver"
)

// Parse reconstructs a DAG and the recorded heuristics name from
// lock-file text. filename is used only to label errors; pass "" when
// there is no backing file. The first "package:" block encountered
// becomes the DAG's root, matching Serialize, which writes the root's
// block first.
func Parse(data []byte, filename string) (*dag.DAG, string, error) {
	lines := strings.Split(string(data), "\n")
	if len(lines) == 0 {
		return nil, "", &InvalidError{Filename: filename, Line: 1, Reason: "empty lock-file"}
	}
	if first := strings.TrimRight(lines[0], "\r"); first != header {
		reason := "missing lock-file header; expected " + header
		if strings.HasPrefix(first, "# dop lock-file v") {
			reason = "unsupported lock-file version: " + first
		}
		return nil, "", &InvalidError{Filename: filename, Line: 1, Reason: reason}
	}

	d := dag.New()
	heuristicName := ""

	var curPkg dag.PackageID
	var curVer dag.VersionID
	havePkg := false
	haveVer := false
	sawPkg := false

	for i := 1; i < len(lines); i++ {
		lineNo := i + 1
		raw := strings.TrimRight(lines[i], "\r")
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		indent := len(raw) - len(strings.TrimLeft(raw, " "))

		switch indent {
		case 0:
			key, rest, ok := cut(trimmed, ":")
			if !ok {
				return nil, "", &InvalidError{Filename: filename, Line: lineNo, Reason: "expected a \"key: value\" directive"}
			}
			switch key {
			case "heuristics":
				heuristicName = rest
			case "package":
				curPkg = d.EnsurePackage(rest)
				if !sawPkg {
					d.SetRoot(curPkg)
					sawPkg = true
				}
				havePkg = true
				haveVer = false
			default:
				return nil, "", &InvalidError{Filename: filename, Line: lineNo, Reason: "unknown top-level directive " + key}
			}

		case 2:
			if !havePkg {
				return nil, "", &InvalidError{Filename: filename, Line: lineNo, Reason: "version directive without a current package"}
			}
			key, rest, ok := cut(trimmed, ":")
			if !ok || key != "version" {
				return nil, "", &InvalidError{Filename: filename, Line: lineNo, Reason: "expected a \"version: ...\" directive"}
			}
			versionStr, attr := splitAttr(rest)
			v, err := semver.Parse(versionStr)
			if err != nil {
				return nil, "", &InvalidError{Filename: filename, Line: lineNo, Reason: "invalid version: " + err.Error()}
			}
			vid := d.EnsureVersion(curPkg, v)
			switch attr {
			case "resolved":
				d.MarkConsidered(vid)
				d.SetResolved(curPkg, vid)
			case "considered":
				d.MarkConsidered(vid)
			case "":
			default:
				return nil, "", &InvalidError{Filename: filename, Line: lineNo, Reason: "unknown version attribute [" + attr + "]"}
			}
			curVer = vid
			haveVer = true

		case 4:
			if !haveVer {
				return nil, "", &InvalidError{Filename: filename, Line: lineNo, Reason: "directive without a current version"}
			}
			key, rest, ok := cut(trimmed, ":")
			if !ok {
				return nil, "", &InvalidError{Filename: filename, Line: lineNo, Reason: "expected a \"key: value\" directive"}
			}
			switch key {
			case "revision":
				d.SetVersionRevision(curVer, rest)
			case "langs":
				langs, err := parseLangs(rest)
				if err != nil {
					return nil, "", &InvalidError{Filename: filename, Line: lineNo, Reason: err.Error()}
				}
				d.SetVersionLanguages(curVer, langs)
			case "dependency":
				downName, specText, ok := cut(rest, " ")
				if !ok {
					return nil, "", &InvalidError{Filename: filename, Line: lineNo, Reason: "expected \"dependency: <name> <spec>\""}
				}
				spec, err := semver.ParseSpec(specText)
				if err != nil {
					return nil, "", &InvalidError{Filename: filename, Line: lineNo, Reason: "invalid version spec: " + err.Error()}
				}
				downPkg := d.EnsurePackage(downName)
				d.AddEdge(curVer, downPkg, spec)
			default:
				return nil, "", &InvalidError{Filename: filename, Line: lineNo, Reason: "unknown version-level directive " + key}
			}

		default:
			return nil, "", &InvalidError{Filename: filename, Line: lineNo, Reason: "unexpected indentation (" + strconv.Itoa(indent) + " spaces)"}
		}
	}

	return d, heuristicName, nil
}

// cut splits s on the first occurrence of sep, trimming one leading
// space from the remainder (so "key: value" yields ("key", "value")).
func cut(s, sep string) (before, after string, found bool) {
	i := strings.Index(s, sep)
	if i < 0 {
		return "", "", false
	}
	before = s[:i]
	after = strings.TrimPrefix(s[i+len(sep):], " ")
	return before, after, true
}

// splitAttr splits a "version:" line's value into the version text
// and an optional trailing "[resolved]"/"[considered]" attribute.
func splitAttr(s string) (version, attr string) {
	if strings.HasSuffix(s, "[resolved]") {
		return strings.TrimSpace(strings.TrimSuffix(s, "[resolved]")), "resolved"
	}
	if strings.HasSuffix(s, "[considered]") {
		return strings.TrimSpace(strings.TrimSuffix(s, "[considered]")), "considered"
	}
	return s, ""
}

func parseLangs(s string) ([]profile.Lang, error) {
	fields := strings.Split(s, ",")
	langs := make([]profile.Lang, 0, len(fields))
	for _, f := range fields {
		l, err := profile.ParseLang(strings.TrimSpace(f))
		if err != nil {
			return nil, err
		}
		langs = append(langs, l)
	}
	return profile.SortLangs(langs), nil
}
