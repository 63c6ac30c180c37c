package cache

import (
	"os"
	"path/filepath"
	"time"

	"github.com/dopamine-pm/dopamine/internal/semver"
)

// flagNames lists every stage flag file that can witness activity
// inside a revision's profile directories.
var flagNames = []string{SourceFlagName, ConfigFlagName, BuildFlagName, InstallFlagName}

// latestActivity returns the most recent modification time among any
// stage flag file found under any profile directory of a revision, or
// the revision directory's own mtime if none exist.
func (l *Layout) latestActivity(pkg string, v semver.Version, revision string) (time.Time, error) {
	revDir := l.RevisionDir(pkg, v, revision)
	info, err := os.Stat(revDir)
	if err != nil {
		return time.Time{}, err
	}
	var latest time.Time
	found := false

	entries, err := os.ReadDir(revDir)
	if err != nil {
		return info.ModTime(), nil
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		profileDir := filepath.Join(revDir, e.Name())
		for _, name := range flagNames {
			if fi, err := os.Stat(filepath.Join(profileDir, name)); err == nil {
				if !found || fi.ModTime().After(latest) {
					latest = fi.ModTime()
					found = true
				}
			}
		}
	}
	if !found {
		return info.ModTime(), nil
	}
	return latest, nil
}

// LatestRevision returns the on-disk revision of pkg@v with the most
// recent flag-file modification time, the tie-breaker used for disk
// lookups where the caller omitted a revision.
func (l *Layout) LatestRevision(pkg string, v semver.Version) (string, bool, error) {
	revisions, err := l.Revisions(pkg, v)
	if err != nil {
		return "", false, err
	}
	if len(revisions) == 0 {
		return "", false, nil
	}

	var best string
	var bestTime time.Time
	for i, rev := range revisions {
		t, err := l.latestActivity(pkg, v, rev)
		if err != nil {
			continue
		}
		if i == 0 || t.After(bestTime) {
			best, bestTime = rev, t
		}
	}
	if best == "" {
		return revisions[0], true, nil
	}
	return best, true, nil
}
