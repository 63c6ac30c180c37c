package buildstate

import (
	"errors"
	"os"
	"path/filepath"
	"time"
)

// WriteFlag atomically writes body to the flag file at path, creating
// its parent directory if needed.
func WriteFlag(path, body string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(body), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// ReadFlag returns a flag file's body, and false if it does not
// exist.
func ReadFlag(path string) (string, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(data), true, nil
}

func modTime(path string) (time.Time, bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return info.ModTime(), true, nil
}

// NewerThanAll reports whether path exists and its modification time
// is strictly later than every path in than. A missing than entry is
// ignored (treated as "no constraint from that source").
func NewerThanAll(path string, than ...string) (bool, error) {
	pathTime, ok, err := modTime(path)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	for _, other := range than {
		if other == "" {
			continue
		}
		otherTime, ok, err := modTime(other)
		if err != nil {
			return false, err
		}
		if !ok {
			// No file at other to compare against: e.g. an in-tree
			// source has no source.flag. Nothing to be stale against.
			continue
		}
		if !pathTime.After(otherTime) {
			return false, nil
		}
	}
	return true, nil
}

// Exists reports whether path is present on disk.
func Exists(path string) (bool, error) {
	_, ok, err := modTime(path)
	return ok, err
}
