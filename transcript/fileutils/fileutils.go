package fileutils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// EnsureAbsent returns an error wrapping fs.ErrExist if path already exists.
func EnsureAbsent(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s: %w", path, fs.ErrExist)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// SingleLine collapses newlines and surrounding whitespace so s is safe to use in a heading.
func SingleLine(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.Join(strings.Fields(s), " ")
}

func Truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}

// WriteFileAtomicSameDir writes data to a temp file next to path, fsyncs it and renames it
// into place. Readers never observe a partially written file.
func WriteFileAtomicSameDir(path string, data []byte, mode fs.FileMode) error {
	if mode == 0 {
		mode = 0o644
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp_transcript_*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// WriteFileNoClobber is WriteFileAtomicSameDir that refuses to replace an existing file
// unless overwrite is set.
func WriteFileNoClobber(path string, data []byte, mode fs.FileMode, overwrite bool) error {
	if !overwrite {
		if err := EnsureAbsent(path); err != nil {
			return err
		}
	}
	return WriteFileAtomicSameDir(path, data, mode)
}

// RenameNoClobber renames from to to, refusing to replace an existing file unless
// overwrite is set.
func RenameNoClobber(from, to string, overwrite bool) error {
	if from == "" || to == "" {
		return errors.New("RenameNoClobber: empty path")
	}
	if from == to {
		return nil
	}
	if !overwrite {
		if err := EnsureAbsent(to); err != nil {
			return err
		}
	}
	return os.Rename(from, to)
}
