// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package artifact

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DefaultPerm are the file permissions of a newly written artifact, making it
// readable by a web server running under a different user.
const DefaultPerm os.FileMode = 0o644

// tmpSuffix is the suffix of temporary files.
const tmpSuffix = ".tmp"

// WriteFile atomically replaces the file at path with the content produced by
// the specified write function: the content first goes into a temporary file
// in the same directory, which is then synced and renamed to path. If write
// returns an error, or any step fails, then the file at path is left as it was
// and the temporary file is removed.
func WriteFile(path string, perm os.FileMode, write func(w io.Writer) error) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, tmpPattern(base))
	if err != nil {
		return fmt.Errorf("cannot create temporary file for %s: %w", path, err)
	}
	tmpname := tmp.Name()
	defer func() {
		if err == nil {
			return
		}
		tmp.Close() // ...if not already closed.
		os.Remove(tmpname)
	}()

	buffered := bufio.NewWriter(tmp)
	if err = write(buffered); err != nil {
		return fmt.Errorf("cannot produce content for %s: %w", path, err)
	}
	if err = buffered.Flush(); err != nil {
		return fmt.Errorf("cannot write %s: %w", tmpname, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("cannot sync %s: %w", tmpname, err)
	}
	if err = tmp.Chmod(perm); err != nil {
		return fmt.Errorf("cannot set permissions of %s: %w", tmpname, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("cannot finalize %s: %w", tmpname, err)
	}
	if err = os.Rename(tmpname, path); err != nil {
		return fmt.Errorf("cannot replace %s: %w", path, err)
	}
	syncDir(dir)
	return nil
}

// Sweep removes stale temporary files of the artifact at path that have been
// left behind by an interrupted earlier WriteFile, returning the number of
// files removed. Sweep must not be called while a WriteFile for the same
// artifact is in progress.
func Sweep(path string) (int, error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	entries, err := readDir(dir)
	if err != nil {
		return 0, err
	}
	prefix, _, _ := strings.Cut(tmpPattern(base), "*")
	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, tmpSuffix) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			continue
		}
		removed++
	}
	return removed, nil
}

// tmpPattern returns the os.CreateTemp pattern for temporary files of the
// artifact with the specified base name. Temporary files are dot files, so
// that directory listings of web servers usually don't show them.
func tmpPattern(base string) string {
	return "." + base + ".*" + tmpSuffix
}

// readDir reads the specified directory, returning all its directory entries,
// but not taking the time to sort them (as opposed to [os.ReadDir]).
func readDir(name string) ([]os.DirEntry, error) {
	d, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer d.Close()
	return d.ReadDir(-1)
}

// syncDir makes a rename in the specified directory durable on a best effort
// basis.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	defer d.Close()
	_ = d.Sync()
}
