// Package store provides the shared JSONL-append-log primitives used by
// the allowlist, pending-exception, and allow-once stores: advisory file
// locking and atomic temp-file-plus-rename writes. Adapted from the
// sensor-proxy's config-file locking helpers, generalized from a single
// YAML document to an append-only line-oriented log.
package store

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// WithLockedFile opens (creating if needed) a sibling ".lock" file for
// path, acquires an exclusive advisory flock on it, runs fn, and releases
// the lock on return. Lock acquisition is blocking, matching the design's
// "no timeout beyond the evaluator's budget" rule — the evaluator is
// expected to enforce its own budget around the call, not this helper.
func WithLockedFile(path string, fn func() error) error {
	lockPath := path + ".lock"
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	f, err := os.OpenFile(lockPath, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	defer f.Close()

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		return fmt.Errorf("acquire file lock: %w", err)
	}
	defer unix.Flock(int(f.Fd()), unix.LOCK_UN) //nolint:errcheck

	return fn()
}

// AtomicWriteFile writes data to path via a temp file in the same
// directory followed by a rename, so concurrent readers never observe a
// partially written store file.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmpPath != "" {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	tmpPath = ""

	if dirFile, err := os.Open(dir); err == nil {
		dirFile.Sync() //nolint:errcheck
		dirFile.Close()
	}
	return nil
}

// ReadLines reads path and invokes fn once per non-empty line. A missing
// file is treated as empty, not an error — per the design's "persistent
// stores that fail to read are treated as empty" policy.
func ReadLines(path string, fn func(line []byte) error) (parseErrors int, err error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("open store file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if ferr := fn(line); ferr != nil {
			parseErrors++
			continue
		}
	}
	if err := scanner.Err(); err != nil {
		return parseErrors, fmt.Errorf("scan store file: %w", err)
	}
	return parseErrors, nil
}

// AppendLines serializes each line (assumed already JSON-encoded, without
// a trailing newline) and rewrites path to contain exactly those lines.
// Despite the name this performs a full rewrite rather than a true
// O(1) append, because pruning expired/consumed records requires a
// load-then-prune-then-rewrite pass on every write per the design.
func AppendLines(path string, lines [][]byte) error {
	buf := make([]byte, 0, 256*len(lines))
	for _, l := range lines {
		buf = append(buf, l...)
		buf = append(buf, '\n')
	}
	return AtomicWriteFile(path, buf, 0o600)
}
