package sandbox

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// preSizeFile creates (or truncates) path as a zero-filled file of exactly
// size bytes: the writable block device the guest sees (spec.md invariant
// §3.5). A container-layer archive library (the pack's moby/go-archive)
// targets whole-filesystem layer semantics with whiteouts and ID mapping;
// reading a handful of named entries out of a flat guest-written tar is a
// better fit for the standard archive/tar reader than for that library, so
// this file stays on the standard library (DESIGN.md).
func preSizeFile(path string, size int64) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating output archive %q: %w", path, err)
	}
	defer f.Close()

	if err := f.Truncate(size); err != nil {
		return fmt.Errorf("sizing output archive %q to %d bytes: %w", path, size, err)
	}
	return nil
}

// readTarEntry scans a tar file for a single named entry and returns its
// contents. It is used for both the mandatory exit_code.txt read and the
// best-effort stdout/stderr/test_output reads; callers decide how to treat
// a miss.
func readTarEntry(path, name string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tr := tar.NewReader(f)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil, os.ErrNotExist
		}
		if err != nil {
			return nil, err
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		if strings.TrimPrefix(hdr.Name, "./") != name {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, err
		}
		return data, nil
	}
}

// readBestEffort returns the entry's contents, or "" on any error
// (including a missing entry), per spec.md §3 "missing entries are empty
// strings, never errors".
func readBestEffort(path, name string) string {
	data, err := readTarEntry(path, name)
	if err != nil {
		return ""
	}
	return string(data)
}

// readExitCode reads exit_code.txt and parses it as a decimal integer.
// ok is false if the entry is missing or not parseable; err is non-nil
// only for an extraction failure unrelated to the entry being absent
// (spec.md §4.3 "a mandatory read that fails is an extraction error").
func readExitCode(path string) (code int, ok bool, err error) {
	data, rerr := readTarEntry(path, "exit_code.txt")
	if rerr != nil {
		if os.IsNotExist(rerr) {
			return 0, false, nil
		}
		return 0, false, rerr
	}
	n, perr := strconv.Atoi(strings.TrimSpace(string(data)))
	if perr != nil {
		return 0, false, nil
	}
	return n, true, nil
}
