// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package fsio reads and atomically writes files for the edit, read, and
// write tools. It is the only package in this module that touches the
// filesystem on the hot path; internal/editor stays pure bytes-in,
// bytes-out. Callers are expected to have already confined the path with
// internal/pathguard.
package fsio

import (
	"bytes"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/wrenhollow/agentcore/pkg/types"
)

// sniffLen is how many leading bytes are inspected to classify a file as
// binary, matching the common "first 8KiB" heuristic used by text editors
// and diff tools.
const sniffLen = 8 * 1024

// defaultPerm is used when creating a file that does not yet exist.
const defaultPerm = 0o644

// File holds the result of a Read: the raw bytes of a file that passed
// the binary sniff.
type File struct {
	Bytes []byte
}

// Read loads path and rejects it outright if it looks binary. It does not
// check UTF-8 validity at all; ValidateUTF8 does that, and a file can
// pass the binary sniff and still contain invalid UTF-8.
func Read(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.NewCoreError(types.KindNotFound, "%s does not exist", path)
		}
		return nil, types.NewCoreError(types.KindIO, "reading %s: %v", path, err)
	}

	if looksBinary(data) {
		return nil, types.NewCoreError(types.KindBinaryFile, "%s appears to be a binary file", path)
	}

	return &File{Bytes: data}, nil
}

// looksBinary applies the NUL-byte-in-the-first-sniffLen-bytes heuristic:
// a text file should never contain a NUL in practice, while most binary
// formats do within their first few kilobytes.
func looksBinary(data []byte) bool {
	window := data
	if len(window) > sniffLen {
		window = window[:sniffLen]
	}
	return bytes.IndexByte(window, 0) != -1
}

// ValidateUTF8 returns a *types.CoreError tagged KindInvalidUTF8 if data is
// not valid UTF-8, nil otherwise.
func ValidateUTF8(path string, data []byte) error {
	if !utf8.Valid(data) {
		return types.NewCoreError(types.KindInvalidUTF8, "%s is not valid UTF-8", path)
	}
	return nil
}

// WriteAtomic writes data to path by creating a temp file in the same
// directory, writing, fsyncing, and closing it, copying the original
// file's permissions (or defaultPerm for a new file), then renaming it
// into place so a reader never observes a partially written file and a
// crash right after rename cannot lose the write.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)

	perm := os.FileMode(defaultPerm)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	f, err := os.CreateTemp(dir, ".agentcore-*.tmp")
	if err != nil {
		return types.NewCoreError(types.KindIO, "creating temp file in %s: %v", dir, err)
	}
	tmpPath := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return types.NewCoreError(types.KindIO, "writing temp file for %s: %v", path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return types.NewCoreError(types.KindIO, "syncing temp file for %s: %v", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return types.NewCoreError(types.KindIO, "closing temp file for %s: %v", path, err)
	}

	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return types.NewCoreError(types.KindIO, "setting permissions on %s: %v", path, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return types.NewCoreError(types.KindIO, "renaming temp file into %s: %v", path, err)
	}
	return nil
}

// EnsureParentDir creates path's parent directory (and any missing
// ancestors) so WriteAtomic can create a new file whose directory does
// not exist yet, e.g. when a tool call creates a file in a fresh
// subdirectory.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return types.NewCoreError(types.KindIO, "creating directory %s: %v", dir, err)
	}
	return nil
}
