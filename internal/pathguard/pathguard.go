// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package pathguard canonicalizes caller-supplied paths against an
// immutable workspace root and rejects anything that escapes it, including
// through a symlink. It is the one check every tool handler runs before
// touching the filesystem.
package pathguard

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/wrenhollow/agentcore/pkg/types"
)

// WorkspaceRoot is the single absolute, canonical directory outside of
// which no tool may read or write. It is set once at process startup and
// never mutated afterward.
type WorkspaceRoot struct {
	abs string
}

// NewWorkspaceRoot canonicalizes dir (resolving symlinks) and verifies it
// exists and is a directory.
func NewWorkspaceRoot(dir string) (WorkspaceRoot, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return WorkspaceRoot{}, types.NewCoreError(types.KindIO, "resolving workspace root: %v", err)
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return WorkspaceRoot{}, types.NewCoreError(types.KindNotFound, "workspace root %s does not exist", abs)
		}
		return WorkspaceRoot{}, types.NewCoreError(types.KindIO, "resolving workspace root: %v", err)
	}
	info, err := os.Stat(real)
	if err != nil {
		return WorkspaceRoot{}, types.NewCoreError(types.KindIO, "stat workspace root: %v", err)
	}
	if !info.IsDir() {
		return WorkspaceRoot{}, types.NewCoreError(types.KindNotADirectory, "workspace root %s is not a directory", real)
	}
	return WorkspaceRoot{abs: filepath.Clean(real)}, nil
}

// String returns the canonical absolute workspace directory.
func (w WorkspaceRoot) String() string {
	return w.abs
}

// SafePath is an absolute path that has been verified to lie within a
// WorkspaceRoot. It carries no guarantee the target exists.
type SafePath struct {
	abs  string
	root WorkspaceRoot
}

// String returns the absolute, canonical path.
func (s SafePath) String() string {
	return s.abs
}

// RelativeToWorkspace returns the path relative to the workspace root,
// using forward slashes, for diagnostics and diff headers.
func (s SafePath) RelativeToWorkspace() string {
	rel, err := filepath.Rel(s.root.abs, s.abs)
	if err != nil {
		return s.abs
	}
	return filepath.ToSlash(rel)
}

// MustExist selects whether Resolve requires the path to exist, and as
// what kind of entry.
type MustExist int

const (
	// AllowMissing permits userPath to not yet exist (e.g. file create).
	AllowMissing MustExist = iota
	// RequireFile requires userPath to exist and be a regular file.
	RequireFile
	// RequireDir requires userPath to exist and be a directory.
	RequireDir
)

// Resolve interprets userPath relative to root if it is not already
// absolute, canonicalizes the longest existing prefix (following
// symlinks), appends the remaining components lexically, and verifies the
// result lies under root on a path-component boundary — never a bare
// string prefix, so "/w/work" never matches "/w/work-evil".
func Resolve(root WorkspaceRoot, userPath string, require MustExist) (SafePath, error) {
	if userPath == "" {
		return SafePath{}, types.NewCoreError(types.KindValidation, "path must not be empty")
	}

	candidate := userPath
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(root.abs, candidate)
	}
	candidate = filepath.Clean(candidate)

	resolved, remainder, err := resolveExistingPrefix(candidate)
	if err != nil {
		return SafePath{}, types.NewCoreError(types.KindIO, "resolving %s: %v", userPath, err)
	}

	full := resolved
	if remainder != "" {
		full = filepath.Join(resolved, remainder)
	}

	if !withinRoot(root.abs, full) {
		return SafePath{}, types.NewCoreError(types.KindOutsideWorkspace, "path %s escapes workspace %s", userPath, root.abs)
	}

	switch require {
	case RequireFile:
		info, err := os.Stat(full)
		if err != nil {
			if os.IsNotExist(err) {
				return SafePath{}, types.NewCoreError(types.KindNotFound, "%s not found", userPath)
			}
			return SafePath{}, types.NewCoreError(types.KindIO, "stat %s: %v", userPath, err)
		}
		if info.IsDir() {
			return SafePath{}, types.NewCoreError(types.KindNotAFile, "%s is a directory, not a file", userPath)
		}
	case RequireDir:
		info, err := os.Stat(full)
		if err != nil {
			if os.IsNotExist(err) {
				return SafePath{}, types.NewCoreError(types.KindNotFound, "%s not found", userPath)
			}
			return SafePath{}, types.NewCoreError(types.KindIO, "stat %s: %v", userPath, err)
		}
		if !info.IsDir() {
			return SafePath{}, types.NewCoreError(types.KindNotADirectory, "%s is not a directory", userPath)
		}
	}

	return SafePath{abs: full, root: root}, nil
}

// resolveExistingPrefix walks path from the root downward, resolving
// symlinks for every component that exists, and returns the canonical form
// of the longest existing prefix plus the remaining (non-existent) suffix
// joined lexically, exactly as filepath.Clean would leave it.
func resolveExistingPrefix(path string) (resolved string, remainder string, err error) {
	components := strings.Split(filepath.Clean(path), string(filepath.Separator))

	cur := string(filepath.Separator)
	i := 1 // components[0] is "" for an absolute path
	for ; i < len(components); i++ {
		if components[i] == "" {
			continue
		}
		next := filepath.Join(cur, components[i])
		real, serr := filepath.EvalSymlinks(next)
		if serr != nil {
			if os.IsNotExist(serr) {
				break
			}
			return "", "", serr
		}
		cur = real
	}

	remainder = filepath.Join(components[i:]...)
	return cur, remainder, nil
}

// withinRoot reports whether target is root itself or lies under root on a
// path-component boundary.
func withinRoot(root, target string) bool {
	root = filepath.Clean(root)
	target = filepath.Clean(target)
	if root == target {
		return true
	}
	sep := string(filepath.Separator)
	if !strings.HasSuffix(root, sep) {
		root += sep
	}
	return strings.HasPrefix(target, root)
}
