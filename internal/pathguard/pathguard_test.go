// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package pathguard

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wrenhollow/agentcore/pkg/types"
)

func newTestRoot(t *testing.T) (WorkspaceRoot, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "main.go"), []byte("package main\n"), 0o644))
	root, err := NewWorkspaceRoot(dir)
	require.NoError(t, err)
	return root, dir
}

func TestNewWorkspaceRootRejectsMissingDir(t *testing.T) {
	_, err := NewWorkspaceRoot(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
	var ce *types.CoreError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, types.KindNotFound, ce.Kind)
}

func TestNewWorkspaceRootRejectsFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := NewWorkspaceRoot(file)
	require.Error(t, err)
	var ce *types.CoreError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, types.KindNotADirectory, ce.Kind)
}

func TestResolveRelativePathWithinRoot(t *testing.T) {
	root, _ := newTestRoot(t)

	sp, err := Resolve(root, "src/main.go", RequireFile)
	require.NoError(t, err)
	assert.Equal(t, filepath.ToSlash("src/main.go"), sp.RelativeToWorkspace())
}

func TestResolveRejectsParentEscape(t *testing.T) {
	root, _ := newTestRoot(t)

	_, err := Resolve(root, "../etc/passwd", AllowMissing)
	require.Error(t, err)
	var ce *types.CoreError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, types.KindOutsideWorkspace, ce.Kind)
}

func TestResolveRejectsSiblingDirectoryWithSharedPrefix(t *testing.T) {
	dir := t.TempDir()
	work := filepath.Join(dir, "work")
	evil := filepath.Join(dir, "work-evil")
	require.NoError(t, os.MkdirAll(work, 0o755))
	require.NoError(t, os.MkdirAll(evil, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(evil, "secret.txt"), []byte("x"), 0o644))

	root, err := NewWorkspaceRoot(work)
	require.NoError(t, err)

	_, err = Resolve(root, filepath.Join("..", "work-evil", "secret.txt"), AllowMissing)
	require.Error(t, err)
	var ce *types.CoreError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, types.KindOutsideWorkspace, ce.Kind)
}

func TestResolveRejectsSymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink semantics differ on windows")
	}
	dir := t.TempDir()
	work := filepath.Join(dir, "work")
	outside := filepath.Join(dir, "outside")
	require.NoError(t, os.MkdirAll(work, 0o755))
	require.NoError(t, os.MkdirAll(outside, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Symlink(outside, filepath.Join(work, "link")))

	root, err := NewWorkspaceRoot(work)
	require.NoError(t, err)

	_, err = Resolve(root, filepath.Join("link", "secret.txt"), RequireFile)
	require.Error(t, err)
	var ce *types.CoreError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, types.KindOutsideWorkspace, ce.Kind)
}

func TestResolveAllowsMissingForCreate(t *testing.T) {
	root, _ := newTestRoot(t)

	sp, err := Resolve(root, "src/new_file.go", AllowMissing)
	require.NoError(t, err)
	assert.Equal(t, filepath.ToSlash("src/new_file.go"), sp.RelativeToWorkspace())
}

func TestResolveRequireFileNotFound(t *testing.T) {
	root, _ := newTestRoot(t)

	_, err := Resolve(root, "src/missing.go", RequireFile)
	require.Error(t, err)
	var ce *types.CoreError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, types.KindNotFound, ce.Kind)
}

func TestResolveRequireFileRejectsDirectory(t *testing.T) {
	root, _ := newTestRoot(t)

	_, err := Resolve(root, "src", RequireFile)
	require.Error(t, err)
	var ce *types.CoreError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, types.KindNotAFile, ce.Kind)
}

func TestResolveRootItself(t *testing.T) {
	root, dir := newTestRoot(t)

	sp, err := Resolve(root, dir, RequireDir)
	require.NoError(t, err)
	assert.Equal(t, ".", sp.RelativeToWorkspace())
}

func TestResolveEmptyPath(t *testing.T) {
	root, _ := newTestRoot(t)

	_, err := Resolve(root, "", AllowMissing)
	require.Error(t, err)
	var ce *types.CoreError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, types.KindValidation, ce.Kind)
}
