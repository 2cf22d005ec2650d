// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package searchtool

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrenhollow/agentcore/pkg/types"
)

func writeTestFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestPureGoGrepFindsMatchingLines(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "a.txt", "hello\nworld\nneedle here\n")
	writeTestFile(t, dir, "sub/b.txt", "another needle\nnothing else\n")

	matches, err := pureGoGrep(dir, "needle")
	require.NoError(t, err)
	require.Len(t, matches, 2)

	var lines []int
	for _, m := range matches {
		lines = append(lines, m.LineNumber)
	}
	assert.Contains(t, lines, 3)
	assert.Contains(t, lines, 1)
}

func TestPureGoGrepNoMatches(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "a.txt", "nothing interesting\n")

	matches, err := pureGoGrep(dir, "absent")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestPureGoGrepSkipsOversizedFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "big.txt", "")
	big := make([]byte, pureGoGrepMaxFileSize+1)
	for i := range big {
		big[i] = 'x'
	}
	require.NoError(t, os.WriteFile(path, big, 0o644))

	matches, err := pureGoGrep(dir, "x")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestGrepFallsBackWhenRipgrepMissing(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	dir := t.TempDir()
	writeTestFile(t, dir, "a.txt", "needle\n")

	matches, err := Grep(context.Background(), dir, "needle")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 1, matches[0].LineNumber)
}

func TestGlobNonRecursive(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "a.go", "")
	writeTestFile(t, dir, "b.go", "")
	writeTestFile(t, dir, "c.txt", "")

	matches, err := Glob(dir, "*.go")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.go", "b.go"}, matches)
}

func TestGlobRecursiveDoubleStar(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "a.go", "")
	writeTestFile(t, dir, "sub/b.go", "")
	writeTestFile(t, dir, "sub/deeper/c.go", "")
	writeTestFile(t, dir, "sub/deeper/d.txt", "")

	matches, err := Glob(dir, "**/*.go")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.go", "sub/b.go", "sub/deeper/c.go"}, matches)
}

func TestRecursiveGlobPreservesValidationErrorKind(t *testing.T) {
	dir := t.TempDir()

	_, err := Glob(dir, "**/[")
	require.Error(t, err)
	var ce *types.CoreError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, types.KindValidation, ce.Kind)
}

func TestGlobRejectsPathTraversalPattern(t *testing.T) {
	dir := t.TempDir()

	_, err := Glob(dir, "../../etc/*")
	require.Error(t, err)
	var ce *types.CoreError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, types.KindOutsideWorkspace, ce.Kind)
}

func TestSplitOnDoubleStar(t *testing.T) {
	prefix, suffix, found := splitOnDoubleStar("src/**/*.go")
	require.True(t, found)
	assert.Equal(t, "src", prefix)
	assert.Equal(t, "*.go", suffix)

	_, _, found = splitOnDoubleStar("*.go")
	assert.False(t, found)
}
