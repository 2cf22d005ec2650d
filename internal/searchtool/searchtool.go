// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package searchtool wraps ripgrep for content search and filepath.Glob
// for name search, for the RPC layer's search tool. The core never
// reasons about search results; this package only locates candidates for
// the orchestrator to hand back to the editor as a filePath.
package searchtool

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/wrenhollow/agentcore/pkg/types"
)

// pureGoGrepMaxFileSize skips files larger than this in the fallback
// scan; it exists only as a cheap guard against scanning huge binaries
// when ripgrep itself is unavailable.
const pureGoGrepMaxFileSize = 4 * 1024 * 1024

// Match is a single ripgrep hit.
type Match struct {
	FilePath   string
	LineNumber int
	Line       string
}

// rgJSONLine mirrors the subset of ripgrep's --json output this package
// consumes; ripgrep emits "begin"/"match"/"end"/"summary" message types
// per file, and only "match" carries a line.
type rgJSONLine struct {
	Type string `json:"type"`
	Data struct {
		Path struct {
			Text string `json:"text"`
		} `json:"path"`
		LineNumber int `json:"line_number"`
		Lines      struct {
			Text string `json:"text"`
		} `json:"lines"`
	} `json:"data"`
}

// rgMissingWarn guards the fallback warning so it is logged once per
// process.
var rgMissingWarn sync.Once

// Grep searches dir for pattern using ripgrep if it is on PATH, falling
// back to a pure-Go line scan (logged once at warn) otherwise.
func Grep(ctx context.Context, dir, pattern string) ([]Match, error) {
	if _, err := exec.LookPath("rg"); err != nil {
		rgMissingWarn.Do(func() {
			log.Warn().Str("pattern", pattern).Msg("ripgrep not found on PATH, falling back to pure-Go scan")
		})
		return pureGoGrep(dir, pattern)
	}
	return ripgrepSearch(ctx, dir, pattern)
}

func ripgrepSearch(ctx context.Context, dir, pattern string) ([]Match, error) {
	cmd := exec.CommandContext(ctx, "rg", "--json", "-e", pattern, ".")
	cmd.Dir = dir

	out, err := cmd.Output()
	if err != nil {
		// ripgrep exits 1 when the pattern has no matches; that is not
		// a tool failure.
		if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
			return nil, nil
		}
		return nil, types.NewCoreError(types.KindIO, "ripgrep search failed: %v", err)
	}

	var matches []Match
	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var line rgJSONLine
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			continue
		}
		if line.Type != "match" {
			continue
		}
		matches = append(matches, Match{
			FilePath:   filepath.Clean(filepath.Join(dir, line.Data.Path.Text)),
			LineNumber: line.Data.LineNumber,
			Line:       strings.TrimRight(line.Data.Lines.Text, "\n"),
		})
	}
	return matches, nil
}

// pureGoGrep is the no-ripgrep fallback: a plain recursive substring scan.
// It is intentionally unsophisticated (no regex, no binary-file
// filtering; only files over pureGoGrepMaxFileSize are skipped) since it
// exists only to keep the tool functional in an environment without
// ripgrep installed.
func pureGoGrep(dir, pattern string) ([]Match, error) {
	var matches []Match
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		info, statErr := d.Info()
		if statErr != nil || info.Size() > pureGoGrepMaxFileSize {
			return nil
		}
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil
		}
		for i, line := range strings.Split(string(data), "\n") {
			if strings.Contains(line, pattern) {
				matches = append(matches, Match{FilePath: path, LineNumber: i + 1, Line: line})
			}
		}
		return nil
	})
	if err != nil {
		return nil, types.NewCoreError(types.KindIO, "scanning %s: %v", dir, err)
	}
	return matches, nil
}

// Glob resolves a glob pattern (optionally with a "**" component for
// recursive descent) against dir, returning workspace-relative matches
// sorted for deterministic output. Any pattern containing ".." is
// rejected rather than silently clamped, matching pathguard's reject-on-escape behavior for the other
// tools.
func Glob(dir, pattern string) ([]string, error) {
	if strings.Contains(pattern, "..") {
		return nil, types.NewCoreError(types.KindOutsideWorkspace, "glob pattern %q escapes workspace", pattern)
	}
	if !strings.Contains(pattern, "**") {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, types.NewCoreError(types.KindValidation, "invalid glob pattern %q: %v", pattern, err)
		}
		return filterWithin(dir, matches), nil
	}
	return recursiveGlob(dir, pattern)
}

// recursiveGlob handles a single "**" segment by walking every directory
// under dir/prefix and glob-matching suffix against each one in turn, so
// "src/**/*.go" matches *.go files at any depth under src.
func recursiveGlob(dir, pattern string) ([]string, error) {
	prefix, suffix, found := splitOnDoubleStar(pattern)
	if !found {
		return Glob(dir, pattern)
	}

	var matches []string
	root := filepath.Join(dir, prefix)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		hits, globErr := filepath.Glob(filepath.Join(path, suffix))
		if globErr != nil {
			return types.NewCoreError(types.KindValidation, "invalid glob pattern %q: %v", pattern, globErr)
		}
		matches = append(matches, hits...)
		return nil
	})
	if err != nil {
		var ce *types.CoreError
		if errors.As(err, &ce) {
			return nil, ce
		}
		return nil, types.NewCoreError(types.KindIO, "walking %s: %v", root, err)
	}
	return filterWithin(dir, matches), nil
}

// filterWithin drops any match that does not resolve under dir (e.g. via
// a symlink followed during the walk or glob expansion), rewrites the
// rest as dir-relative with forward slashes to match
// pathguard.SafePath.RelativeToWorkspace, and sorts them for
// deterministic output.
func filterWithin(dir string, matches []string) []string {
	cleanDir := filepath.Clean(dir)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		abs, err := filepath.Abs(m)
		if err != nil {
			continue
		}
		if abs != cleanDir && !strings.HasPrefix(abs, cleanDir+string(filepath.Separator)) {
			continue
		}
		rel, err := filepath.Rel(cleanDir, abs)
		if err != nil {
			continue
		}
		out = append(out, filepath.ToSlash(rel))
	}
	sort.Strings(out)
	return out
}

func splitOnDoubleStar(pattern string) (prefix, suffix string, found bool) {
	idx := strings.Index(pattern, "**")
	if idx == -1 {
		return "", "", false
	}
	prefix = strings.TrimSuffix(pattern[:idx], "/")
	suffix = strings.TrimPrefix(pattern[idx+2:], "/")
	return prefix, suffix, true
}

