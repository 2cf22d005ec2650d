// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package diffemit formats a unified diff between two file contents using
// a line-level LCS computed by sergi/go-diff's line-hashing technique:
// each distinct line is mapped to a single rune so the byte-oriented Myers
// diff runs over lines instead of characters, then the result is expanded
// back into real lines.
package diffemit

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/wrenhollow/agentcore/internal/textutil"
)

// contextLines is the number of unchanged lines kept on each side of a
// hunk's changes.
const contextLines = 3

// coalesceGap is the maximum run of unchanged lines separating two hunks
// before they are merged into one.
const coalesceGap = 6

type opKind int

const (
	opEqual opKind = iota
	opDelete
	opInsert
)

type lineOp struct {
	kind       opKind
	content    string // line content, terminator stripped
	hadNewline bool   // whether this line had a trailing newline in its source file
}

// Unified returns the unified diff transforming oldText into newText, with
// headers naming fromPath/toPath. Returns "" if the texts are identical.
func Unified(fromPath, toPath, oldText, newText string) string {
	if oldText == newText {
		return ""
	}

	ops := diffLineOps(oldText, newText)
	hunks := groupHunks(ops)
	if len(hunks) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "--- %s\n", fromPath)
	fmt.Fprintf(&b, "+++ %s\n", toPath)
	for _, h := range hunks {
		writeHunk(&b, ops, h)
	}
	return b.String()
}

type hunkRange struct {
	start, end int // inclusive indices into ops
}

// diffLineOps computes the line-level diff between oldText and newText and
// flattens it into a single ordered sequence of per-line operations.
func diffLineOps(oldText, newText string) []lineOp {
	dmp := diffmatchpatch.New()
	aChars, bChars, lineArray := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffMain(aChars, bChars, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var ops []lineOp
	for _, d := range diffs {
		kind := opEqual
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			kind = opDelete
		case diffmatchpatch.DiffInsert:
			kind = opInsert
		}
		for _, l := range textutil.SplitLines(d.Text) {
			ops = append(ops, lineOp{kind: kind, content: l.Content, hadNewline: l.Terminator != ""})
		}
	}
	return ops
}

// groupHunks finds maximal runs of changed lines and coalesces runs
// separated by at most coalesceGap unchanged lines, then expands each
// surviving run by contextLines of surrounding context.
func groupHunks(ops []lineOp) []hunkRange {
	var changedRuns []hunkRange
	i := 0
	for i < len(ops) {
		if ops[i].kind == opEqual {
			i++
			continue
		}
		start := i
		for i < len(ops) && ops[i].kind != opEqual {
			i++
		}
		changedRuns = append(changedRuns, hunkRange{start: start, end: i - 1})
	}
	if len(changedRuns) == 0 {
		return nil
	}

	merged := []hunkRange{changedRuns[0]}
	for _, r := range changedRuns[1:] {
		last := &merged[len(merged)-1]
		gap := r.start - last.end - 1
		if gap <= coalesceGap {
			last.end = r.end
			continue
		}
		merged = append(merged, r)
	}

	hunks := make([]hunkRange, len(merged))
	for i, r := range merged {
		start := r.start - contextLines
		if start < 0 {
			start = 0
		}
		end := r.end + contextLines
		if end > len(ops)-1 {
			end = len(ops) - 1
		}
		if i > 0 && start <= hunks[i-1].end {
			start = hunks[i-1].end + 1
		}
		hunks[i] = hunkRange{start: start, end: end}
	}
	return hunks
}

func writeHunk(b *strings.Builder, ops []lineOp, h hunkRange) {
	oldLine, newLine := lineNumbersBefore(ops, h.start)
	fromStart, toStart := oldLine, newLine
	fromCount, toCount := 0, 0
	for i := h.start; i <= h.end; i++ {
		switch ops[i].kind {
		case opDelete:
			fromCount++
		case opInsert:
			toCount++
		default:
			fromCount++
			toCount++
		}
	}

	fmt.Fprintf(b, "@@ -%d,%d +%d,%d @@\n", fromStart, fromCount, toStart, toCount)
	for i := h.start; i <= h.end; i++ {
		op := ops[i]
		var prefix byte
		switch op.kind {
		case opDelete:
			prefix = '-'
		case opInsert:
			prefix = '+'
		default:
			prefix = ' '
		}
		b.WriteByte(prefix)
		b.WriteString(op.content)
		b.WriteByte('\n')
		if !op.hadNewline {
			b.WriteString("\\ No newline at end of file\n")
		}
	}
}

// lineNumbersBefore returns the 1-based old-file and new-file line numbers
// of the line that would appear at ops[idx], accounting for every entry
// before it.
func lineNumbersBefore(ops []lineOp, idx int) (oldLine, newLine int) {
	oldLine, newLine = 1, 1
	for i := 0; i < idx; i++ {
		switch ops[i].kind {
		case opEqual:
			oldLine++
			newLine++
		case opDelete:
			oldLine++
		case opInsert:
			newLine++
		}
	}
	return oldLine, newLine
}
