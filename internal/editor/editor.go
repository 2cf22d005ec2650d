// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package editor implements the Edit Orchestrator: it drives the matcher
// cascade in internal/matcher, applies the ambiguity policy, splices the
// replacement into the file bytes, preserves the dominant line ending, and
// hands the result to internal/diffemit for a unified diff. It performs no
// I/O of its own — callers hand it bytes and get bytes back.
package editor

import (
	"time"
	"unicode/utf8"

	"github.com/wrenhollow/agentcore/internal/diffemit"
	"github.com/wrenhollow/agentcore/internal/matcher"
	"github.com/wrenhollow/agentcore/internal/textutil"
	"github.com/wrenhollow/agentcore/pkg/types"
)

// defaultBudget is the cooperative wall-clock budget for the matcher
// cascade. Matchers are checked between steps, never from inside their
// inner loops, so the budget enforcement stays cheap and deterministic.
const defaultBudget = 2 * time.Second

// TextEditor is the sole implementation of types.Applier in this module.
type TextEditor struct {
	budget time.Duration
}

// New returns a ready-to-use TextEditor with the default cascade budget.
func New() *TextEditor {
	return &TextEditor{budget: defaultBudget}
}

// NewWithBudget returns a TextEditor whose matcher cascade must complete
// within budget, for callers (the CLI's --edit-timeout flag) that need a
// different cooperative deadline than the default.
func NewWithBudget(budget time.Duration) *TextEditor {
	if budget <= 0 {
		budget = defaultBudget
	}
	return &TextEditor{budget: budget}
}

// Apply runs the cascade against fileBytes and produces an EditResult, or a
// *types.CoreError describing why it could not.
func (e *TextEditor) Apply(fileBytes []byte, edit types.Edit) (*types.EditResult, error) {
	if edit.OldContent == "" {
		return nil, types.NewCoreError(types.KindValidation, "old content must not be empty")
	}
	if !utf8.Valid(fileBytes) {
		return nil, types.NewCoreError(types.KindInvalidUTF8, "%s is not valid UTF-8", edit.FilePath)
	}
	if !utf8.ValidString(edit.NewContent) {
		return nil, types.NewCoreError(types.KindInvalidUTF8, "replacement text is not valid UTF-8")
	}

	haystack := string(fileBytes)
	crlfDominant := hasDominantCRLF(haystack)
	adjustedNew := adjustLineEndings(edit.NewContent, crlfDominant)

	deadline := time.Now().Add(e.budget)

	switch edit.Mode {
	case types.ReplaceAll:
		return e.applyAll(haystack, edit, adjustedNew)
	default:
		return e.applyFirst(haystack, edit, adjustedNew, deadline)
	}
}

func (e *TextEditor) applyAll(haystack string, edit types.Edit, adjustedNew string) (*types.EditResult, error) {
	candidates := matcher.MultiOccurrenceMatch(haystack, edit.OldContent)
	if len(candidates) == 0 {
		diag := closestMatch(haystack, edit.OldContent, edit.FilePath)
		return nil, &types.CoreError{Kind: types.KindNoMatch, Diagnostic: &diag}
	}

	var out []byte
	cursor := 0
	for _, c := range candidates {
		out = append(out, haystack[cursor:c.Start]...)
		out = append(out, adjustedNew...)
		cursor = c.End
	}
	out = append(out, haystack[cursor:]...)

	diff := diffemit.Unified(edit.FilePath, edit.FilePath, haystack, string(out))
	return &types.EditResult{
		NewBytes:     out,
		Diff:         diff,
		Replacements: len(candidates),
		Matcher:      types.MatcherMultiOccurrence,
	}, nil
}

func (e *TextEditor) applyFirst(haystack string, edit types.Edit, adjustedNew string, deadline time.Time) (*types.EditResult, error) {
	for _, fn := range matcher.ReplaceFirstCascade {
		if time.Now().After(deadline) {
			return nil, types.NewCoreError(types.KindTimeout, "edit exceeded time budget for %s", edit.FilePath)
		}

		candidates := fn(haystack, edit.OldContent)
		if len(candidates) == 0 {
			continue
		}

		selected, err := resolve(candidates)
		if err != nil {
			return nil, err
		}

		out := haystack[:selected.Start] + adjustedNew + haystack[selected.End:]
		diff := diffemit.Unified(edit.FilePath, edit.FilePath, haystack, out)
		return &types.EditResult{
			NewBytes:     []byte(out),
			Diff:         diff,
			Replacements: 1,
			Matcher:      selected.Matcher,
		}, nil
	}

	diag := closestMatch(haystack, edit.OldContent, edit.FilePath)
	return nil, &types.CoreError{Kind: types.KindNoMatch, Diagnostic: &diag}
}

// resolve applies the ambiguity policy to the candidates returned by a
// single matcher: an exact-confidence tie is always a hard failure; a
// normalized/approximate tie is broken by score, then smallest range, then
// earliest start, and only fails if the top two are identical on every
// criterion.
func resolve(candidates []types.CandidateRange) (types.CandidateRange, error) {
	if len(candidates) == 1 {
		return candidates[0], nil
	}

	if candidates[0].Confidence == types.ConfidenceExact {
		return types.CandidateRange{}, types.NewCoreError(types.KindAmbiguous, "%d matches found", len(candidates))
	}

	best := make([]types.CandidateRange, len(candidates))
	copy(best, candidates)
	sortCandidates(best)

	if len(best) >= 2 && tie(best[0], best[1]) {
		return types.CandidateRange{}, types.NewCoreError(types.KindAmbiguous, "%d matches found with equal confidence", len(candidates))
	}
	return best[0], nil
}

func tie(a, b types.CandidateRange) bool {
	return a.Similarity == b.Similarity && a.Len() == b.Len() && a.Start == b.Start
}

// sortCandidates orders by highest similarity, then smallest range, then
// earliest start — an insertion sort since cascades return at most a
// handful of candidates.
func sortCandidates(c []types.CandidateRange) {
	for i := 1; i < len(c); i++ {
		for j := i; j > 0 && less(c[j], c[j-1]); j-- {
			c[j], c[j-1] = c[j-1], c[j]
		}
	}
}

func less(a, b types.CandidateRange) bool {
	if a.Similarity != b.Similarity {
		return a.Similarity > b.Similarity
	}
	if a.Len() != b.Len() {
		return a.Len() < b.Len()
	}
	return a.Start < b.Start
}

// hasDominantCRLF reports whether at least half of haystack's line
// terminators are "\r\n".
func hasDominantCRLF(s string) bool {
	lines := textutil.SplitLines(s)
	crlf, lf := 0, 0
	for _, l := range lines {
		switch l.Terminator {
		case "\r\n":
			crlf++
		case "\n":
			lf++
		}
	}
	total := crlf + lf
	if total == 0 {
		return false
	}
	return crlf*2 >= total
}

// adjustLineEndings converts bare "\n" terminators in new to "\r\n" when
// the haystack is dominantly CRLF, leaving already-CRLF and terminator-less
// lines untouched.
func adjustLineEndings(new string, crlfDominant bool) string {
	if !crlfDominant {
		return new
	}
	lines := textutil.SplitLines(new)
	for i := range lines {
		if lines[i].Terminator == "\n" {
			lines[i].Terminator = "\r\n"
		}
	}
	return textutil.JoinLines(lines)
}

// closestMatch finds the haystack window of the same line count as needle
// with the highest similarity, for a helpful NoMatch diagnostic.
func closestMatch(haystack, needle, filePath string) types.Diagnostic {
	needleLines := textutil.SplitLines(needle)
	n := len(needleLines)
	if n == 0 {
		return types.Diagnostic{FilePath: filePath, SearchText: needle}
	}

	hLines := textutil.SplitLines(haystack)
	needleJoined := joinLines(needleLines)

	bestSim := -1.0
	bestStart, bestEnd := 0, 0
	bestText := ""
	for i := 0; i+n <= len(hLines); i++ {
		window := joinLines(hLines[i : i+n])
		sim := textutil.Similarity(window, needleJoined)
		if sim > bestSim {
			bestSim = sim
			bestStart, bestEnd = i, i+n-1
			bestText = window
		}
	}
	if bestSim < 0 {
		return types.Diagnostic{FilePath: filePath, SearchText: needle}
	}
	return types.Diagnostic{
		FilePath:         filePath,
		SearchText:       needle,
		ClosestMatch:     bestText,
		Similarity:       bestSim,
		ClosestLineStart: bestStart + 1,
		ClosestLineEnd:   bestEnd + 1,
	}
}

func joinLines(lines []textutil.Line) string {
	contents := make([]string, len(lines))
	for i, l := range lines {
		contents[i] = l.Content
	}
	joined := ""
	for i, c := range contents {
		if i > 0 {
			joined += "\n"
		}
		joined += c
	}
	return joined
}

var _ types.Applier = (*TextEditor)(nil)
