// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package matcher implements the nine-matcher cascade: a sequence of pure,
// deterministic functions of strictly decreasing precision that each take
// a haystack and a needle and return the byte ranges in haystack they
// consider equivalent to needle. The orchestrator in internal/editor owns
// the ordering, disambiguation, and splicing policy; this package only
// answers "where do these look the same".
package matcher

import (
	"strings"

	"github.com/wrenhollow/agentcore/internal/textutil"
	"github.com/wrenhollow/agentcore/pkg/types"
)

// Thresholds calibrated here and exercised by the per-matcher tests in
// this package.
// blockAnchorSimilarity and contextAwareSimilarity are package-level
// variables rather than constants so that SetThresholds can recalibrate
// them from the CLI at process startup; every other caller should treat
// them as read-only.
var (
	blockAnchorSimilarity  = 0.8
	contextAwareSimilarity = 0.85
)

const (
	blockAnchorWindowRatio  = 0.3
	contextAwareMinNeedle   = 5
	blockAnchorMinimumLines = 2
)

// SetThresholds recalibrates the block-anchor (matcher 3) and
// context-aware (matcher 8) acceptance thresholds. It is meant to be
// called once at process startup from parsed CLI flags/config, never
// mid-request; the cascade is otherwise pure and stateless. Values
// outside (0, 1] are ignored, leaving the current threshold unchanged.
func SetThresholds(blockAnchor, contextAware float64) {
	if blockAnchor > 0 && blockAnchor <= 1 {
		blockAnchorSimilarity = blockAnchor
	}
	if contextAware > 0 && contextAware <= 1 {
		contextAwareSimilarity = contextAware
	}
}

// MatchFunc is the shared contract every matcher implements.
type MatchFunc func(haystack, needle string) []types.CandidateRange

// ReplaceFirstCascade is matchers 1 through 8, in the fixed order the
// orchestrator must try them for a replace_first request.
var ReplaceFirstCascade = []MatchFunc{
	ExactMatch,
	LineTrimmedMatch,
	BlockAnchorMatch,
	WhitespaceNormalizedMatch,
	IndentationFlexibleMatch,
	EscapeNormalizedMatch,
	TrimmedBoundaryMatch,
	ContextAwareMatch,
}

// splitWithStarts splits s into lines and returns, alongside them, the
// absolute byte offset at which each line begins.
func splitWithStarts(s string) (lines []textutil.Line, starts []int) {
	lines = textutil.SplitLines(s)
	starts = make([]int, len(lines))
	offset := 0
	for i, l := range lines {
		starts[i] = offset
		offset += len(l.Content) + len(l.Terminator)
	}
	return lines, starts
}

func joinContent(lines []textutil.Line) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = l.Content
	}
	return strings.Join(parts, "\n")
}

// lineEnd returns the byte offset of the end of hLines[idx],
// including its terminator only if includeTerm is true.
func lineEnd(hLines []textutil.Line, hStarts []int, idx int, includeTerm bool) int {
	end := hStarts[idx] + len(hLines[idx].Content)
	if includeTerm {
		end += len(hLines[idx].Terminator)
	}
	return end
}

// ExactMatch is matcher 1: byte-for-byte substring search. Returns every
// non-overlapping occurrence, left to right.
func ExactMatch(haystack, needle string) []types.CandidateRange {
	if needle == "" {
		return nil
	}
	var out []types.CandidateRange
	cursor := 0
	for cursor <= len(haystack) {
		idx := strings.Index(haystack[cursor:], needle)
		if idx < 0 {
			break
		}
		start := cursor + idx
		end := start + len(needle)
		out = append(out, types.CandidateRange{
			Start: start, End: end,
			Matcher: types.MatcherExact, Confidence: types.ConfidenceExact, Similarity: 1.0,
		})
		cursor = end
	}
	return out
}

// trimTrailing trims only trailing whitespace and carriage returns from a
// line. Line-trimmed comparison deliberately leaves leading indentation
// alone — see DESIGN.md's notes on matcher 2 vs matcher 5 for why.
func trimTrailing(s string) string {
	return strings.TrimRight(s, " \t\r")
}

// LineTrimmedMatch is matcher 2: every needle line must equal its haystack
// counterpart once trailing whitespace is ignored.
func LineTrimmedMatch(haystack, needle string) []types.CandidateRange {
	nLines := textutil.SplitLines(needle)
	if len(nLines) == 0 {
		return nil
	}
	hLines, hStarts := splitWithStarts(haystack)
	n := len(nLines)

	var out []types.CandidateRange
	for i := 0; i+n <= len(hLines); i++ {
		matched := true
		for j := 0; j < n; j++ {
			if trimTrailing(hLines[i+j].Content) != trimTrailing(nLines[j].Content) {
				matched = false
				break
			}
		}
		if !matched {
			continue
		}
		last := i + n - 1
		out = append(out, types.CandidateRange{
			Start: hStarts[i],
			End:   lineEnd(hLines, hStarts, last, nLines[n-1].Terminator != ""),
			Matcher: types.MatcherLineTrimmed, Confidence: types.ConfidenceExact, Similarity: 1.0,
		})
	}
	return out
}

// BlockAnchorMatch is matcher 3: anchor on the needle's first and last
// trimmed lines, accept a haystack window within ±30% of the needle's
// line count whose interior is Levenshtein-similar enough.
func BlockAnchorMatch(haystack, needle string) []types.CandidateRange {
	nLines := textutil.SplitLines(needle)
	n := len(nLines)
	if n < blockAnchorMinimumLines {
		return nil
	}
	firstAnchor := textutil.TrimLine(nLines[0].Content)
	lastAnchor := textutil.TrimLine(nLines[n-1].Content)
	interiorNeedle := joinContent(nLines[1 : n-1])

	low := float64(n) * (1 - blockAnchorWindowRatio)
	high := float64(n) * (1 + blockAnchorWindowRatio)
	minLen := int(low)
	if float64(minLen) < low {
		minLen++
	}
	if minLen < blockAnchorMinimumLines {
		minLen = blockAnchorMinimumLines
	}
	maxLen := int(high)

	hLines, hStarts := splitWithStarts(haystack)
	var out []types.CandidateRange
	for i := 0; i < len(hLines); i++ {
		if textutil.TrimLine(hLines[i].Content) != firstAnchor {
			continue
		}
		for length := minLen; length <= maxLen; length++ {
			last := i + length - 1
			if last >= len(hLines) || last <= i {
				continue
			}
			if textutil.TrimLine(hLines[last].Content) != lastAnchor {
				continue
			}
			interiorHaystack := joinContent(hLines[i+1 : last])
			sim := textutil.Similarity(interiorHaystack, interiorNeedle)
			if sim >= blockAnchorSimilarity {
				out = append(out, types.CandidateRange{
					Start: hStarts[i],
					End:   lineEnd(hLines, hStarts, last, nLines[n-1].Terminator != ""),
					Matcher: types.MatcherBlockAnchor, Confidence: types.ConfidenceApproximate, Similarity: sim,
				})
			}
		}
	}
	return out
}

// WhitespaceNormalizedMatch is matcher 4: collapse runs of spaces/tabs to a
// single space per line (without trimming — see DESIGN.md) and substring
// match in normalized space, back-mapping the span to original bytes.
func WhitespaceNormalizedMatch(haystack, needle string) []types.CandidateRange {
	hNorm := normalizeCollapsedMapped(haystack)
	nNorm := normalizeCollapsedJoined(needle)
	if nNorm == "" {
		return nil
	}
	var out []types.CandidateRange
	cursor := 0
	for cursor <= len(hNorm.Normalized) {
		idx := strings.Index(hNorm.Normalized[cursor:], nNorm)
		if idx < 0 {
			break
		}
		start := cursor + idx
		end := start + len(nNorm)
		out = append(out, types.CandidateRange{
			Start: hNorm.MapStart(start), End: hNorm.MapEnd(end),
			Matcher: types.MatcherWhitespaceNormalized, Confidence: types.ConfidenceNormalized, Similarity: 1.0,
		})
		cursor = end
	}
	return out
}

func normalizeCollapsedJoined(s string) string {
	lines := textutil.SplitLines(s)
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = textutil.CollapseSpaces(l.Content)
	}
	joined := strings.Join(parts, "\n")
	if n := len(lines); n > 0 && lines[n-1].Terminator != "" {
		joined += "\n"
	}
	return joined
}

func normalizeCollapsedMapped(s string) textutil.OffsetMapping {
	lines, starts := splitWithStarts(s)
	var b strings.Builder
	orig := make([]int, 0, len(s)+1)
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
			orig = append(orig, starts[i])
		}
		lineMap := textutil.NormalizeWhitespaceMapped(l.Content)
		b.WriteString(lineMap.Normalized)
		for k := 0; k < len(lineMap.Normalized); k++ {
			orig = append(orig, starts[i]+lineMap.Orig[k])
		}
	}
	if n := len(lines); n > 0 && lines[n-1].Terminator != "" {
		b.WriteByte('\n')
		orig = append(orig, starts[n-1]+len(lines[n-1].Content))
	}
	orig = append(orig, len(s))
	return textutil.OffsetMapping{Normalized: b.String(), Orig: orig}
}

// IndentationFlexibleMatch is matcher 5: strip each needle line's own
// leading whitespace, then look for a contiguous haystack window where every
// line, with its own leading whitespace stripped, equals the
// corresponding dedented needle line. This tolerates a block of code
// being reindented relative to the supplied needle.
func IndentationFlexibleMatch(haystack, needle string) []types.CandidateRange {
	nLines := textutil.SplitLines(needle)
	n := len(nLines)
	if n == 0 {
		return nil
	}
	dedented := make([]string, n)
	for i, l := range nLines {
		dedented[i] = strings.TrimLeft(l.Content, " \t")
	}

	hLines, hStarts := splitWithStarts(haystack)
	var out []types.CandidateRange
	for i := 0; i+n <= len(hLines); i++ {
		matched := true
		for j := 0; j < n; j++ {
			if strings.TrimLeft(hLines[i+j].Content, " \t") != dedented[j] {
				matched = false
				break
			}
		}
		if !matched {
			continue
		}
		last := i + n - 1
		out = append(out, types.CandidateRange{
			Start: hStarts[i],
			End:   lineEnd(hLines, hStarts, last, nLines[n-1].Terminator != ""),
			Matcher: types.MatcherIndentationFlexible, Confidence: types.ConfidenceNormalized, Similarity: 1.0,
		})
	}
	return out
}

// EscapeNormalizedMatch is matcher 6: normalize two-character escape
// sequences on both sides to their canonical form, then exact-match.
func EscapeNormalizedMatch(haystack, needle string) []types.CandidateRange {
	hMap := textutil.NormalizeEscapesMapped(haystack)
	nNorm := textutil.NormalizeEscapes(needle)
	if nNorm == "" {
		return nil
	}
	var out []types.CandidateRange
	cursor := 0
	for cursor <= len(hMap.Normalized) {
		idx := strings.Index(hMap.Normalized[cursor:], nNorm)
		if idx < 0 {
			break
		}
		start := cursor + idx
		end := start + len(nNorm)
		out = append(out, types.CandidateRange{
			Start: hMap.MapStart(start), End: hMap.MapEnd(end),
			Matcher: types.MatcherEscapeNormalized, Confidence: types.ConfidenceNormalized, Similarity: 1.0,
		})
		cursor = end
	}
	return out
}

// TrimmedBoundaryMatch is matcher 7: drop leading/trailing all-whitespace
// lines from the needle, rerun matchers 1 and 2 against the shrunken
// needle, then expand the match back out to cover the blank lines that
// were dropped, if the haystack has matching blank neighbors.
func TrimmedBoundaryMatch(haystack, needle string) []types.CandidateRange {
	nLines := textutil.SplitLines(needle)
	lead := 0
	for lead < len(nLines) && strings.TrimSpace(nLines[lead].Content) == "" {
		lead++
	}
	trail := 0
	for trail < len(nLines)-lead && strings.TrimSpace(nLines[len(nLines)-1-trail].Content) == "" {
		trail++
	}
	if lead == 0 && trail == 0 {
		return nil
	}
	shrunken := nLines[lead : len(nLines)-trail]
	if len(shrunken) == 0 {
		return nil
	}
	shrunkenNeedle := textutil.JoinLines(shrunken)

	candidates := ExactMatch(haystack, shrunkenNeedle)
	if len(candidates) == 0 {
		candidates = LineTrimmedMatch(haystack, shrunkenNeedle)
	}
	if len(candidates) == 0 {
		return nil
	}

	hLines, hStarts := splitWithStarts(haystack)
	out := make([]types.CandidateRange, 0, len(candidates))
	for _, c := range candidates {
		start, end := expandBoundary(hLines, hStarts, c.Start, c.End, lead, trail)
		out = append(out, types.CandidateRange{
			Start: start, End: end,
			Matcher: types.MatcherTrimmedBoundary, Confidence: types.ConfidenceNormalized, Similarity: c.Similarity,
		})
	}
	return out
}

func lineIndexForOffset(hStarts []int, offset int) int {
	for i := len(hStarts) - 1; i >= 0; i-- {
		if hStarts[i] <= offset {
			return i
		}
	}
	return 0
}

func expandBoundary(hLines []textutil.Line, hStarts []int, start, end, lead, trail int) (int, int) {
	startIdx := lineIndexForOffset(hStarts, start)
	taken := 0
	for taken < lead && startIdx-1 >= 0 && strings.TrimSpace(hLines[startIdx-1].Content) == "" {
		startIdx--
		taken++
	}
	newStart := hStarts[startIdx]

	endIdx := startIdx
	if end > 0 {
		endIdx = lineIndexForOffset(hStarts, end-1)
	}
	takenTrail := 0
	for takenTrail < trail && endIdx+1 < len(hLines) && strings.TrimSpace(hLines[endIdx+1].Content) == "" {
		endIdx++
		takenTrail++
	}
	newEnd := lineEnd(hLines, hStarts, endIdx, true)
	return newStart, newEnd
}

// ContextAwareMatch is matcher 8: for needles of at least 5 lines, anchor
// on the first two and last two trimmed lines and accept if the interior
// is Levenshtein-similar enough.
func ContextAwareMatch(haystack, needle string) []types.CandidateRange {
	nLines := textutil.SplitLines(needle)
	n := len(nLines)
	if n < contextAwareMinNeedle {
		return nil
	}
	topA := textutil.TrimLine(nLines[0].Content)
	topB := textutil.TrimLine(nLines[1].Content)
	botA := textutil.TrimLine(nLines[n-2].Content)
	botB := textutil.TrimLine(nLines[n-1].Content)
	interiorNeedle := joinContent(nLines[2 : n-2])

	hLines, hStarts := splitWithStarts(haystack)
	var out []types.CandidateRange
	for i := 0; i+n <= len(hLines); i++ {
		last := i + n - 1
		if textutil.TrimLine(hLines[i].Content) != topA || textutil.TrimLine(hLines[i+1].Content) != topB {
			continue
		}
		if textutil.TrimLine(hLines[last].Content) != botB || textutil.TrimLine(hLines[last-1].Content) != botA {
			continue
		}
		interiorHaystack := joinContent(hLines[i+2 : last-1])
		sim := textutil.Similarity(interiorHaystack, interiorNeedle)
		if sim >= contextAwareSimilarity {
			out = append(out, types.CandidateRange{
				Start: hStarts[i],
				End:   lineEnd(hLines, hStarts, last, nLines[n-1].Terminator != ""),
				Matcher: types.MatcherContextAware, Confidence: types.ConfidenceApproximate, Similarity: sim,
			})
		}
	}
	return out
}

// MultiOccurrenceMatch is matcher 9: identical to ExactMatch, tagged for
// replace_all so the orchestrator never confuses the two call sites.
func MultiOccurrenceMatch(haystack, needle string) []types.CandidateRange {
	candidates := ExactMatch(haystack, needle)
	out := make([]types.CandidateRange, len(candidates))
	for i, c := range candidates {
		c.Matcher = types.MatcherMultiOccurrence
		out[i] = c
	}
	return out
}
