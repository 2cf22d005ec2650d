// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package textutil provides the line splitting, whitespace normalization,
// indentation analysis, escape normalization, and similarity scoring the
// matcher cascade is built from. Nothing here understands files or the
// workspace; every function is a pure string transform.
package textutil

import (
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Line is one line of text plus the terminator that followed it in the
// original source. Terminator is "", "\n", or "\r\n".
type Line struct {
	Content    string
	Terminator string
}

// SplitLines splits s into (content, terminator) pairs. Joining the pairs
// back together reproduces s exactly, including a missing final newline.
func SplitLines(s string) []Line {
	if s == "" {
		return nil
	}
	var lines []Line
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\n':
			if i > start && s[i-1] == '\r' {
				lines = append(lines, Line{Content: s[start : i-1], Terminator: "\r\n"})
			} else {
				lines = append(lines, Line{Content: s[start:i], Terminator: "\n"})
			}
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, Line{Content: s[start:], Terminator: ""})
	}
	return lines
}

// JoinLines reassembles lines produced by SplitLines into the original byte
// string.
func JoinLines(lines []Line) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l.Content)
		b.WriteString(l.Terminator)
	}
	return b.String()
}

// ContentLines returns just the line contents, without terminators.
func ContentLines(s string) []string {
	split := SplitLines(s)
	out := make([]string, len(split))
	for i, l := range split {
		out[i] = l.Content
	}
	return out
}

// TrimLine trims leading and trailing ASCII whitespace from a single line,
// the way the block-anchor and context-aware matchers compare anchor lines.
func TrimLine(s string) string {
	return strings.Trim(s, " \t\r\n")
}

// CollapseSpaces maps any run of spaces and tabs to a single space.
// Non-ASCII whitespace is left untouched.
func CollapseSpaces(s string) string {
	var b strings.Builder
	inRun := false
	for _, r := range s {
		if r == ' ' || r == '\t' {
			if !inRun {
				b.WriteByte(' ')
				inRun = true
			}
			continue
		}
		inRun = false
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizeWhitespace collapses runs of spaces/tabs to a single space and,
// if trim is true, also trims the result.
func NormalizeWhitespace(s string, trim bool) string {
	out := CollapseSpaces(s)
	if trim {
		out = strings.Trim(out, " \t")
	}
	return out
}

// OffsetMapping records, for every byte position in a normalized string,
// the corresponding byte position in the original string it was derived
// from. Matchers that normalize the haystack use this to back-map a
// matched span in normalized-space to a CandidateRange in original-space.
type OffsetMapping struct {
	Normalized string
	// Orig[i] is the offset into the original string of normalized byte i.
	// It has one entry per byte of Normalized, plus a final trailing entry
	// equal to len(original) so that a match ending at len(Normalized) maps
	// to the true end of the original text.
	Orig []int
}

// MapStart translates a start offset in normalized space back to the
// original string.
func (m OffsetMapping) MapStart(normOffset int) int {
	if normOffset < 0 {
		return 0
	}
	if normOffset >= len(m.Orig) {
		return m.Orig[len(m.Orig)-1]
	}
	return m.Orig[normOffset]
}

// MapEnd translates an end offset (exclusive) in normalized space back to
// the original string.
func (m OffsetMapping) MapEnd(normOffset int) int {
	return m.MapStart(normOffset)
}

// NormalizeWhitespaceMapped behaves like NormalizeWhitespace(s, false) but
// also returns the offset table needed to back-map a match.
func NormalizeWhitespaceMapped(s string) OffsetMapping {
	var b strings.Builder
	orig := make([]int, 0, len(s)+1)
	inRun := false
	i := 0
	for i < len(s) {
		c := s[i]
		if c == ' ' || c == '\t' {
			if !inRun {
				b.WriteByte(' ')
				orig = append(orig, i)
				inRun = true
			}
			i++
			continue
		}
		inRun = false
		b.WriteByte(c)
		orig = append(orig, i)
		i++
	}
	orig = append(orig, len(s))
	return OffsetMapping{Normalized: b.String(), Orig: orig}
}

// IndentOf returns the leading run of spaces and tabs of a line.
func IndentOf(line string) string {
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return line[:i]
}

// IndentWidth returns the visual width of an indentation prefix, expanding
// tabs to tabWidth columns. Used only for comparison, never for rewriting.
func IndentWidth(indent string, tabWidth int) int {
	width := 0
	for _, r := range indent {
		if r == '\t' {
			width += tabWidth - (width % tabWidth)
		} else {
			width++
		}
	}
	return width
}

// DefaultTabWidth is the tab-to-space equivalence used for indentation
// comparisons when the caller does not configure one.
const DefaultTabWidth = 4

// CommonIndentWidth returns the narrowest indentation width shared by all
// non-blank lines, using tabWidth for tab expansion. Blank lines are
// ignored since they carry no indentation signal.
func CommonIndentWidth(lines []string, tabWidth int) int {
	common := -1
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		w := IndentWidth(IndentOf(l), tabWidth)
		if common == -1 || w < common {
			common = w
		}
	}
	if common == -1 {
		return 0
	}
	return common
}

// StripLeadingWidth removes up to width columns of leading whitespace from
// line, expanding tabs at tabWidth, and reports whether the full width was
// present (false if the line's indentation was shallower than width).
func StripLeadingWidth(line string, width int, tabWidth int) (stripped string, ok bool) {
	col := 0
	i := 0
	for i < len(line) && col < width {
		switch line[i] {
		case ' ':
			col++
		case '\t':
			col += tabWidth - (col % tabWidth)
		default:
			return line, false
		}
		i++
	}
	if col < width {
		return line, false
	}
	return line[i:], true
}

// escapeLetters holds the letters that, after a backslash, form the
// canonical two-character escape sequences this package normalizes.
var escapeLetters = map[byte]rune{
	'n':  '\n',
	't':  '\t',
	'r':  '\r',
	'\\': '\\',
	'"':  '"',
}

// NormalizeEscapes rewrites control characters and their already-escaped
// textual form to the same canonical two-character escape sequence
// (backslash followed by n, t, r, \\, or "), so that a raw newline and the
// literal text `\n` compare equal after normalization. It is idempotent:
// NormalizeEscapes(NormalizeEscapes(x)) == NormalizeEscapes(x).
func NormalizeEscapes(s string) string {
	var b strings.Builder
	i := 0
	for i < len(s) {
		c := s[i]
		switch c {
		case '\n':
			b.WriteString(`\n`)
			i++
			continue
		case '\t':
			b.WriteString(`\t`)
			i++
			continue
		case '\r':
			b.WriteString(`\r`)
			i++
			continue
		case '\\':
			if i+1 < len(s) {
				if _, ok := escapeLetters[s[i+1]]; ok {
					b.WriteByte('\\')
					b.WriteByte(s[i+1])
					i += 2
					continue
				}
			}
			b.WriteByte(c)
			i++
			continue
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// NormalizeEscapesMapped behaves like NormalizeEscapes but also returns the
// offset table needed to back-map a match found in the normalized text.
func NormalizeEscapesMapped(s string) OffsetMapping {
	var b strings.Builder
	orig := make([]int, 0, len(s)+1)
	i := 0
	for i < len(s) {
		c := s[i]
		switch c {
		case '\n':
			b.WriteString(`\n`)
			orig = append(orig, i, i)
			i++
			continue
		case '\t':
			b.WriteString(`\t`)
			orig = append(orig, i, i)
			i++
			continue
		case '\r':
			b.WriteString(`\r`)
			orig = append(orig, i, i)
			i++
			continue
		case '\\':
			if i+1 < len(s) {
				if _, ok := escapeLetters[s[i+1]]; ok {
					b.WriteByte('\\')
					b.WriteByte(s[i+1])
					orig = append(orig, i, i+1)
					i += 2
					continue
				}
			}
			b.WriteByte(c)
			orig = append(orig, i)
			i++
			continue
		default:
			b.WriteByte(c)
			orig = append(orig, i)
			i++
		}
	}
	orig = append(orig, len(s))
	return OffsetMapping{Normalized: b.String(), Orig: orig}
}

// Levenshtein returns the edit distance between a and b over Unicode scalar
// values, via the diff-match-patch character-diff algorithm.
func Levenshtein(a, b string) int {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(a, b, false)
	return dmp.DiffLevenshtein(diffs)
}

// Similarity returns 1 - distance/max(len(a), len(b)) as a score in [0,1].
// Two empty strings are considered identical.
func Similarity(a, b string) float64 {
	maxLen := utf8.RuneCountInString(a)
	if bl := utf8.RuneCountInString(b); bl > maxLen {
		maxLen = bl
	}
	if maxLen == 0 {
		return 1.0
	}
	dist := Levenshtein(a, b)
	return 1.0 - float64(dist)/float64(maxLen)
}
