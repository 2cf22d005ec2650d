// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package diffemit

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnifiedIdenticalTextsReturnsEmpty(t *testing.T) {
	assert.Equal(t, "", Unified("a.txt", "a.txt", "same\n", "same\n"))
}

func TestUnifiedHeaders(t *testing.T) {
	diff := Unified("old/a.go", "new/a.go", "a\nb\nc\n", "a\nB\nc\n")
	require.NotEmpty(t, diff)
	lines := strings.Split(diff, "\n")
	assert.Equal(t, "--- old/a.go", lines[0])
	assert.Equal(t, "+++ new/a.go", lines[1])
	assert.Contains(t, diff, "@@ -1,3 +1,3 @@")
}

func TestUnifiedMarksMissingFinalNewline(t *testing.T) {
	diff := Unified("a.txt", "a.txt", "a\nb", "a\nB")
	assert.Contains(t, diff, "\\ No newline at end of file")
}

func TestUnifiedRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		old  string
		new  string
	}{
		{"single line replace", "a\nb\nc\n", "a\nB\nc\n"},
		{"deletion only", "a\nb\nc\n", "a\nc\n"},
		{"insertion only", "a\nc\n", "a\nb\nc\n"},
		{"whole file replace", "old content\n", "new content\n"},
		{"no trailing newline", "a\nb\nc", "a\nB\nc"},
		{"two separated hunks", "a\n" + strings.Repeat("ctx\n", 20) + "old\n" + strings.Repeat("ctx\n", 20), "A\n" + strings.Repeat("ctx\n", 20) + "new\n" + strings.Repeat("ctx\n", 20)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			diff := Unified("f.txt", "f.txt", c.old, c.new)
			if diff == "" {
				assert.Equal(t, c.old, c.new)
				return
			}
			got, err := applyUnifiedForTest(c.old, diff)
			require.NoError(t, err)
			assert.Equal(t, c.new, got)
		})
	}
}

func TestGroupHunksCoalescesCloseChanges(t *testing.T) {
	old := "a\nb\nc\nd\ne\nf\ng\n"
	new := "A\nb\nc\nd\ne\nf\nG\n"
	diff := Unified("f.txt", "f.txt", old, new)
	assert.Equal(t, 1, strings.Count(diff, "@@ -"), "changes separated by 5 context lines coalesce into one hunk")
}

func TestGroupHunksSplitsFarChanges(t *testing.T) {
	old := "a\n" + strings.Repeat("ctx\n", 20) + "b\n"
	new := "A\n" + strings.Repeat("ctx\n", 20) + "B\n"
	diff := Unified("f.txt", "f.txt", old, new)
	assert.Equal(t, 2, strings.Count(diff, "@@ -"))
}

// applyUnifiedForTest is a minimal unified-diff applier used only to
// verify the round-trip property in tests; it is not part of the
// production package.
func applyUnifiedForTest(oldText, diff string) (string, error) {
	oldLines := strings.SplitAfter(oldText, "\n")
	if len(oldLines) > 0 && oldLines[len(oldLines)-1] == "" {
		oldLines = oldLines[:len(oldLines)-1]
	}

	var out strings.Builder
	oldIdx := 0
	lines := strings.Split(diff, "\n")
	i := 0
	for i < len(lines) {
		line := lines[i]
		switch {
		case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
			i++
		case strings.HasPrefix(line, "@@"):
			fromStart, err := parseHunkFromStart(line)
			if err != nil {
				return "", err
			}
			for oldIdx < fromStart-1 {
				out.WriteString(oldLines[oldIdx])
				oldIdx++
			}
			i++
		case strings.HasPrefix(line, "\\"):
			i++
		case strings.HasPrefix(line, "-"):
			oldIdx++
			i++
		case strings.HasPrefix(line, "+"):
			text := line[1:]
			noNewline := i+1 < len(lines) && strings.HasPrefix(lines[i+1], "\\")
			out.WriteString(text)
			if !noNewline {
				out.WriteString("\n")
			}
			i++
		case strings.HasPrefix(line, " "):
			text := line[1:]
			noNewline := i+1 < len(lines) && strings.HasPrefix(lines[i+1], "\\")
			out.WriteString(text)
			if !noNewline {
				out.WriteString("\n")
			}
			oldIdx++
			i++
		default:
			i++
		}
	}
	for oldIdx < len(oldLines) {
		out.WriteString(oldLines[oldIdx])
		oldIdx++
	}
	return out.String(), nil
}

func parseHunkFromStart(header string) (int, error) {
	parts := strings.Fields(header)
	for _, p := range parts {
		if strings.HasPrefix(p, "-") {
			numPart := strings.TrimPrefix(p, "-")
			numPart = strings.SplitN(numPart, ",", 2)[0]
			n := 0
			for _, r := range numPart {
				if r < '0' || r > '9' {
					return 0, errors.New("bad hunk header: " + header)
				}
				n = n*10 + int(r-'0')
			}
			return n, nil
		}
	}
	return 0, errors.New("no from-line in hunk header: " + header)
}
