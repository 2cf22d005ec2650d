// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditModeString(t *testing.T) {
	assert.Equal(t, "replace_first", ReplaceFirst.String())
	assert.Equal(t, "replace_all", ReplaceAll.String())
}

func TestMatcherIDString(t *testing.T) {
	cases := []struct {
		id   MatcherID
		want string
	}{
		{MatcherExact, "exact"},
		{MatcherLineTrimmed, "line_trimmed"},
		{MatcherBlockAnchor, "block_anchor"},
		{MatcherWhitespaceNormalized, "whitespace_normalized"},
		{MatcherIndentationFlexible, "indentation_flexible"},
		{MatcherEscapeNormalized, "escape_normalized"},
		{MatcherTrimmedBoundary, "trimmed_boundary"},
		{MatcherContextAware, "context_aware"},
		{MatcherMultiOccurrence, "multi_occurrence"},
		{MatcherID(0), "none"},
		{MatcherID(99), "none"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.id.String())
	}
}

func TestConfidenceString(t *testing.T) {
	assert.Equal(t, "exact", ConfidenceExact.String())
	assert.Equal(t, "normalized", ConfidenceNormalized.String())
	assert.Equal(t, "approximate", ConfidenceApproximate.String())
}

func TestCandidateRangeLen(t *testing.T) {
	c := CandidateRange{Start: 10, End: 15}
	assert.Equal(t, 5, c.Len())
}

func TestDiagnosticError(t *testing.T) {
	d := Diagnostic{FilePath: "a.go"}
	assert.Equal(t, "no match found in a.go", d.Error())

	d = Diagnostic{
		FilePath:         "a.go",
		ClosestMatch:     "return 1;",
		Similarity:       0.91,
		ClosestLineStart: 4,
		ClosestLineEnd:   6,
	}
	assert.Contains(t, d.Error(), "lines 4-6")
	assert.Contains(t, d.Error(), "0.91")
}

func TestCoreErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &CoreError{Kind: KindIO, Message: "write failed", Err: cause}
	require.ErrorIs(t, err, cause)
	assert.Equal(t, "write failed", err.Error())
}

func TestNewCoreError(t *testing.T) {
	err := NewCoreError(KindAmbiguous, "found %d matches", 3)
	assert.Equal(t, KindAmbiguous, err.Kind)
	assert.Equal(t, "found 3 matches", err.Error())
}

func TestCoreErrorFallsBackToDiagnostic(t *testing.T) {
	diag := &Diagnostic{FilePath: "x.go"}
	err := &CoreError{Kind: KindNoMatch, Diagnostic: diag}
	assert.Equal(t, diag.Error(), err.Error())
}
