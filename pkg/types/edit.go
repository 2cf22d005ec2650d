// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package types defines the shared value types passed between the path
// guard, matcher cascade, edit orchestrator, and diff emitter.
package types

import "fmt"

// EditMode selects how the orchestrator disambiguates and applies a match.
type EditMode int

const (
	// ReplaceFirst requires a single unambiguous match and replaces it.
	ReplaceFirst EditMode = iota
	// ReplaceAll replaces every occurrence found by the multi-occurrence matcher.
	ReplaceAll
)

func (m EditMode) String() string {
	if m == ReplaceAll {
		return "replace_all"
	}
	return "replace_first"
}

// Edit is a single file edit request: find OldContent in the file at
// FilePath and splice in NewContent, per Mode.
type Edit struct {
	FilePath   string   // Target file path, resolved through the path guard
	OldContent string   // Text to search for; never empty for a text edit
	NewContent string   // Replacement text; empty means deletion
	Mode       EditMode // ReplaceFirst or ReplaceAll
}

// MatcherID identifies which of the nine cascade stages produced a
// candidate. Stages run in ascending order; 0 is reserved (no matcher).
type MatcherID int

const (
	_ MatcherID = iota
	MatcherExact
	MatcherLineTrimmed
	MatcherBlockAnchor
	MatcherWhitespaceNormalized
	MatcherIndentationFlexible
	MatcherEscapeNormalized
	MatcherTrimmedBoundary
	MatcherContextAware
	MatcherMultiOccurrence
)

func (m MatcherID) String() string {
	switch m {
	case MatcherExact:
		return "exact"
	case MatcherLineTrimmed:
		return "line_trimmed"
	case MatcherBlockAnchor:
		return "block_anchor"
	case MatcherWhitespaceNormalized:
		return "whitespace_normalized"
	case MatcherIndentationFlexible:
		return "indentation_flexible"
	case MatcherEscapeNormalized:
		return "escape_normalized"
	case MatcherTrimmedBoundary:
		return "trimmed_boundary"
	case MatcherContextAware:
		return "context_aware"
	case MatcherMultiOccurrence:
		return "multi_occurrence"
	default:
		return "none"
	}
}

// Confidence classifies how strongly a matcher's candidates should be
// trusted when more than one is returned for a replace_first request.
type Confidence int

const (
	ConfidenceExact Confidence = iota
	ConfidenceNormalized
	ConfidenceApproximate
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceExact:
		return "exact"
	case ConfidenceNormalized:
		return "normalized"
	case ConfidenceApproximate:
		return "approximate"
	default:
		return "unknown"
	}
}

// CandidateRange is a half-open byte interval in the haystack that a
// matcher claims is equivalent to the needle.
type CandidateRange struct {
	Start      int        // Byte offset of the match start
	End        int        // Byte offset of the match end (exclusive)
	Matcher    MatcherID  // Which matcher produced this candidate
	Confidence Confidence // exact, normalized, or approximate
	Similarity float64    // 1.0 for exact/normalized; score in [0,1] for approximate
}

// Len reports the byte length of the candidate range.
func (c CandidateRange) Len() int {
	return c.End - c.Start
}

// EditResult describes the outcome of a successful Apply call.
type EditResult struct {
	NewBytes     []byte    // The full new file contents
	Diff         string    // Unified diff from old bytes to new bytes
	Replacements int       // Number of replacements performed
	Matcher      MatcherID // Matcher that produced the winning candidate(s)
}

// Diagnostic describes why a match failed, with enough detail for the
// caller to narrow the search text or inspect the closest miss.
type Diagnostic struct {
	FilePath         string  // File where the match was attempted
	SearchText       string  // What we searched for
	ClosestMatch     string  // Best partial match found (empty if none)
	Similarity       float64 // Similarity score of closest match
	ClosestLineStart int     // Starting line of the closest match (1-based)
	ClosestLineEnd   int     // Ending line of the closest match (1-based)
}

func (d Diagnostic) Error() string {
	if d.ClosestMatch == "" {
		return fmt.Sprintf("no match found in %s", d.FilePath)
	}
	return fmt.Sprintf("no match in %s (closest match at lines %d-%d, similarity %.2f)",
		d.FilePath, d.ClosestLineStart, d.ClosestLineEnd, d.Similarity)
}

// Applier applies an Edit against in-memory file bytes and produces an
// EditResult or an error. The fuzzy text editor is the only implementation;
// the interface is the seam through which the RPC server reaches it.
type Applier interface {
	Apply(fileBytes []byte, edit Edit) (*EditResult, error)
}

// ErrorKind is the closed taxonomy of core failure modes. It is the one
// piece of vocabulary shared between the path guard, the orchestrator, and
// the RPC-layer error mapping, so that a transport adapter never has to
// string-match an error message to decide what happened.
type ErrorKind int

const (
	KindOutsideWorkspace ErrorKind = iota + 1
	KindNotFound
	KindBinaryFile
	KindInvalidUTF8
	KindNoMatch
	KindAmbiguous
	KindTimeout
	KindIO
	KindNotAFile
	KindNotADirectory
	KindValidation
)

func (k ErrorKind) String() string {
	switch k {
	case KindOutsideWorkspace:
		return "outside_workspace"
	case KindNotFound:
		return "not_found"
	case KindBinaryFile:
		return "binary_file"
	case KindInvalidUTF8:
		return "invalid_utf8"
	case KindNoMatch:
		return "no_match"
	case KindAmbiguous:
		return "ambiguous"
	case KindTimeout:
		return "timeout"
	case KindIO:
		return "io"
	case KindNotAFile:
		return "not_a_file"
	case KindNotADirectory:
		return "not_a_directory"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// CoreError is the error value returned by every core package. It carries a
// Kind for programmatic dispatch (the RPC layer maps Kind to a JSON-RPC
// numeric code) plus a human-readable Message, and optionally the
// Diagnostic computed for a NoMatch failure.
type CoreError struct {
	Kind       ErrorKind
	Message    string
	Diagnostic *Diagnostic
	Err        error // wrapped cause, if any
}

func (e *CoreError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Diagnostic != nil {
		return e.Diagnostic.Error()
	}
	return e.Kind.String()
}

func (e *CoreError) Unwrap() error {
	return e.Err
}

// NewCoreError builds a CoreError of the given kind with a formatted message.
func NewCoreError(kind ErrorKind, format string, args ...any) *CoreError {
	return &CoreError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
