// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package agenterr maps the core's types.ErrorKind taxonomy onto
// go-errors-flavored errors carrying a JSON-RPC error code and a stable
// user-message family, so the RPC layer never has to string-match a core
// error message to decide what happened.
package agenterr

import (
	"fmt"
	"strconv"

	goerrors "github.com/agilira/go-errors"
	"github.com/wrenhollow/agentcore/pkg/types"
)

// Error codes, per the core's error taxonomy. The -3200x/-3201x/-3202x/
// -3203x bands group kinds by the layer that produces them: workspace and
// lookup failures, the matcher's own failure modes, cascade timeout, and
// raw I/O.
const (
	CodeOutsideWorkspace goerrors.ErrorCode = "-32001"
	CodeNotFound         goerrors.ErrorCode = "-32002"
	CodeBinaryFile       goerrors.ErrorCode = "-32003"
	CodeInvalidUTF8      goerrors.ErrorCode = "-32004"
	CodeNoMatch          goerrors.ErrorCode = "-32010"
	CodeAmbiguous        goerrors.ErrorCode = "-32011"
	CodeTimeout          goerrors.ErrorCode = "-32020"
	CodeIO               goerrors.ErrorCode = "-32030"
	CodeNotAFile         goerrors.ErrorCode = "-32031"
	CodeNotADirectory    goerrors.ErrorCode = "-32032"
	CodeValidation       goerrors.ErrorCode = "-32040"
	CodeInternal         goerrors.ErrorCode = "-32000"
)

// userMessages gives the stable message family for each kind; the
// go-errors user message is always this family, with the core's
// formatted detail kept as the error's own message rather than folded
// into the user message, so two calls failing for the same reason report identically to a
// caller that only looks at the message.
var userMessages = map[types.ErrorKind]string{
	types.KindOutsideWorkspace: "path escapes workspace",
	types.KindNotFound:         "file not found",
	types.KindBinaryFile:       "refusing to edit binary file",
	types.KindInvalidUTF8:      "file is not valid UTF-8",
	types.KindNoMatch:          "old string not found in file",
	types.KindAmbiguous:        "multiple matches found; narrow the context",
	types.KindTimeout:          "edit exceeded time budget",
	types.KindIO:               "I/O error",
	types.KindNotAFile:         "path is not a file",
	types.KindNotADirectory:    "path is not a directory",
	types.KindValidation:       "invalid request",
}

var rpcCodes = map[types.ErrorKind]goerrors.ErrorCode{
	types.KindOutsideWorkspace: CodeOutsideWorkspace,
	types.KindNotFound:         CodeNotFound,
	types.KindBinaryFile:       CodeBinaryFile,
	types.KindInvalidUTF8:      CodeInvalidUTF8,
	types.KindNoMatch:          CodeNoMatch,
	types.KindAmbiguous:        CodeAmbiguous,
	types.KindTimeout:          CodeTimeout,
	types.KindIO:               CodeIO,
	types.KindNotAFile:         CodeNotAFile,
	types.KindNotADirectory:    CodeNotADirectory,
	types.KindValidation:       CodeValidation,
}

// RPCError wraps a go-errors *Error with the JSON-RPC code the core's
// kind maps to, so internal/rpcserver can read both the numeric code and
// a structured diagnostic off the same value.
type RPCError struct {
	goError    *goerrors.Error
	kind       types.ErrorKind
	diagnostic *types.Diagnostic
	cause      error
}

// FromCore converts a core error into an *RPCError. Non-*types.CoreError
// values are mapped to CodeInternal with their message carried through
// verbatim, since they represent a bug rather than an expected failure
// mode.
func FromCore(err error) *RPCError {
	if err == nil {
		return nil
	}

	ce, ok := err.(*types.CoreError)
	if !ok {
		return &RPCError{
			goError: goerrors.New(CodeInternal, err.Error()),
			kind:    0,
			cause:   err,
		}
	}

	code, known := rpcCodes[ce.Kind]
	if !known {
		code = CodeInternal
	}

	ge := goerrors.New(code, ce.Message).
		WithUserMessage(userMessages[ce.Kind]).
		WithContext("kind", ce.Kind.String())

	if ce.Diagnostic != nil {
		ge = ge.WithContext("file_path", ce.Diagnostic.FilePath)
		if ce.Diagnostic.ClosestMatch != "" {
			ge = ge.
				WithContext("closest_match", ce.Diagnostic.ClosestMatch).
				WithContext("similarity", fmt.Sprintf("%.3f", ce.Diagnostic.Similarity)).
				WithContext("closest_line_start", strconv.Itoa(ce.Diagnostic.ClosestLineStart)).
				WithContext("closest_line_end", strconv.Itoa(ce.Diagnostic.ClosestLineEnd))
		}
	}

	return &RPCError{goError: ge, kind: ce.Kind, diagnostic: ce.Diagnostic, cause: ce}
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	return e.goError.Error()
}

// Unwrap exposes the original core error so errors.As/errors.Is can see
// through the JSON-RPC wrapper to the *types.CoreError underneath.
func (e *RPCError) Unwrap() error {
	return e.cause
}

// JSONRPCCode returns the numeric JSON-RPC 2.0 error code for this error,
// as a string since go-errors.ErrorCode is string-typed.
func (e *RPCError) JSONRPCCode() goerrors.ErrorCode {
	return e.goError.ErrorCode()
}

// UserMessage returns the stable, kind-keyed message family (never the
// raw, potentially path-containing detail).
func (e *RPCError) UserMessage() string {
	return e.goError.UserMessage()
}

// Kind returns the originating types.ErrorKind, or zero for errors that
// did not originate as a *types.CoreError.
func (e *RPCError) Kind() types.ErrorKind {
	return e.kind
}

// Diagnostic returns the NoMatch diagnostic attached to the error, if
// any.
func (e *RPCError) Diagnostic() *types.Diagnostic {
	return e.diagnostic
}
