// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package agenterr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wrenhollow/agentcore/pkg/types"
)

func TestFromCoreMapsKnownKindsToCodes(t *testing.T) {
	cases := []struct {
		kind types.ErrorKind
		code string
	}{
		{types.KindOutsideWorkspace, "-32001"},
		{types.KindNotFound, "-32002"},
		{types.KindBinaryFile, "-32003"},
		{types.KindInvalidUTF8, "-32004"},
		{types.KindNoMatch, "-32010"},
		{types.KindAmbiguous, "-32011"},
		{types.KindTimeout, "-32020"},
		{types.KindIO, "-32030"},
	}
	for _, c := range cases {
		ce := types.NewCoreError(c.kind, "detail")
		re := FromCore(ce)
		require.NotNil(t, re)
		assert.Equal(t, c.code, string(re.JSONRPCCode()), "kind %s", c.kind)
	}
}

func TestFromCoreUserMessageFamilies(t *testing.T) {
	ce := types.NewCoreError(types.KindNoMatch, "needle %q not found in %s", "x", "f.txt")
	re := FromCore(ce)
	assert.Equal(t, "old string not found in file", re.UserMessage())
	assert.Contains(t, re.Error(), "not found in f.txt")
}

func TestFromCorePreservesDiagnostic(t *testing.T) {
	diag := &types.Diagnostic{FilePath: "f.txt", SearchText: "x", ClosestMatch: "y", Similarity: 0.5}
	ce := &types.CoreError{Kind: types.KindNoMatch, Diagnostic: diag}
	re := FromCore(ce)
	require.NotNil(t, re.Diagnostic())
	assert.Equal(t, "f.txt", re.Diagnostic().FilePath)
}

func TestFromCoreNilReturnsNil(t *testing.T) {
	assert.Nil(t, FromCore(nil))
}

func TestFromCoreUnknownErrorMapsToInternal(t *testing.T) {
	re := FromCore(errors.New("boom"))
	require.NotNil(t, re)
	assert.Equal(t, string(CodeInternal), string(re.JSONRPCCode()))
	assert.Contains(t, re.Error(), "boom")
}

func TestFromCoreKindAccessor(t *testing.T) {
	ce := types.NewCoreError(types.KindAmbiguous, "2 matches")
	re := FromCore(ce)
	assert.Equal(t, types.KindAmbiguous, re.Kind())
}

func TestFromCoreUnwrapsToOriginalCoreError(t *testing.T) {
	ce := types.NewCoreError(types.KindNoMatch, "needle not found")
	re := FromCore(ce)

	var got *types.CoreError
	require.True(t, errors.As(re, &got))
	assert.Same(t, ce, got)
}
