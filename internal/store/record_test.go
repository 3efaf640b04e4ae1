// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestEncodeDecode_PreservesRecords(t *testing.T) {
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	in := Cache{
		"a": {ID: "a", Name: "A", SourceReference: "x", ResolvedAddress: strPtr("http://stream/a"), OK: true, UpdatedAt: ts},
		"b": {ID: "b", Name: "B", SourceReference: "y", Error: strPtr(CodeResolutionFailed), UpdatedAt: ts},
	}

	data, err := Encode(in)
	require.NoError(t, err)

	out, err := Decode(data)
	require.NoError(t, err)
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("Decode(Encode()) mismatch (-want +got):\n%s", diff)
	}
}

func TestEncode_Deterministic(t *testing.T) {
	c := Cache{
		"z": {ID: "z"},
		"a": {ID: "a"},
		"m": {ID: "m"},
	}
	first, err := Encode(c)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Encode(c.Clone())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestEncode_NullableFieldsAreExplicit(t *testing.T) {
	data, err := Encode(Cache{"b": {ID: "b"}})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"resolved_address": null`)
	assert.Contains(t, string(data), `"error": null`)
}

func TestDecode_LegacyBareMap(t *testing.T) {
	data := []byte(`{"a": {"id": "a", "name": "A", "resolved_address": "http://stream/a", "ok": true, "updated_at": "2025-01-01T00:00:00Z"}}`)

	out, err := Decode(data)
	require.NoError(t, err)
	require.Contains(t, out, "a")
	assert.True(t, out["a"].OK)
	assert.Equal(t, "http://stream/a", out["a"].Address())
}

func TestDecode_RestoresInvariants(t *testing.T) {
	data := []byte(`{"version": 1, "channels": {
		"a": {"id": "wrong", "ok": true, "resolved_address": null},
		"b": {"id": "b", "ok": true, "resolved_address": ""}
	}}`)

	out, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "a", out["a"].ID)
	assert.False(t, out["a"].OK, "ok without address must be cleared")
	assert.Nil(t, out["b"].ResolvedAddress)
	assert.False(t, out["b"].OK)
}

func TestDecode_Corrupt(t *testing.T) {
	tests := map[string]string{
		"truncated":      `{"version": 1, "channels": {"a": {"id": "a"`,
		"empty":          ``,
		"null":           `null`,
		"array":          `[1,2,3]`,
		"future version": `{"version": 99, "channels": {}}`,
		"wrong types":    `{"version": 1, "channels": {"a": {"ok": "yes"}}}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(body))
			require.Error(t, err)
			assert.ErrorIs(t, err, errCorrupt)
		})
	}
}

func TestRecordAccessors(t *testing.T) {
	r := Record{}
	assert.Equal(t, "", r.Address())
	assert.Equal(t, "", r.ErrorCode())

	r.ResolvedAddress = strPtr("http://x")
	r.Error = strPtr(CodeStaleKept)
	assert.Equal(t, "http://x", r.Address())
	assert.Equal(t, CodeStaleKept, r.ErrorCode())
}
