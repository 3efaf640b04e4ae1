// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package channels

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupe_LastWinsAtFirstPosition(t *testing.T) {
	in := []Channel{
		{ID: "a", Name: "A1", SourceReference: "x1"},
		{ID: "b", Name: "B", SourceReference: "y"},
		{ID: "a", Name: "A2", SourceReference: "x2"},
		{ID: "a", Name: "A3", SourceReference: "x3"},
	}

	out, dups := Dedupe(in)

	assert.Equal(t, []Channel{
		{ID: "a", Name: "A3", SourceReference: "x3"},
		{ID: "b", Name: "B", SourceReference: "y"},
	}, out)
	assert.Equal(t, []string{"a"}, dups)
}

func TestDedupe_NoDuplicates(t *testing.T) {
	in := []Channel{{ID: "a"}, {ID: "b"}}
	out, dups := Dedupe(in)
	assert.Equal(t, in, out)
	assert.Empty(t, dups)
}
