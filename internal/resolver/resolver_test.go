// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package resolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "https", in: "https://cdn.example/live/index.m3u8", want: "https://cdn.example/live/index.m3u8"},
		{name: "http trimmed", in: "  http://stream/a \n", want: "http://stream/a"},
		{name: "empty", in: "", wantErr: true},
		{name: "whitespace only", in: " \n\t", wantErr: true},
		{name: "relative path", in: "/live/index.m3u8", wantErr: true},
		{name: "rtmp scheme", in: "rtmp://host/live", wantErr: true},
		{name: "missing host", in: "http:///path", wantErr: true},
		{name: "error text", in: "ERROR: video unavailable", wantErr: true},
		{name: "ipv6 literal", in: "http://[::1]:8080/live", want: "http://[::1]:8080/live"},
		{name: "unicode host", in: "https://bücher.example/live", want: "https://bücher.example/live"},
		{name: "hyphen label", in: "https://-cdn-.example/live", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateAddress(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidAddress)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "http://video", firstLine("\n  http://video\nhttp://audio\n"))
	assert.Equal(t, "", firstLine(""))
}

func TestWithRateLimit_ZeroIsPassthrough(t *testing.T) {
	base := Func(func(context.Context, string) (string, error) { return "http://x", nil })
	r := WithRateLimit(base, 0)
	_, isLimited := r.(*RateLimited)
	assert.False(t, isLimited)
}

func TestWithRateLimit_SpacesCalls(t *testing.T) {
	calls := 0
	base := Func(func(context.Context, string) (string, error) {
		calls++
		return "http://x", nil
	})
	r := WithRateLimit(base, 20) // one token every 50ms

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := r.Resolve(context.Background(), "ref")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, calls)
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestWithRateLimit_WaitHonoursContext(t *testing.T) {
	base := Func(func(context.Context, string) (string, error) { return "http://x", nil })
	r := WithRateLimit(base, 0.001)

	_, err := r.Resolve(context.Background(), "ref") // consumes the burst token
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = r.Resolve(ctx, "ref")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidAddress))
}
