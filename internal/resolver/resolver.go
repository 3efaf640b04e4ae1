// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package resolver turns a channel source reference into a playable address.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// ErrInvalidAddress is returned when a resolver produced output that is not an
// absolute http(s) URL.
var ErrInvalidAddress = errors.New("resolver returned an invalid address")

// Resolver derives the current playable address for a source reference. The
// deadline of ctx bounds the attempt.
type Resolver interface {
	Resolve(ctx context.Context, sourceRef string) (string, error)
}

// Func adapts a plain function to the Resolver interface.
type Func func(ctx context.Context, sourceRef string) (string, error)

// Resolve calls f.
func (f Func) Resolve(ctx context.Context, sourceRef string) (string, error) {
	return f(ctx, sourceRef)
}

// ValidateAddress trims raw and checks that it is an absolute http or https URL
// whose host is an IP literal or a valid (IDNA) domain name.
func ValidateAddress(raw string) (string, error) {
	addr := strings.TrimSpace(raw)
	if addr == "" {
		return "", fmt.Errorf("%w: empty output", ErrInvalidAddress)
	}
	u, err := url.Parse(addr)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidAddress, u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidAddress)
	}
	if net.ParseIP(host) == nil {
		if _, err := idna.Lookup.ToASCII(strings.TrimSuffix(host, ".")); err != nil {
			return "", fmt.Errorf("%w: invalid host %q: %v", ErrInvalidAddress, host, err)
		}
	}
	return addr, nil
}
