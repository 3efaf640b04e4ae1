// SPDX-License-Identifier: MIT

package middleware

import (
	"time"

	"github.com/go-chi/chi/v5"
)

// StackConfig configures the HTTP ingress middleware stack.
type StackConfig struct {
	// TracingService names the otelhttp server spans; empty disables tracing.
	TracingService string
	// RateLimit is requests per minute per client IP; 0 disables limiting.
	RateLimit int
	EnableGzip bool
}

// ApplyStack applies the middleware stack to r in order.
func ApplyStack(r chi.Router, cfg StackConfig) {
	// 1. Recoverer (outermost safety net)
	r.Use(Recoverer)
	// 2. RequestID (correlation early)
	r.Use(RequestID)
	r.Use(SecurityHeaders)
	r.Use(Metrics())
	if cfg.TracingService != "" {
		r.Use(OTelHTTP(cfg.TracingService))
	}
	// Logging wraps handlers so it sees full latency.
	r.Use(AccessLog)
	r.Use(RateLimit(RateLimitConfig{RequestLimit: cfg.RateLimit, WindowSize: time.Minute}))
	if cfg.EnableGzip {
		r.Use(Gzip)
	}
}
