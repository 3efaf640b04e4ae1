// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ManuGH/streamcache/internal/log"
	"github.com/ManuGH/streamcache/internal/playlist"
)

// refreshRetryAfter is the Retry-After hint on 409, in seconds.
const refreshRetryAfter = 30

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{
		"message": "streamcache running",
		"version": s.deps.Version,
	})
}

func (s *Server) handlePlaylist(w http.ResponseWriter, r *http.Request) {
	items := playlist.FromEntries(s.deps.Reader.Entries(r.Context()))

	var buf bytes.Buffer
	if err := playlist.WriteM3U(&buf, items); err != nil {
		log.WithComponentFromContext(r.Context(), "api").Error().
			Err(err).
			Str(log.FieldEvent, "playlist.render_failed").
			Msg("failed to render playlist")
		http.Error(w, "playlist unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", playlist.ContentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.deps.Reader.Status(r.Context()))
}

func (s *Server) handleChannels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.deps.Reader.Entries(r.Context()))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "api")

	if !s.deps.Refresher.TriggerAsync("http") {
		logger.Warn().
			Str(log.FieldEvent, "refresh.conflict").
			Str("remote_addr", r.RemoteAddr).
			Msg("refresh already in progress")

		w.Header().Set("Retry-After", strconv.Itoa(refreshRetryAfter))
		writeJSON(w, r, http.StatusConflict, map[string]string{
			"error":  "conflict",
			"detail": "A refresh pass is already in progress",
		})
		return
	}

	logger.Info().
		Str(log.FieldEvent, "refresh.triggered").
		Str("remote_addr", r.RemoteAddr).
		Msg("refresh pass started via API")
	writeJSON(w, r, http.StatusAccepted, map[string]string{"status": "started"})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithComponentFromContext(r.Context(), "api").Debug().
			Err(err).
			Str(log.FieldEvent, "api.encode_error").
			Msg("failed to encode response")
	}
}
