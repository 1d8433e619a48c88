package main

import (
	"encoding/json"
	"net/http"

	"github.com/prakasajudha/farewell-pet/pkg/flags"
	"github.com/prakasajudha/farewell-pet/pkg/guard"
	"github.com/prakasajudha/farewell-pet/pkg/httpx"
)

// handleGetSettings returns the raw configuration list so the settings page
// can render every switch, known codes and unknown ones alike.
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	sess, _ := guard.SessionFromContext(r.Context())
	entries, err := s.Backend.Configuration(r.Context(), sess.Token)
	if err != nil {
		s.writeBackendError(w, r, err)
		return
	}
	httpx.OK(w, "", entries)
}

type updateSettingRequest struct {
	Code     string `json:"code"`
	IsActive bool   `json:"is_active"`
}

// handleUpdateSettings toggles one flag. The backend echoes the result
// through its envelope message; the fresh configuration list is returned so
// the page state matches what was persisted.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	sess, _ := guard.SessionFromContext(r.Context())
	var req updateSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Code == "" {
		httpx.WriteJSON(w, http.StatusUnprocessableEntity, httpx.Envelope{
			Success: false,
			Message: "Validasi gagal",
			Errors:  []httpx.FieldError{{Field: "code", Message: "Kode konfigurasi wajib diisi"}},
		})
		return
	}
	msg, err := s.Backend.UpdateConfiguration(r.Context(), sess.Token, flags.Entry{Code: req.Code, IsActive: req.IsActive})
	if err != nil {
		s.writeBackendError(w, r, err)
		return
	}
	if msg == "" {
		msg = "Konfigurasi berhasil diupdate"
	}
	entries, err := s.Backend.Configuration(r.Context(), sess.Token)
	if err != nil {
		// The toggle itself succeeded; report it even if the re-read failed.
		httpx.OK(w, msg, nil)
		return
	}
	httpx.OK(w, msg, entries)
}
