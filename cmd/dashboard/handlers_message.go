package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/prakasajudha/farewell-pet/pkg/backend"
	"github.com/prakasajudha/farewell-pet/pkg/flags"
	"github.com/prakasajudha/farewell-pet/pkg/guard"
	"github.com/prakasajudha/farewell-pet/pkg/httpx"

	"github.com/go-chi/chi/v5"
)

const maxMessageChars = 240

type gatedMessages struct {
	Enabled  bool              `json:"enabled"`
	Messages []backend.Message `json:"messages,omitempty"`
	Notice   string            `json:"notice,omitempty"`
}

// handlePublicMessages lists public messages when SHOW_ALL_MESSAGE is on.
func (s *Server) handlePublicMessages(w http.ResponseWriter, r *http.Request) {
	s.gatedMessageList(w, r, flags.ShowAllMessage, s.Backend.PublicMessages)
}

// handleMyMessages lists messages addressed to the caller, gated on
// SHOW_INDIVIDUAL_MESSAGE.
func (s *Server) handleMyMessages(w http.ResponseWriter, r *http.Request) {
	s.gatedMessageList(w, r, flags.ShowIndividualMessage, s.Backend.MyMessages)
}

// gatedMessageList resolves a fresh flag snapshot, branches on the flag and
// only then fetches data, mirroring the page-level sequencing: flags first,
// data second. A resolver failure hides the list (fail closed).
func (s *Server) gatedMessageList(w http.ResponseWriter, r *http.Request, code flags.Code, fetch func(ctx context.Context, token string) ([]backend.Message, error)) {
	sess, _ := guard.SessionFromContext(r.Context())
	set, notice := s.fetchFlags(r, sess)
	if !set.Enabled(code) {
		httpx.OK(w, "", gatedMessages{Enabled: false, Notice: notice})
		return
	}
	messages, err := fetch(r.Context(), sess.Token)
	if err != nil {
		s.writeBackendError(w, r, err)
		return
	}
	httpx.OK(w, "", gatedMessages{Enabled: true, Messages: messages})
}

type sendMessageRequest struct {
	RecipientTo string `json:"recipient_to"`
	IsPrivate   bool   `json:"is_private"`
	Message     string `json:"message"`
}

type sendMessageResponse struct {
	Message backend.Message       `json:"message"`
	Stats   *backend.MessageStats `json:"stats,omitempty"`
}

// handleSendMessage validates like the form does before its confirmation
// dialog and re-checks the self-send rule at submit time, since the session
// state can change between opening the dialog and confirming it.
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	sess, _ := guard.SessionFromContext(r.Context())
	set, notice := s.fetchFlags(r, sess)
	if !set.Enabled(flags.SendMessage) {
		msg := "Fitur kirim pesan sedang tidak aktif."
		if notice != "" {
			msg = notice
		}
		httpx.Error(w, http.StatusForbidden, msg)
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Message = strings.TrimSpace(req.Message)

	var fieldErrs []httpx.FieldError
	if req.RecipientTo == "" {
		fieldErrs = append(fieldErrs, httpx.FieldError{Field: "recipient_to", Message: "Pilih penerima pesan"})
	} else if req.RecipientTo == sess.UserID {
		// Confirmed sends are rejected here too: forcing the confirm
		// client-side must not slip a self-send through.
		fieldErrs = append(fieldErrs, httpx.FieldError{Field: "recipient_to", Message: "Tidak bisa mengirim pesan ke diri sendiri"})
	}
	if req.Message == "" {
		fieldErrs = append(fieldErrs, httpx.FieldError{Field: "message", Message: "Pesan tidak boleh kosong"})
	} else if len([]rune(req.Message)) > maxMessageChars {
		fieldErrs = append(fieldErrs, httpx.FieldError{Field: "message", Message: "Pesan maksimal 240 karakter"})
	}
	if len(fieldErrs) > 0 {
		httpx.WriteJSON(w, http.StatusUnprocessableEntity, httpx.Envelope{
			Success: false,
			Message: "Validasi gagal",
			Errors:  fieldErrs,
		})
		return
	}

	sent, msg, err := s.Backend.SendMessage(r.Context(), sess.Token, backend.SendMessageRequest{
		RecipientTo: req.RecipientTo,
		IsPrivate:   req.IsPrivate,
		Message:     req.Message,
	})
	if err != nil {
		s.writeBackendError(w, r, err)
		return
	}
	if msg == "" {
		msg = "Pesan berhasil dikirim!"
	}

	// Stats refresh after a send is best-effort: a failure is logged and
	// the send still reports success.
	resp := sendMessageResponse{Message: sent}
	if stats, statsErr := s.Backend.Stats(r.Context(), sess.Token); statsErr != nil {
		log.Printf("stats refresh after send failed: %v", statsErr)
	} else {
		resp.Stats = &stats
	}
	httpx.OK(w, msg, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	sess, _ := guard.SessionFromContext(r.Context())
	stats, err := s.Backend.Stats(r.Context(), sess.Token)
	if err != nil {
		s.writeBackendError(w, r, err)
		return
	}
	httpx.OK(w, "", stats)
}

type gatedLeaderboard struct {
	Enabled bool                       `json:"enabled"`
	Entries []backend.LeaderboardEntry `json:"entries,omitempty"`
	Notice  string                     `json:"notice,omitempty"`
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	sess, _ := guard.SessionFromContext(r.Context())
	set, notice := s.fetchFlags(r, sess)
	if !set.Enabled(flags.ShowLeaderBoard) {
		httpx.OK(w, "", gatedLeaderboard{Enabled: false, Notice: notice})
		return
	}
	entries, err := s.Backend.Leaderboard(r.Context(), sess.Token)
	if err != nil {
		s.writeBackendError(w, r, err)
		return
	}
	httpx.OK(w, "", gatedLeaderboard{Enabled: true, Entries: entries})
}

func (s *Server) handleFavoriteMessages(w http.ResponseWriter, r *http.Request) {
	sess, _ := guard.SessionFromContext(r.Context())
	messages, err := s.Backend.FavoriteMessages(r.Context(), sess.Token)
	if err != nil {
		s.writeBackendError(w, r, err)
		return
	}
	httpx.OK(w, "", messages)
}

func (s *Server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	sess, _ := guard.SessionFromContext(r.Context())
	messageID := chi.URLParam(r, "message_id")
	if messageID == "" {
		httpx.Error(w, http.StatusBadRequest, "message_id is required")
		return
	}
	result, err := s.Backend.ToggleFavorite(r.Context(), sess.Token, messageID)
	if err != nil {
		s.writeBackendError(w, r, err)
		return
	}
	httpx.OK(w, "", result)
}
