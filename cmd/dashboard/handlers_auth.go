package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/prakasajudha/farewell-pet/pkg/backend"
	"github.com/prakasajudha/farewell-pet/pkg/flags"
	"github.com/prakasajudha/farewell-pet/pkg/guard"
	"github.com/prakasajudha/farewell-pet/pkg/httpx"
	"github.com/prakasajudha/farewell-pet/pkg/menu"
	"github.com/prakasajudha/farewell-pet/pkg/session"

	"github.com/google/uuid"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	From     string `json:"from,omitempty"`
}

type loginResponse struct {
	User     backend.User `json:"user"`
	Redirect string       `json:"redirect"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.RateLimiter != nil {
		d := s.RateLimiter.Allow("login:"+clientIP(r), s.LoginPerMinute)
		if !d.Allowed {
			s.Metrics.IncLogin("rate_limited")
			httpx.Error(w, http.StatusTooManyRequests, "Terlalu banyak percobaan login. Coba lagi nanti.")
			return
		}
	}
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := s.Backend.Login(r.Context(), backend.LoginRequest{Email: req.Email, Password: req.Password})
	if err != nil {
		if errors.Is(err, backend.ErrUnauthenticated) {
			s.Metrics.IncLogin("rejected")
			httpx.Error(w, http.StatusUnauthorized, "Email atau password salah.")
			return
		}
		s.Metrics.IncLogin("error")
		s.writeBackendError(w, r, err)
		return
	}

	sid := uuid.NewString()
	sess := session.Session{
		Token:       result.Token,
		UserID:      result.User.ID,
		Name:        result.User.Name,
		Nickname:    result.User.Nickname,
		IsAdmin:     result.User.IsAdmin,
		IsSemiAdmin: result.User.IsSemiAdmin,
	}
	if err := s.Sessions.Save(r.Context(), sid, sess); err != nil {
		s.Metrics.IncLogin("error")
		httpx.Error(w, http.StatusInternalServerError, "gagal menyimpan sesi")
		return
	}
	session.SetCookies(w, sid, result.Token, s.SessionTTL, s.CookieSecure)
	s.Metrics.IncLogin("ok")

	redirect := "/message"
	if from := strings.TrimSpace(req.From); strings.HasPrefix(from, "/") && !strings.HasPrefix(from, "//") {
		redirect = from
	}
	httpx.OK(w, "Login berhasil", loginResponse{User: result.User, Redirect: redirect})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sid := session.SIDFromRequest(r); sid != "" {
		_ = s.Sessions.Clear(r.Context(), sid)
	}
	session.ExpireCookies(w)
	httpx.OK(w, "Logout berhasil", map[string]string{"redirect": "/login"})
}

func (s *Server) handleUnauthorized(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, httpx.Envelope{
		Success: false,
		Message: "Anda tidak memiliki izin untuk mengakses halaman ini.",
		Data:    map[string]string{"redirect": "/message"},
	})
}

type shellResponse struct {
	User   shellUser   `json:"user"`
	Menu   []menu.Item `json:"menu"`
	Flags  flags.Set   `json:"flags"`
	Notice string      `json:"notice,omitempty"`
}

type shellUser struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Nickname    string `json:"nickname,omitempty"`
	IsAdmin     bool   `json:"is_admin"`
	IsSemiAdmin bool   `json:"is_semi_admin"`
}

// handleShell returns the profile and the navigation tree. Flags are
// resolved first so the menu is built from an already-loaded set; on
// resolver failure the menu falls back to all-flags-off with a notice
// rather than guessing a feature is enabled.
func (s *Server) handleShell(w http.ResponseWriter, r *http.Request) {
	sess, _ := guard.SessionFromContext(r.Context())
	set, notice := s.fetchFlags(r, sess)
	resp := shellResponse{
		User: shellUser{
			ID:          sess.UserID,
			Name:        sess.Name,
			Nickname:    sess.Nickname,
			IsAdmin:     sess.IsAdmin,
			IsSemiAdmin: sess.IsSemiAdmin,
		},
		Menu:   menu.Build(sess.IsAdmin, sess.IsSemiAdmin, set),
		Flags:  set,
		Notice: notice,
	}
	httpx.OK(w, "", resp)
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	sess, _ := guard.SessionFromContext(r.Context())
	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	msg, err := s.Backend.ChangePassword(r.Context(), sess.Token, backend.ChangePasswordRequest{
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		s.writeBackendError(w, r, err)
		return
	}
	if msg == "" {
		msg = "Password berhasil diubah"
	}
	httpx.OK(w, msg, nil)
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	sess, _ := guard.SessionFromContext(r.Context())
	users, err := s.Backend.ListUsers(r.Context(), sess.Token)
	if err != nil {
		s.writeBackendError(w, r, err)
		return
	}
	httpx.OK(w, "", users)
}

func (s *Server) handleUserDetails(w http.ResponseWriter, r *http.Request) {
	sess, _ := guard.SessionFromContext(r.Context())
	user, err := s.Backend.UserDetails(r.Context(), sess.Token, r.URL.Query().Get("user_id"))
	if err != nil {
		s.writeBackendError(w, r, err)
		return
	}
	httpx.OK(w, "", user)
}

func (s *Server) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	sess, _ := guard.SessionFromContext(r.Context())
	var req backend.RegisterUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := s.Backend.RegisterUser(r.Context(), sess.Token, req)
	if err != nil {
		s.writeBackendError(w, r, err)
		return
	}
	httpx.OK(w, "User berhasil didaftarkan", user)
}

// fetchFlags resolves a fresh flag snapshot for this request. On failure the
// returned set is empty (fail closed) and notice carries the user-facing
// warning.
func (s *Server) fetchFlags(r *http.Request, sess *session.Session) (flags.Set, string) {
	set, err := s.Flags.Fetch(r.Context(), sess.Token)
	if err != nil {
		s.Metrics.IncFlagFetch("error")
		log.Printf("flag fetch failed: %v", err)
		return flags.Set{}, "Gagal memuat konfigurasi sistem"
	}
	s.Metrics.IncFlagFetch("ok")
	return set, ""
}

// writeBackendError maps backend error classes onto the dashboard's global
// behavior: 401 clears the session and redirects to login, 403 redirects to
// the unauthorized page without clearing, 422 maps field errors, anything
// else passes through for page-level handling.
func (s *Server) writeBackendError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *backend.ValidationError
	var apiErr *backend.APIError
	switch {
	case errors.Is(err, backend.ErrUnauthenticated):
		s.Metrics.IncUpstreamError("unauthenticated")
		if sid := session.SIDFromRequest(r); sid != "" {
			_ = s.Sessions.Clear(r.Context(), sid)
		}
		session.ExpireCookies(w)
		redirect := "/login"
		if r.URL.Path == "/api/login" {
			redirect = ""
		}
		httpx.WriteJSON(w, http.StatusUnauthorized, httpx.Envelope{
			Success: false,
			Message: "Sesi Anda telah berakhir. Silakan login kembali.",
			Data:    map[string]string{"redirect": redirect},
		})
	case errors.Is(err, backend.ErrForbidden):
		s.Metrics.IncUpstreamError("forbidden")
		httpx.WriteJSON(w, http.StatusForbidden, httpx.Envelope{
			Success: false,
			Message: "Anda tidak memiliki izin untuk melakukan aksi ini.",
			Data:    map[string]string{"redirect": "/unauthorized"},
		})
	case errors.As(err, &vErr):
		s.Metrics.IncUpstreamError("validation")
		msg := vErr.Message
		if msg == "" {
			msg = "Validasi gagal"
		}
		httpx.WriteJSON(w, http.StatusUnprocessableEntity, httpx.Envelope{
			Success: false,
			Message: msg,
			Errors:  vErr.Fields,
		})
	case errors.As(err, &apiErr):
		s.Metrics.IncUpstreamError("api")
		msg := apiErr.Message
		if msg == "" {
			msg = "Permintaan gagal"
		}
		httpx.Error(w, apiErr.Status, msg)
	default:
		s.Metrics.IncUpstreamError("transport")
		log.Printf("backend call failed: %v", err)
		httpx.Error(w, http.StatusBadGateway, "Tidak dapat menghubungi server. Coba lagi nanti.")
	}
}
