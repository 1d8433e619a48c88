package session

import (
	"net/http"
	"time"
)

const (
	// SIDCookie carries the dashboard session ID.
	SIDCookie = "sid"
	// TokenCookie mirrors the backend bearer token so a request can still be
	// authenticated when the session record is gone but the token survives.
	TokenCookie = "token"
)

// SetCookies installs the session ID cookie and the token mirror.
func SetCookies(w http.ResponseWriter, sid, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SIDCookie,
		Value:    sid,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ExpireCookies removes both cookies by setting an already-past expiry.
func ExpireCookies(w http.ResponseWriter) {
	past := time.Unix(0, 0)
	for _, name := range []string{SIDCookie, TokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Expires:  past,
			MaxAge:   -1,
			HttpOnly: true,
		})
	}
}

// SIDFromRequest extracts the session ID cookie, empty when missing.
func SIDFromRequest(r *http.Request) string {
	c, err := r.Cookie(SIDCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

// TokenFromRequest returns the mirrored token cookie, empty when missing.
func TokenFromRequest(r *http.Request) string {
	c, err := r.Cookie(TokenCookie)
	if err != nil {
		return ""
	}
	return c.Value
}
