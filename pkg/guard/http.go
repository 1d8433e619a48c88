package guard

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/prakasajudha/farewell-pet/pkg/httpx"
	"github.com/prakasajudha/farewell-pet/pkg/session"
)

type contextKey string

const sessionContextKey contextKey = "farewell.session"

// WithSession attaches a granted session to the request context.
func WithSession(ctx context.Context, sess *session.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// SessionFromContext returns the session a guard granted, if any.
func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	v := ctx.Value(sessionContextKey)
	if v == nil {
		return nil, false
	}
	sess, ok := v.(*session.Session)
	return sess, ok
}

type denial struct {
	Redirect string `json:"redirect"`
	Reason   string `json:"reason"`
}

// Middleware evaluates a policy per request, loading the session from the
// store by cookie. The outcome is binary: the wrapped handler runs with the
// session in context, or the request ends with a redirect payload.
type Middleware struct {
	Sessions *session.Store
	// Observe, when set, receives every decision for metrics.
	Observe func(p Policy, d Decision)
	Now     func() time.Time
}

func (m *Middleware) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// Require wraps a route group with the given policy.
func (m *Middleware) Require(p Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := session.SIDFromRequest(r)
			var sess *session.Session
			if sid != "" {
				loaded, err := m.Sessions.Load(r.Context(), sid)
				if err == nil {
					sess = loaded
				}
			}
			if sess == nil {
				// The token mirror cookie alone carries no profile, so it
				// can never satisfy a protected policy; it only lets the
				// backend gateway answer with its own 401.
				if token := session.TokenFromRequest(r); token != "" {
					sess = &session.Session{Token: token}
				}
			}
			d := Evaluate(sess, m.now(), p)
			if m.Observe != nil {
				m.Observe(p, d)
			}
			switch d.State {
			case Granted:
				next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
			case DeniedUnauthenticated:
				if d.ClearSession && sid != "" {
					_ = m.Sessions.Clear(r.Context(), sid)
				}
				session.ExpireCookies(w)
				httpx.WriteJSON(w, http.StatusUnauthorized, httpx.Envelope{
					Success: false,
					Message: "Sesi Anda telah berakhir. Silakan login kembali.",
					Data:    denial{Redirect: loginRedirect(r), Reason: d.Reason},
				})
			case DeniedForbidden:
				httpx.WriteJSON(w, http.StatusForbidden, httpx.Envelope{
					Success: false,
					Message: "Anda tidak memiliki izin untuk mengakses halaman ini.",
					Data:    denial{Redirect: "/unauthorized", Reason: d.Reason},
				})
			}
		})
	}
}

// loginRedirect preserves the attempted path for an optional post-login return.
func loginRedirect(r *http.Request) string {
	from := r.URL.Path
	if from == "" || from == "/login" {
		return "/login"
	}
	return "/login?from=" + url.QueryEscape(from)
}
