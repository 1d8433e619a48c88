package guard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prakasajudha/farewell-pet/pkg/httpx"
	"github.com/prakasajudha/farewell-pet/pkg/session"
	"github.com/prakasajudha/farewell-pet/pkg/store"
)

func newMiddleware(t *testing.T) (*Middleware, *session.Store) {
	t.Helper()
	sessions := session.NewStore(store.NewMemoryKV(), time.Hour)
	return &Middleware{Sessions: sessions}, sessions
}

func seedSession(t *testing.T, sessions *session.Store, sid string, sess session.Session) {
	t.Helper()
	if err := sessions.Save(context.Background(), sid, sess); err != nil {
		t.Fatalf("seed session: %v", err)
	}
}

func requestWithSID(path, sid string) *http.Request {
	req := httptest.NewRequest("GET", path, nil)
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: session.SIDCookie, Value: sid})
	}
	return req
}

func TestRequireGrantedInjectsSession(t *testing.T) {
	m, sessions := newMiddleware(t)
	seedSession(t, sessions, "sid1", session.Session{
		Token:  tokenWithExp(time.Now().Add(time.Hour).Unix()),
		UserID: "u1",
	})
	var got *session.Session
	h := m.Require(Authenticated)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = SessionFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestWithSID("/message", "sid1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got == nil || got.UserID != "u1" {
		t.Fatalf("session not injected: %+v", got)
	}
}

func TestRequireUnauthenticatedClearsAndRedirects(t *testing.T) {
	m, sessions := newMiddleware(t)
	seedSession(t, sessions, "sid1", session.Session{Token: "malformed", UserID: "u1"})
	h := m.Require(Authenticated)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestWithSID("/message/list", "sid1"))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}

	var env httpx.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	data, _ := json.Marshal(env.Data)
	var d denial
	_ = json.Unmarshal(data, &d)
	if d.Redirect != "/login?from=%2Fmessage%2Flist" {
		t.Fatalf("redirect = %q", d.Redirect)
	}

	if _, err := sessions.Load(context.Background(), "sid1"); !errors.Is(err, session.ErrAbsent) {
		t.Fatalf("session should be cleared, got %v", err)
	}
	expired := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.SIDCookie && c.Expires.Before(time.Now()) {
			expired = true
		}
	}
	if !expired {
		t.Fatal("sid cookie should be expired")
	}
}

func TestRequireForbiddenKeepsSession(t *testing.T) {
	m, sessions := newMiddleware(t)
	seedSession(t, sessions, "sid1", session.Session{
		Token:  tokenWithExp(time.Now().Add(time.Hour).Unix()),
		UserID: "u1",
	})
	h := m.Require(AdminOnly)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestWithSID("/settings", "sid1"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d", rec.Code)
	}
	if _, err := sessions.Load(context.Background(), "sid1"); err != nil {
		t.Fatalf("forbidden must keep the session: %v", err)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.SIDCookie {
			t.Fatal("forbidden must not touch cookies")
		}
	}
}

func TestRequireTokenCookieAloneIsNotEnough(t *testing.T) {
	m, _ := newMiddleware(t)
	h := m.Require(Authenticated)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	req := httptest.NewRequest("GET", "/message", nil)
	req.AddCookie(&http.Cookie{
		Name:  session.TokenCookie,
		Value: tokenWithExp(time.Now().Add(time.Hour).Unix()),
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("token cookie without profile must deny, got %d", rec.Code)
	}
}

func TestObserveReceivesDecisions(t *testing.T) {
	m, _ := newMiddleware(t)
	var gotPolicy Policy
	var gotDecision Decision
	m.Observe = func(p Policy, d Decision) {
		gotPolicy = p
		gotDecision = d
	}
	h := m.Require(Authenticated)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), requestWithSID("/message", ""))
	if gotPolicy != Authenticated || gotDecision.State != DeniedUnauthenticated {
		t.Fatalf("observe got %v %+v", gotPolicy, gotDecision)
	}
}
