package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestRequestJSONSetsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("content type = %q", r.Header.Get("Content-Type"))
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	status, _, err := RequestJSON(context.Background(), srv.Client(), http.MethodPost, srv.URL, []byte(`{}`),
		map[string]string{"Authorization": "Bearer tok"}, 0, 0)
	if err != nil || status != http.StatusOK {
		t.Fatalf("status=%d err=%v", status, err)
	}
}

func TestRequestJSONRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	status, body, err := RequestJSON(context.Background(), srv.Client(), http.MethodGet, srv.URL, nil, nil, 2, time.Millisecond)
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if string(body) != `{"ok":true}` {
		t.Fatalf("body = %s", body)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("calls = %d", calls)
	}
}

func TestRequestJSONDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	status, _, err := RequestJSON(context.Background(), srv.Client(), http.MethodGet, srv.URL, nil, nil, 3, time.Millisecond)
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if status != http.StatusUnauthorized {
		t.Fatalf("status = %d", status)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("4xx must not be retried, calls = %d", calls)
	}
}

func TestRequestJSONExhaustsRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	status, _, err := RequestJSON(context.Background(), srv.Client(), http.MethodGet, srv.URL, nil, nil, 2, time.Millisecond)
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if status != http.StatusInternalServerError {
		t.Fatalf("final status = %d", status)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestRequestJSONTransportError(t *testing.T) {
	client := &http.Client{Timeout: 50 * time.Millisecond}
	_, _, err := RequestJSON(context.Background(), client, http.MethodGet, "http://127.0.0.1:1", nil, nil, 1, time.Millisecond)
	if err == nil {
		t.Fatal("expected a transport error")
	}
}
