package session

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"
)

func makeToken(t *testing.T, claims map[string]interface{}) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	payloadRaw, err := json.Marshal(claims)
	if err != nil {
		t.Fatalf("marshal claims: %v", err)
	}
	payload := base64.RawURLEncoding.EncodeToString(payloadRaw)
	return fmt.Sprintf("%s.%s.%s", header, payload, base64.RawURLEncoding.EncodeToString([]byte("sig")))
}

func TestParseTokenMalformed(t *testing.T) {
	for _, token := range []string{
		"",
		"onlyonesegment",
		"two.segments",
		"a.b.c.d",
		"x.!!!notbase64!!!.y",
	} {
		if _, err := ParseToken(token); !errors.Is(err, ErrMalformedToken) {
			t.Fatalf("token %q: expected ErrMalformedToken, got %v", token, err)
		}
	}
}

func TestParseTokenNonJSONPayload(t *testing.T) {
	payload := base64.RawURLEncoding.EncodeToString([]byte("not json"))
	if _, err := ParseToken("h." + payload + ".s"); !errors.Is(err, ErrMalformedToken) {
		t.Fatalf("expected ErrMalformedToken, got %v", err)
	}
}

func TestParseTokenExtractsExp(t *testing.T) {
	token := makeToken(t, map[string]interface{}{"sub": "u1", "exp": 1700000000})
	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.Sub != "u1" || claims.Exp != 1700000000 {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseTokenPaddedSegments(t *testing.T) {
	payload := base64.URLEncoding.EncodeToString([]byte(`{"sub":"u1"}`))
	if _, err := ParseToken("h." + payload + ".s"); err != nil {
		t.Fatalf("padded payload should parse: %v", err)
	}
}

func TestCheckTokenExpired(t *testing.T) {
	now := time.Now()
	sess := &Session{Token: makeToken(t, map[string]interface{}{"exp": now.Add(-time.Minute).Unix()})}
	if err := sess.CheckToken(now); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestCheckTokenFuture(t *testing.T) {
	now := time.Now()
	sess := &Session{Token: makeToken(t, map[string]interface{}{"exp": now.Add(time.Hour).Unix()})}
	if err := sess.CheckToken(now); err != nil {
		t.Fatalf("future exp should pass: %v", err)
	}
}

func TestCheckTokenNoExpClaim(t *testing.T) {
	sess := &Session{Token: makeToken(t, map[string]interface{}{"sub": "u1"})}
	if err := sess.CheckToken(time.Now()); err != nil {
		t.Fatalf("missing exp should pass the local check: %v", err)
	}
}

func TestCheckTokenEmpty(t *testing.T) {
	sess := &Session{}
	if err := sess.CheckToken(time.Now()); !errors.Is(err, ErrMalformedToken) {
		t.Fatalf("expected ErrMalformedToken, got %v", err)
	}
	var nilSess *Session
	if err := nilSess.CheckToken(time.Now()); !errors.Is(err, ErrMalformedToken) {
		t.Fatalf("nil session: expected ErrMalformedToken, got %v", err)
	}
}
