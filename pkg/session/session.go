// Package session holds the signed-in user's state for the dashboard: the
// bearer token issued by the farewell backend plus the profile fields every
// guard and the menu builder read. Exactly one session exists per browser
// profile; it is written at login, cleared at logout or whenever a guard or
// the backend gateway detects invalidity.
package session

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Session mirrors the profile payload returned by POST /v1/user/login.
type Session struct {
	Token       string `json:"token"`
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Nickname    string `json:"nickname"`
	IsAdmin     bool   `json:"is_admin"`
	IsSemiAdmin bool   `json:"is_semi_admin"`
}

var (
	ErrMalformedToken = errors.New("session: malformed token")
	ErrTokenExpired   = errors.New("session: token expired")
)

// TokenClaims is the subset of the token payload the dashboard inspects.
// The check is a cheap local pre-check only: the backend remains the
// authority and rejects revoked or forged tokens with a 401.
type TokenClaims struct {
	Sub string `json:"sub"`
	Exp int64  `json:"exp"`
}

// ParseToken decodes the middle segment of a JWT-shaped token. Anything that
// is not three base64url segments with a JSON payload is malformed.
func ParseToken(token string) (TokenClaims, error) {
	parts := strings.Split(strings.TrimSpace(token), ".")
	if len(parts) != 3 {
		return TokenClaims{}, ErrMalformedToken
	}
	payloadRaw, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		// Tokens minted by some backends pad the segments.
		payloadRaw, err = base64.URLEncoding.DecodeString(parts[1])
		if err != nil {
			return TokenClaims{}, ErrMalformedToken
		}
	}
	var claims TokenClaims
	if err := json.Unmarshal(payloadRaw, &claims); err != nil {
		return TokenClaims{}, ErrMalformedToken
	}
	return claims, nil
}

// CheckToken reports whether the session's token is well formed and, when an
// exp claim is present, not yet expired at now.
func (s *Session) CheckToken(now time.Time) error {
	if s == nil || strings.TrimSpace(s.Token) == "" {
		return ErrMalformedToken
	}
	claims, err := ParseToken(s.Token)
	if err != nil {
		return err
	}
	if claims.Exp != 0 && now.Unix() >= claims.Exp {
		return ErrTokenExpired
	}
	return nil
}
