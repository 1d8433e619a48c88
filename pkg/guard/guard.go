// Package guard decides, per navigation, whether a session may reach a
// route. One evaluator covers all four access policies; the outcome is
// binary: grant, or deny with a redirect target. A forbidden denial keeps
// the session; an unauthenticated denial always clears it.
package guard

import (
	"time"

	"github.com/prakasajudha/farewell-pet/pkg/session"
)

// Policy is the access requirement attached to a route group.
type Policy int

const (
	Public Policy = iota
	Authenticated
	AdminOnly
	AdminOrSemiAdmin
)

func (p Policy) String() string {
	switch p {
	case Public:
		return "public"
	case Authenticated:
		return "authenticated"
	case AdminOnly:
		return "admin_only"
	case AdminOrSemiAdmin:
		return "admin_or_semi_admin"
	default:
		return "unknown"
	}
}

// State is the outcome of evaluating a policy against a session.
type State int

const (
	Granted State = iota
	DeniedUnauthenticated
	DeniedForbidden
)

func (s State) String() string {
	switch s {
	case Granted:
		return "granted"
	case DeniedUnauthenticated:
		return "denied_unauthenticated"
	case DeniedForbidden:
		return "denied_forbidden"
	default:
		return "unknown"
	}
}

const (
	ReasonPublicRoute    = "PUBLIC_ROUTE"
	ReasonSessionOK      = "SESSION_OK"
	ReasonNoSession      = "NO_SESSION"
	ReasonBadToken       = "BAD_TOKEN"
	ReasonTokenExpired   = "TOKEN_EXPIRED"
	ReasonRoleForbidden  = "ROLE_FORBIDDEN"
	ReasonProfileMissing = "PROFILE_MISSING"
)

type Decision struct {
	State  State
	Reason string
	// ClearSession tells the caller to erase the stored session. Set only
	// on unauthenticated denials, never on forbidden ones.
	ClearSession bool
}

// Evaluate applies one policy to a session snapshot. The token check is
// local only (shape plus exp claim); the backend's 401 handling remains the
// second line of defense.
func Evaluate(sess *session.Session, now time.Time, p Policy) Decision {
	if p == Public {
		return Decision{State: Granted, Reason: ReasonPublicRoute}
	}
	if sess == nil {
		return Decision{State: DeniedUnauthenticated, Reason: ReasonNoSession, ClearSession: true}
	}
	if sess.UserID == "" {
		return Decision{State: DeniedUnauthenticated, Reason: ReasonProfileMissing, ClearSession: true}
	}
	if err := sess.CheckToken(now); err != nil {
		reason := ReasonBadToken
		if err == session.ErrTokenExpired {
			reason = ReasonTokenExpired
		}
		return Decision{State: DeniedUnauthenticated, Reason: reason, ClearSession: true}
	}
	switch p {
	case AdminOnly:
		if !sess.IsAdmin {
			return Decision{State: DeniedForbidden, Reason: ReasonRoleForbidden}
		}
	case AdminOrSemiAdmin:
		if !sess.IsAdmin && !sess.IsSemiAdmin {
			return Decision{State: DeniedForbidden, Reason: ReasonRoleForbidden}
		}
	}
	return Decision{State: Granted, Reason: ReasonSessionOK}
}
