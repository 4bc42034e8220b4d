package claims

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnreadable is returned when a token cannot be parsed at all. Opaque
// (non-JWT) credentials are legal; callers treat unreadable tokens as having
// no known schedule.
var ErrUnreadable = errors.New("token claims unreadable")

// Peek is the advisory subset of claims the client reads without
// verification. Zero times mean the claim was absent.
type Peek struct {
	UserID    string
	TenantID  string
	SessionID string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

type accessClaims struct {
	UID string `json:"uid,omitempty"`
	TID string `json:"tid,omitempty"`
	SID string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

var parser = jwt.NewParser()

// Parse reads the token's claims without verifying its signature.
func Parse(token string) (Peek, error) {
	var ac accessClaims
	if _, _, err := parser.ParseUnverified(token, &ac); err != nil {
		return Peek{}, errors.Join(ErrUnreadable, err)
	}

	p := Peek{
		UserID:    ac.UID,
		TenantID:  ac.TID,
		SessionID: ac.SID,
	}
	if p.UserID == "" && ac.Subject != "" {
		p.UserID = ac.Subject
	}
	if ac.ExpiresAt != nil {
		p.ExpiresAt = ac.ExpiresAt.Time
	}
	if ac.IssuedAt != nil {
		p.IssuedAt = ac.IssuedAt.Time
	}
	return p, nil
}

// ExpiresWithin reports whether the token is known to expire within the
// window after now. Unreadable tokens and tokens without an exp claim report
// false: with no schedule to go on, the client falls back to reacting to 401.
func ExpiresWithin(token string, window time.Duration, now time.Time) bool {
	if window <= 0 {
		return false
	}
	p, err := Parse(token)
	if err != nil || p.ExpiresAt.IsZero() {
		return false
	}
	return !p.ExpiresAt.After(now.Add(window))
}
