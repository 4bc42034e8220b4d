package claims

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func mintToken(t *testing.T, claimSet jwt.MapClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claimSet)
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signing test token failed: %v", err)
	}
	return signed
}

func TestParseReadsScheduleAndHints(t *testing.T) {
	exp := time.Now().Add(15 * time.Minute).Truncate(time.Second)
	iat := time.Now().Truncate(time.Second)
	token := mintToken(t, jwt.MapClaims{
		"uid": "u-1",
		"tid": "t-9",
		"sid": "s-3",
		"exp": exp.Unix(),
		"iat": iat.Unix(),
	})

	p, err := Parse(token)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if p.UserID != "u-1" || p.TenantID != "t-9" || p.SessionID != "s-3" {
		t.Fatalf("unexpected hints: %+v", p)
	}
	if !p.ExpiresAt.Equal(exp) {
		t.Fatalf("ExpiresAt = %v; want %v", p.ExpiresAt, exp)
	}
	if !p.IssuedAt.Equal(iat) {
		t.Fatalf("IssuedAt = %v; want %v", p.IssuedAt, iat)
	}
}

func TestParseFallsBackToSubject(t *testing.T) {
	token := mintToken(t, jwt.MapClaims{"sub": "u-sub"})

	p, err := Parse(token)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if p.UserID != "u-sub" {
		t.Fatalf("UserID = %q; want u-sub", p.UserID)
	}
	if !p.ExpiresAt.IsZero() {
		t.Fatalf("absent exp must read as zero, got %v", p.ExpiresAt)
	}
}

func TestParseRejectsOpaqueTokens(t *testing.T) {
	if _, err := Parse("not-a-jwt"); !errors.Is(err, ErrUnreadable) {
		t.Fatalf("Parse error = %v; want ErrUnreadable", err)
	}
	if _, err := Parse(""); !errors.Is(err, ErrUnreadable) {
		t.Fatalf("Parse error for empty token = %v; want ErrUnreadable", err)
	}
}

func TestExpiresWithin(t *testing.T) {
	now := time.Now()
	soon := mintToken(t, jwt.MapClaims{"exp": now.Add(20 * time.Second).Unix()})
	later := mintToken(t, jwt.MapClaims{"exp": now.Add(10 * time.Minute).Unix()})
	noExp := mintToken(t, jwt.MapClaims{"uid": "u"})

	if !ExpiresWithin(soon, time.Minute, now) {
		t.Fatal("token expiring in 20s is within a 1m window")
	}
	if ExpiresWithin(later, time.Minute, now) {
		t.Fatal("token expiring in 10m is not within a 1m window")
	}
	if ExpiresWithin(noExp, time.Minute, now) {
		t.Fatal("token without exp must not report a schedule")
	}
	if ExpiresWithin("opaque-credential", time.Minute, now) {
		t.Fatal("opaque token must not report a schedule")
	}
	if ExpiresWithin(soon, 0, now) {
		t.Fatal("zero window disables the check")
	}
}
