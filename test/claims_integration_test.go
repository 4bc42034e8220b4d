//go:build integration
// +build integration

package test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"

	sessionkit "github.com/TransferAgent/sessionkit"
	"github.com/TransferAgent/sessionkit/credential"
)

// TestResumeReadsSignedCredentialExpiry hydrates a real signed JWT from the
// slot and checks the advisory claims peek surfaces its expiry. The client
// never verifies the signature; the platform does.
func TestResumeReadsSignedCredentialExpiry(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}

	now := time.Now()
	exp := now.Add(30 * time.Minute)
	token, err := gjwt.NewWithClaims(gjwt.SigningMethodEdDSA, gjwt.MapClaims{
		"uid": "u1",
		"tid": "t1",
		"iat": now.Unix(),
		"exp": exp.Unix(),
	}).SignedString(priv)
	if err != nil {
		t.Fatalf("sign token failed: %v", err)
	}

	ctx := context.Background()
	stub := newIdentityStub(t, time.Hour)
	stub.accept(token)

	rdb, cleanup := newIntegrationRedis(t)
	defer cleanup()

	const slotKey = "sessionkit:itest:claims"
	slot := credential.NewRedisSlot(rdb, slotKey)
	if err := slot.Store(ctx, token, time.Hour); err != nil {
		t.Fatalf("seed slot failed: %v", err)
	}

	client := newSessionClient(t, stub, rdb, slotKey)
	if err := client.Resume(ctx); err != nil {
		t.Fatalf("resume failed: %v", err)
	}

	report := client.Introspect()
	if !report.CredentialPresent {
		t.Fatal("expected a present credential after resume")
	}
	if report.CredentialExpiresAt.IsZero() {
		t.Fatal("expected parsed credential expiry")
	}
	if got := report.CredentialExpiresAt.Unix(); got != exp.Unix() {
		t.Fatalf("expected expiry %d, got %d", exp.Unix(), got)
	}
	if report.Phase != sessionkit.PhaseAuthenticated || report.UserID != "u1" {
		t.Fatalf("expected authenticated u1, got phase=%v user=%q", report.Phase, report.UserID)
	}
}
