//go:build integration
// +build integration

package test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	sessionkit "github.com/TransferAgent/sessionkit"
	"github.com/TransferAgent/sessionkit/access"
)

const (
	testIdentifier = "alice@example.com"
	testSecret     = "correct-horse-staple-9"
	cookieName     = "ta_refresh"
)

// identityStub is a compact identity backend for the integration suite.
// Access tokens are opaque and expire after ttl.
type identityStub struct {
	srv *httptest.Server
	ttl time.Duration

	mu            sync.Mutex
	seq           int
	expiry        map[string]time.Time
	refreshSecret string

	refreshDelay time.Duration
	refreshCalls atomic.Int32
}

func newIdentityStub(t *testing.T, ttl time.Duration) *identityStub {
	t.Helper()

	s := &identityStub{
		ttl:    ttl,
		expiry: make(map[string]time.Time),
	}

	acme := map[string]string{"id": "t1", "name": "Acme Transfer", "slug": "acme", "status": "active"}
	beta := map[string]string{"id": "t2", "name": "Beta Holdings", "slug": "beta", "status": "active"}

	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Identifier string `json:"identifier"`
			Secret     string `json:"secret"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
			req.Identifier != testIdentifier || req.Secret != testSecret {
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "identifier or password incorrect")
			return
		}
		s.grant(w)
	})

	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		if s.refreshDelay > 0 {
			time.Sleep(s.refreshDelay)
		}
		s.refreshCalls.Add(1)
		cookie, err := r.Cookie(cookieName)
		s.mu.Lock()
		current := s.refreshSecret
		s.mu.Unlock()
		if err != nil || cookie.Value != current {
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "refresh rejected")
			return
		}
		s.grant(w)
	})

	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		if !s.bearerOK(r) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "token expired")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"id":         "u1",
			"email":      testIdentifier,
			"first_name": "Alice",
			"last_name":  "Ngo",
		})
	})

	mux.HandleFunc("GET /tenants/context", func(w http.ResponseWriter, r *http.Request) {
		if !s.bearerOK(r) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "token expired")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"current_tenant": acme,
			"current_role":   "tenant_admin",
			"available_tenants": []map[string]interface{}{
				{"tenant": acme, "role": "tenant_admin"},
				{"tenant": beta, "role": "shareholder"},
			},
		})
	})

	mux.HandleFunc("GET /billing/features", func(w http.ResponseWriter, r *http.Request) {
		if !s.bearerOK(r) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "token expired")
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{
			access.FeatureCertificateManagement: true,
		})
	})

	mux.HandleFunc("GET /api/ping", func(w http.ResponseWriter, r *http.Request) {
		if !s.bearerOK(r) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "token expired")
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	s.srv = httptest.NewServer(mux)
	t.Cleanup(s.srv.Close)

	return s
}

func (s *identityStub) base() string { return s.srv.URL }

func (s *identityStub) issue() (token, secret string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	token = fmt.Sprintf("tok-%d", s.seq)
	s.expiry[token] = time.Now().Add(s.ttl)
	s.refreshSecret = fmt.Sprintf("rt-%d", s.seq)
	return token, s.refreshSecret
}

// accept marks an externally minted token as valid, so tests can hydrate
// credentials the stub never issued.
func (s *identityStub) accept(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expiry[token] = time.Now().Add(s.ttl)
}

func (s *identityStub) revokeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expiry = make(map[string]time.Time)
}

func (s *identityStub) bearerOK(r *http.Request) bool {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.expiry[token]
	return ok && time.Now().Before(exp)
}

func (s *identityStub) grant(w http.ResponseWriter) {
	token, secret := s.issue()
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    secret,
		Path:     "/",
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"access_token": token,
		"user": map[string]string{
			"id":         "u1",
			"email":      testIdentifier,
			"first_name": "Alice",
			"last_name":  "Ngo",
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    code,
		"message": message,
	})
}

func newIntegrationRedis(t *testing.T) (redis.UniversalClient, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return rdb, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

func newSessionClient(t *testing.T, stub *identityStub, rdb redis.UniversalClient, slotKey string) *sessionkit.Client {
	t.Helper()

	cfg := sessionkit.Config{
		Service: sessionkit.ServiceConfig{
			BaseURL:        stub.base(),
			UserAgent:      "sessionkit-itest/1",
			RequestTimeout: 5 * time.Second,
		},
		Credential: sessionkit.CredentialConfig{
			SlotKey: slotKey,
			SlotTTL: time.Hour,
		},
		MFA: sessionkit.MFAConfig{CodeDigits: 6},
		Metrics: sessionkit.MetricsConfig{
			Enabled: true,
		},
	}

	client, err := sessionkit.New().WithConfig(cfg).WithRedis(rdb).Build()
	if err != nil {
		t.Fatalf("build client failed: %v", err)
	}
	t.Cleanup(client.Close)

	return client
}

// ping issues a protected request through the client's refreshing pipeline.
func ping(ctx context.Context, client *sessionkit.Client, base string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/api/ping", nil)
	if err != nil {
		return err
	}
	resp, err := client.HTTPClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}
