package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	sessionkit "github.com/TransferAgent/sessionkit"
	"github.com/TransferAgent/sessionkit/access"
)

const (
	loadIdentifier = "load@example.com"
	loadSecret     = "load-test-secret"
	cookieName     = "ta_refresh"
)

// identityStub is a minimal in-process identity service. Access tokens are
// opaque and expire after ttl, which is what forces the client through its
// refresh path under load.
type identityStub struct {
	ttl time.Duration

	mu            sync.Mutex
	seq           int
	expiry        map[string]time.Time
	refreshSecret string

	refreshCalls   atomic.Int64
	protectedCalls atomic.Int64
	rejected       atomic.Int64
}

func newIdentityStub(ttl time.Duration) *identityStub {
	return &identityStub{
		ttl:    ttl,
		expiry: make(map[string]time.Time),
	}
}

func (s *identityStub) issue() (token, secret string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	token = fmt.Sprintf("tok-%d", s.seq)
	s.expiry[token] = time.Now().Add(s.ttl)
	s.refreshSecret = fmt.Sprintf("rt-%d", s.seq)
	return token, s.refreshSecret
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
			"email":      loadIdentifier,
			"first_name": "Load",
			"last_name":  "Tester",
		},
	})
}

func (s *identityStub) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Identifier string `json:"identifier"`
			Secret     string `json:"secret"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
			req.Identifier != loadIdentifier || req.Secret != loadSecret {
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "identifier or password incorrect")
			return
		}
		s.grant(w)
	})

	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
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

	mux.HandleFunc("GET /tenants/context", func(w http.ResponseWriter, r *http.Request) {
		if !s.bearerOK(r) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "token expired")
			return
		}
		tenant := map[string]string{"id": "t1", "name": "Load Tenant", "slug": "load", "status": "active"}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"current_tenant": tenant,
			"current_role":   "tenant_admin",
			"available_tenants": []map[string]interface{}{
				{"tenant": tenant, "role": "tenant_admin"},
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
			access.FeatureEmailInvitations:      true,
		})
	})

	mux.HandleFunc("GET /api/ping", func(w http.ResponseWriter, r *http.Request) {
		s.protectedCalls.Add(1)
		if !s.bearerOK(r) {
			s.rejected.Add(1)
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "token expired")
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	return mux
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

func main() {
	var (
		workers   = flag.Int("workers", 64, "number of concurrent workers")
		ops       = flag.Int("ops", 100000, "protected requests to issue")
		tokenTTL  = flag.Duration("token-ttl", 150*time.Millisecond, "access token lifetime on the stub service")
		redisAddr = flag.String("redis-addr", "", "redis address for the credential slot; if empty, REDIS_ADDR env or miniredis is used")
		slotKey   = flag.String("slot-key", "sessionkit:loadtest", "credential slot key")
	)
	flag.Parse()

	if *workers <= 0 || *ops <= 0 || *tokenTTL <= 0 {
		fmt.Fprintln(os.Stderr, "workers, ops, and token-ttl must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		rdb     redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		rdb = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = rdb.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		rdb = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = rdb.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	stub := newIdentityStub(*tokenTTL)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		fmt.Fprintf(os.Stderr, "listen failed: %v\n", err)
		os.Exit(1)
	}
	srv := &http.Server{Handler: stub.handler()}
	go func() { _ = srv.Serve(ln) }()
	defer srv.Close()

	base := "http://" + ln.Addr().String()
	fmt.Printf("stub identity service at %s, token ttl %s\n", base, *tokenTTL)

	cfg := sessionkit.Config{
		Service: sessionkit.ServiceConfig{
			BaseURL:        base,
			UserAgent:      "sessionkit-loadtest/1",
			RequestTimeout: 10 * time.Second,
		},
		Credential: sessionkit.CredentialConfig{
			SlotKey: *slotKey,
			SlotTTL: time.Hour,
		},
		MFA: sessionkit.MFAConfig{CodeDigits: 6},
		Metrics: sessionkit.MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}

	for _, w := range cfg.Lint() {
		fmt.Printf("config lint: [%s] %s: %s\n", w.Severity, w.Code, w.Message)
	}

	client, err := sessionkit.New().WithConfig(cfg).WithRedis(rdb).Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build client failed: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	if _, err := client.Login(ctx, sessionkit.LoginInput{
		Identifier: loadIdentifier,
		Secret:     loadSecret,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "login failed: %v\n", err)
		os.Exit(1)
	}

	stats := runRequestPhase(ctx, client.HTTPClient(), base, *ops, *workers)

	if err := client.Logout(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "logout failed: %v\n", err)
	}

	snap := client.MetricsSnapshot()
	windows := int64(stats.total / *tokenTTL)

	fmt.Println("---- results ----")
	printStats("requests", stats)
	fmt.Printf("refresh: server_exchanges=%d client_success=%d coalesced=%d replays=%d\n",
		stub.refreshCalls.Load(),
		snap.Counters[sessionkit.MetricRefreshSuccess],
		snap.Counters[sessionkit.MetricRefreshCoalesced],
		snap.Counters[sessionkit.MetricRequestRetried],
	)
	fmt.Printf("server: protected_calls=%d expired_rejections=%d expiry_windows=~%d\n",
		stub.protectedCalls.Load(),
		stub.rejected.Load(),
		windows,
	)
}

func runRequestPhase(ctx context.Context, hc *http.Client, base string, ops, workers int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := ping(ctx, hc, base)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

func ping(ctx context.Context, hc *http.Client, base string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/api/ping", nil)
	if err != nil {
		return err
	}
	resp, err := hc.Do(req)
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

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
