package wire

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
)

func newWireClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()

	hc := srv.Client()
	c, err := New(srv.URL, hc, hc, "sessionkit-test/1.0")
	if err != nil {
		t.Fatalf("wire.New failed: %v", err)
	}
	return c
}

func TestNewValidatesBaseURL(t *testing.T) {
	hc := &http.Client{}
	if _, err := New("", hc, hc, ""); err == nil {
		t.Fatal("empty base URL must be rejected")
	}
	if _, err := New("/relative", hc, hc, ""); err == nil {
		t.Fatal("relative base URL must be rejected")
	}
	if _, err := New("https://api.example.com", nil, hc, ""); err == nil {
		t.Fatal("nil direct client must be rejected")
	}
}

func TestLoginDecodesGrantAndStampsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected call: %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get(HeaderRequestID) == "" {
			t.Error("missing request ID header")
		}
		if r.Header.Get("User-Agent") != "sessionkit-test/1.0" {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode login request: %v", err)
		}
		if req.Identifier != "a@x.com" {
			t.Errorf("identifier = %q", req.Identifier)
		}
		json.NewEncoder(w).Encode(SessionGrant{
			AccessToken: "tok-1",
			User:        &User{ID: "u1", Email: "a@x.com"},
		})
	}))
	defer srv.Close()

	grant, err := newWireClient(t, srv).Login(context.Background(), LoginRequest{
		Identifier: "a@x.com",
		Secret:     "pw",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if grant.AccessToken != "tok-1" || grant.User == nil || grant.User.ID != "u1" {
		t.Fatalf("unexpected grant: %+v", grant)
	}
}

func TestLoginDecodesMFARequired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(SessionGrant{MFARequired: true, MFAChallenge: "ch-9"})
	}))
	defer srv.Close()

	grant, err := newWireClient(t, srv).Login(context.Background(), LoginRequest{Identifier: "a", Secret: "b"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !grant.MFARequired || grant.MFAChallenge != "ch-9" {
		t.Fatalf("unexpected grant: %+v", grant)
	}
	if grant.AccessToken != "" {
		t.Fatal("MFA-required grant must not carry a credential")
	}
}

func TestErrorDecoding(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		body     string
		wantCode string
	}{
		{"flat payload", 401, `{"code":"invalid_credentials","message":"nope"}`, CodeInvalidCredentials},
		{"nested payload", 422, `{"error":{"code":"invite_invalid","message":"bad invite"}}`, CodeInviteInvalid},
		{"non-JSON body", 500, "upstream exploded", ""},
		{"empty body", 503, "", ""},
	}

	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			w.Write([]byte(tc.body))
		}))

		_, err := newWireClient(t, srv).Me(context.Background())
		srv.Close()

		var apiErr *Error
		if !errors.As(err, &apiErr) {
			t.Fatalf("%s: error = %v; want *wire.Error", tc.name, err)
		}
		if apiErr.Status != tc.status {
			t.Fatalf("%s: status = %d; want %d", tc.name, apiErr.Status, tc.status)
		}
		if apiErr.Code != tc.wantCode {
			t.Fatalf("%s: code = %q; want %q", tc.name, apiErr.Code, tc.wantCode)
		}
	}
}

func TestLogoutSendsExplicitBearer(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := newWireClient(t, srv).Logout(context.Background(), "tok-out"); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if gotAuth != "Bearer tok-out" {
		t.Fatalf("Authorization = %q; want Bearer tok-out", gotAuth)
	}
}

func TestRefreshRidesTheCookieJar(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "refresh_token", Value: "rt-1", Path: "/", HttpOnly: true})
		json.NewEncoder(w).Encode(SessionGrant{AccessToken: "tok-1", User: &User{ID: "u1"}})
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		ck, err := r.Cookie("refresh_token")
		if err != nil || ck.Value != "rt-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(RefreshResponse{AccessToken: "tok-2"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar.New failed: %v", err)
	}
	hc := &http.Client{Jar: jar}
	c, err := New(srv.URL, hc, hc, "")
	if err != nil {
		t.Fatalf("wire.New failed: %v", err)
	}

	if _, err := c.Login(context.Background(), LoginRequest{Identifier: "a", Secret: "b"}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	token, err := c.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if token != "tok-2" {
		t.Fatalf("Refresh = %q; want tok-2", token)
	}
}

func TestMFAExchanges(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/mfa", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(MFAStatus{Enabled: true, DeviceCount: 2})
	})
	mux.HandleFunc("/auth/mfa/setup", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(MFAProvisioning{Secret: "S3CR3T", URI: "otpauth://totp/x"})
	})
	mux.HandleFunc("/auth/mfa/login", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		json.NewDecoder(r.Body).Decode(&in)
		if in["mfa_challenge"] != "ch-1" || in["code"] != "123456" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"code": CodeMFACodeInvalid})
			return
		}
		json.NewEncoder(w).Encode(SessionGrant{AccessToken: "tok-mfa", User: &User{ID: "u1"}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newWireClient(t, srv)
	ctx := context.Background()

	st, err := c.MFAStatus(ctx)
	if err != nil || !st.Enabled || st.DeviceCount != 2 {
		t.Fatalf("MFAStatus = %+v, %v", st, err)
	}

	prov, err := c.MFASetup(ctx)
	if err != nil || prov.Secret != "S3CR3T" {
		t.Fatalf("MFASetup = %+v, %v", prov, err)
	}

	grant, err := c.MFAConfirmLogin(ctx, "ch-1", "123456")
	if err != nil || grant.AccessToken != "tok-mfa" {
		t.Fatalf("MFAConfirmLogin = %+v, %v", grant, err)
	}

	_, err = c.MFAConfirmLogin(ctx, "ch-1", "999999")
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Code != CodeMFACodeInvalid {
		t.Fatalf("bad code error = %v; want %s", err, CodeMFACodeInvalid)
	}
}
