package wire

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// HeaderRequestID is the correlation header stamped on every outbound
// request.
const HeaderRequestID = "X-Request-ID"

// Endpoint paths, relative to the base URL.
const (
	pathLogin           = "/auth/login"
	pathRegister        = "/auth/register"
	pathRefresh         = "/auth/refresh"
	pathLogout          = "/auth/logout"
	pathMe              = "/auth/me"
	pathPassword        = "/auth/password"
	pathMFA             = "/auth/mfa"
	pathMFASetup        = "/auth/mfa/setup"
	pathMFASetupConfirm = "/auth/mfa/setup/confirm"
	pathMFALogin        = "/auth/mfa/login"
	pathMFARecovery     = "/auth/mfa/recovery"
	pathMFADisable      = "/auth/mfa/disable"
	pathTenantContext   = "/tenants/context"
	pathFeatureUsage    = "/billing/features"
)

// Client performs the platform's HTTP exchanges. See the package comment for
// the direct/authed client split.
type Client struct {
	base      string
	direct    *http.Client
	authed    *http.Client
	userAgent string
}

// New creates a wire [Client]. baseURL must be absolute; a trailing slash is
// tolerated. direct must never carry a refreshing transport; authed should.
func New(baseURL string, direct, authed *http.Client, userAgent string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.New("base URL must be absolute")
	}
	if direct == nil || authed == nil {
		return nil, errors.New("both HTTP clients are required")
	}

	return &Client{
		base:      strings.TrimRight(baseURL, "/"),
		direct:    direct,
		authed:    authed,
		userAgent: userAgent,
	}, nil
}

// Login exchanges identifier/secret for a [SessionGrant].
func (c *Client) Login(ctx context.Context, req LoginRequest) (*SessionGrant, error) {
	var grant SessionGrant
	if err := c.do(ctx, c.direct, http.MethodPost, pathLogin, "", req, &grant); err != nil {
		return nil, err
	}
	return &grant, nil
}

// Register submits the registration payload.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*SessionGrant, error) {
	var grant SessionGrant
	if err := c.do(ctx, c.direct, http.MethodPost, pathRegister, "", req, &grant); err != nil {
		return nil, err
	}
	return &grant, nil
}

// Refresh exchanges the cookie-held refresh secret for a new credential. The
// request body is empty: the secret never passes through client code.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	var resp RefreshResponse
	if err := c.do(ctx, c.direct, http.MethodPost, pathRefresh, "", nil, &resp); err != nil {
		return "", err
	}
	return resp.AccessToken, nil
}

// Logout notifies the server the session ended. Direct client with an
// explicit bearer: a teardown must not detour through the refresh protocol.
func (c *Client) Logout(ctx context.Context, bearer string) error {
	return c.do(ctx, c.direct, http.MethodPost, pathLogout, bearer, nil, nil)
}

// Me fetches the current user over the pipeline.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, c.authed, http.MethodGet, pathMe, "", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// TenantContext fetches the current tenant, role, and membership list.
func (c *Client) TenantContext(ctx context.Context) (*TenantContext, error) {
	var tc TenantContext
	if err := c.do(ctx, c.authed, http.MethodGet, pathTenantContext, "", nil, &tc); err != nil {
		return nil, err
	}
	return &tc, nil
}

// FeatureUsage fetches the active tenant's entitlement map.
func (c *Client) FeatureUsage(ctx context.Context) (FeatureUsage, error) {
	var usage FeatureUsage
	if err := c.do(ctx, c.authed, http.MethodGet, pathFeatureUsage, "", nil, &usage); err != nil {
		return nil, err
	}
	return usage, nil
}

// MFAStatus fetches the account's step-up state.
func (c *Client) MFAStatus(ctx context.Context) (*MFAStatus, error) {
	var st MFAStatus
	if err := c.do(ctx, c.authed, http.MethodGet, pathMFA, "", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// MFASetup begins enrollment and returns the provisioning payload.
func (c *Client) MFASetup(ctx context.Context) (*MFAProvisioning, error) {
	var prov MFAProvisioning
	if err := c.do(ctx, c.authed, http.MethodPost, pathMFASetup, "", nil, &prov); err != nil {
		return nil, err
	}
	return &prov, nil
}

// MFAConfirmSetup submits the first code from the enrolled device.
func (c *Client) MFAConfirmSetup(ctx context.Context, code string) (*MFAStatus, error) {
	var st MFAStatus
	in := map[string]string{"code": code}
	if err := c.do(ctx, c.authed, http.MethodPost, pathMFASetupConfirm, "", in, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// MFAConfirmLogin completes a suspended login with a one-time code.
func (c *Client) MFAConfirmLogin(ctx context.Context, challenge, code string) (*SessionGrant, error) {
	var grant SessionGrant
	in := map[string]string{"mfa_challenge": challenge, "code": code}
	if err := c.do(ctx, c.direct, http.MethodPost, pathMFALogin, "", in, &grant); err != nil {
		return nil, err
	}
	return &grant, nil
}

// MFARecoveryLogin completes a suspended login with a backup code.
func (c *Client) MFARecoveryLogin(ctx context.Context, challenge, backupCode string) (*SessionGrant, error) {
	var grant SessionGrant
	in := map[string]string{"mfa_challenge": challenge, "backup_code": backupCode}
	if err := c.do(ctx, c.direct, http.MethodPost, pathMFARecovery, "", in, &grant); err != nil {
		return nil, err
	}
	return &grant, nil
}

// MFADisable turns the second factor off. The grant carries the re-issued
// credential.
func (c *Client) MFADisable(ctx context.Context, password, code string) (*SessionGrant, error) {
	var grant SessionGrant
	in := map[string]string{"password": password, "code": code}
	if err := c.do(ctx, c.authed, http.MethodPost, pathMFADisable, "", in, &grant); err != nil {
		return nil, err
	}
	return &grant, nil
}

// ChangePassword rotates the account secret. The grant carries the re-issued
// credential.
func (c *Client) ChangePassword(ctx context.Context, current, next string) (*SessionGrant, error) {
	var grant SessionGrant
	in := map[string]string{"current_password": current, "new_password": next}
	if err := c.do(ctx, c.authed, http.MethodPost, pathPassword, "", in, &grant); err != nil {
		return nil, err
	}
	return &grant, nil
}

func (c *Client) do(ctx context.Context, hc *http.Client, method, path, bearer string, in, out interface{}) error {
	var body *bytes.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	rid := RequestIDFrom(ctx)
	if rid == "" {
		rid = uuid.NewString()
	}
	req.Header.Set(HeaderRequestID, rid)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
