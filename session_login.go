package sessionkit

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/TransferAgent/sessionkit/internal/wire"
)

// Register describes the register operation and its observable behavior.
//
// Password and PasswordConfirmation are compared locally; a mismatch fails
// before any network call. A successful registration signs the new account
// in immediately.
//
// Register may return an error when input validation, dependency calls, or security checks fail.
// Register does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) Register(ctx context.Context, in RegisterInput) (*LoginResult, error) {
	if c == nil || c.closed.Load() {
		return nil, ErrClientClosed
	}
	if err := c.requireUnauthenticated(); err != nil {
		return nil, err
	}

	if in.Password != in.PasswordConfirmation {
		c.metricInc(MetricRegisterFailure)
		c.emitAudit(ctx, auditEventRegisterFailure, false, "", "", ErrPasswordMismatch, nil)
		return nil, ErrPasswordMismatch
	}

	grant, err := c.wire.Register(ctx, wire.RegisterRequest{
		Email:                in.Email,
		Password:             in.Password,
		PasswordConfirmation: in.PasswordConfirmation,
		FirstName:            in.FirstName,
		LastName:             in.LastName,
		InviteToken:          in.InviteToken,
	})
	if err != nil {
		err = registerError(err)
		c.metricInc(MetricRegisterFailure)
		c.emitAudit(ctx, auditEventRegisterFailure, false, "", "", err, func() map[string]string {
			return map[string]string{"email": in.Email}
		})
		return nil, err
	}

	user := userFromWire(grant.User)
	epoch := c.adoptSession(ctx, grant.AccessToken, user)
	c.metricInc(MetricRegisterSuccess)
	c.emitAudit(ctx, auditEventRegisterSuccess, true, userIDOf(user), "", nil, nil)

	if err := c.loadTenantContext(ctx, epoch); err != nil {
		log.Print("sessionkit: tenant context load failed")
	}

	return &LoginResult{User: user}, nil
}

// Login describes the login operation and its observable behavior.
//
// When the account has a second factor enrolled the result carries
// MFARequired, no credential is stored, and the session suspends until
// [Client.ConfirmLoginMFA] or [Client.ConfirmLoginRecovery] completes it.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if c == nil || c.closed.Load() {
		return nil, ErrClientClosed
	}
	if err := c.requireUnauthenticated(); err != nil {
		return nil, err
	}

	if c.metrics != nil && c.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() {
			c.metrics.Observe(MetricLoginLatency, time.Since(start))
		}()
	}

	grant, err := c.wire.Login(ctx, wire.LoginRequest{
		Identifier: in.Identifier,
		Secret:     in.Secret,
	})
	if err != nil {
		err = loginError(err)
		c.metricInc(MetricLoginFailure)
		c.emitAudit(ctx, auditEventLoginFailure, false, "", "", err, func() map[string]string {
			return map[string]string{"identifier": in.Identifier}
		})
		return nil, err
	}

	if grant.MFARequired {
		c.suspendLogin(grant)
		c.metricInc(MetricLoginMFARequired)
		c.emitAudit(ctx, auditEventLoginMFARequired, true, wireUserID(grant.User), "", nil, nil)
		return &LoginResult{MFARequired: true, User: userFromWire(grant.User)}, nil
	}

	user := userFromWire(grant.User)
	epoch := c.adoptSession(ctx, grant.AccessToken, user)
	c.metricInc(MetricLoginSuccess)
	c.emitAudit(ctx, auditEventLoginSuccess, true, userIDOf(user), "", nil, nil)

	if err := c.loadTenantContext(ctx, epoch); err != nil {
		log.Print("sessionkit: tenant context load failed")
	}

	return &LoginResult{User: user}, nil
}

// CurrentUser describes the currentuser operation and its observable behavior.
//
// Only an auth-shaped rejection ends the session; a transport or server
// failure leaves the session state untouched so a flaky network cannot log
// the user out.
//
// CurrentUser may return an error when input validation, dependency calls, or security checks fail.
// CurrentUser does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	if c == nil || c.closed.Load() {
		return nil, ErrClientClosed
	}

	epoch := c.currentEpoch()

	wu, err := c.wire.Me(ctx)
	if err != nil {
		err = mapAPIError(err)
		if authShaped(err) {
			if !c.expireSession(ctx, epoch, err) {
				if cerr := c.creds.Clear(ctx); cerr != nil {
					log.Print("sessionkit: credential slot clear failed")
				}
			}
			return nil, ErrUnauthenticated
		}
		return nil, err
	}

	user := userFromWire(wu)

	changed := false
	c.mu.Lock()
	if c.epoch == epoch && c.phase == PhaseAuthenticated && user != nil {
		if c.user == nil || *c.user != *user {
			c.user = user
			changed = true
		}
	}
	c.mu.Unlock()
	if changed {
		c.notify()
	}

	return user, nil
}

// Resume describes the resume operation and its observable behavior.
//
// Resume recovers a session from the durable credential slot: it hydrates
// the stored credential, validates it against the platform, and adopts the
// identity on success. An empty slot or a rejected credential leaves the
// client unauthenticated with the slot cleared.
//
// Resume may return an error when input validation, dependency calls, or security checks fail.
// Resume does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) Resume(ctx context.Context) error {
	if c == nil || c.closed.Load() {
		return ErrClientClosed
	}
	if err := c.requireUnauthenticated(); err != nil {
		return err
	}

	token, err := c.creds.Hydrate(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	if token == "" {
		return ErrUnauthenticated
	}

	wu, err := c.wire.Me(ctx)
	if err != nil {
		err = mapAPIError(err)
		if authShaped(err) {
			if cerr := c.creds.Clear(ctx); cerr != nil {
				log.Print("sessionkit: credential slot clear failed")
			}
			return ErrUnauthenticated
		}
		return err
	}

	user := userFromWire(wu)
	epoch := c.adoptSession(ctx, "", user)
	c.emitAudit(ctx, auditEventSessionResumed, true, userIDOf(user), "", nil, nil)

	if err := c.loadTenantContext(ctx, epoch); err != nil {
		log.Print("sessionkit: tenant context load failed")
	}

	return nil
}

// Logout describes the logout operation and its observable behavior.
//
// The server is notified best-effort and the local session is cleared no
// matter how that notification settles. The returned error reports the
// notification outcome; the local session is already gone either way. A
// server answer that the session was already dead counts as success.
//
// Logout may return an error when input validation, dependency calls, or security checks fail.
// Logout does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) Logout(ctx context.Context) error {
	if c == nil || c.closed.Load() {
		return ErrClientClosed
	}

	c.mu.Lock()
	phase := c.phase
	var userID, tenantID string
	if c.user != nil {
		userID = c.user.ID
	}
	if c.tenant != nil {
		tenantID = c.tenant.ID
	}
	c.mu.Unlock()

	if phase == PhaseUnauthenticated {
		if err := c.creds.Clear(ctx); err != nil {
			log.Print("sessionkit: credential slot clear failed")
		}
		return nil
	}

	var serverErr error
	if bearer := c.creds.Current(); bearer != "" {
		serverErr = c.wire.Logout(ctx, bearer)
		if serverErr != nil {
			serverErr = mapAPIError(serverErr)
			if authShaped(serverErr) {
				serverErr = nil
			}
		}
	}

	c.clearSession(ctx)
	c.metricInc(MetricLogout)
	c.emitAudit(ctx, auditEventLogout, serverErr == nil, userID, tenantID, serverErr, nil)

	return serverErr
}

// ChangePassword describes the changepassword operation and its observable behavior.
//
// The platform rotates the session credential on a successful change; the
// re-issued credential is adopted in place and the session continues
// uninterrupted.
//
// ChangePassword may return an error when input validation, dependency calls, or security checks fail.
// ChangePassword does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	if c == nil || c.closed.Load() {
		return ErrClientClosed
	}
	epoch, err := c.requireAuthenticated()
	if err != nil {
		return err
	}

	grant, err := c.wire.ChangePassword(ctx, current, next)
	if err != nil {
		err = passwordChangeError(err)
		c.metricInc(MetricPasswordChangeFailure)
		c.emitAudit(ctx, auditEventPasswordChangeFailed, false, "", "", err, nil)
		return err
	}

	c.storeCredential(ctx, epoch, grant.AccessToken)
	c.metricInc(MetricPasswordChangeSuccess)
	c.emitAudit(ctx, auditEventPasswordChanged, true, "", "", nil, nil)

	return nil
}

func (c *Client) requireUnauthenticated() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.phase {
	case PhaseAuthenticated:
		return ErrAlreadyAuthenticated
	case PhaseAwaitingSecondFactor:
		return ErrLoginPending
	default:
		return nil
	}
}

func (c *Client) requireAuthenticated() (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.phase {
	case PhaseAuthenticated:
		return c.epoch, nil
	case PhaseAwaitingSecondFactor:
		return 0, ErrLoginPending
	default:
		return 0, ErrUnauthenticated
	}
}

func loginError(err error) error {
	var we *wire.Error
	if errors.As(err, &we) && we.Unauthorized() {
		return ErrInvalidCredentials
	}
	return mapAPIError(err)
}

func registerError(err error) error {
	var we *wire.Error
	if errors.As(err, &we) && we.Code == wire.CodeValidationFailed {
		return fmt.Errorf("%w: %s", ErrInvalidRegistration, we.Message)
	}
	return mapAPIError(err)
}

func passwordChangeError(err error) error {
	var we *wire.Error
	if errors.As(err, &we) && we.Code == wire.CodeValidationFailed {
		return fmt.Errorf("%w: %s", ErrPasswordPolicy, we.Message)
	}
	return mapAPIError(err)
}

func userIDOf(u *User) string {
	if u == nil {
		return ""
	}
	return u.ID
}

func wireUserID(u *wire.User) string {
	if u == nil {
		return ""
	}
	return u.ID
}
