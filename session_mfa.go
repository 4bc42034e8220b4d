package sessionkit

import (
	"context"
	"errors"
	"log"

	"github.com/TransferAgent/sessionkit/access"
	"github.com/TransferAgent/sessionkit/internal/wire"
)

// pendingLogin is a suspended first factor: the opaque challenge reference
// and the identity preview the server sent with it. No credential exists
// until the second factor confirms.
type pendingLogin struct {
	challenge string
	user      *User
}

func (c *Client) suspendLogin(grant *wire.SessionGrant) {
	c.mu.Lock()
	c.epoch++
	c.phase = PhaseAwaitingSecondFactor
	c.pending = &pendingLogin{
		challenge: grant.MFAChallenge,
		user:      userFromWire(grant.User),
	}
	c.user = nil
	c.tenant = nil
	c.role = access.RoleNone
	c.memberships = nil
	c.features = nil
	c.tenantReady = false
	c.mu.Unlock()

	c.notify()
}

func (c *Client) abandonPendingLogin() {
	c.mu.Lock()
	if c.phase != PhaseAwaitingSecondFactor {
		c.mu.Unlock()
		return
	}
	c.epoch++
	c.resetLocked()
	c.mu.Unlock()

	c.notify()
}

// ConfirmLoginMFA describes the confirmloginmfa operation and its observable behavior.
//
// An invalid code keeps the login suspended so the user can retry; an
// expired challenge abandons it and the flow starts over at [Client.Login].
//
// ConfirmLoginMFA may return an error when input validation, dependency calls, or security checks fail.
// ConfirmLoginMFA does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) ConfirmLoginMFA(ctx context.Context, code string) (*LoginResult, error) {
	if c == nil || c.closed.Load() {
		return nil, ErrClientClosed
	}
	if !validMFACode(code, c.config.MFA.CodeDigits) {
		return nil, ErrMFACodeMalformed
	}

	challenge, pendingUser, err := c.pendingChallenge()
	if err != nil {
		return nil, err
	}

	grant, err := c.wire.MFAConfirmLogin(ctx, challenge, code)
	if err != nil {
		err = mapAPIError(err)
		c.metricInc(MetricMFAVerifyFailure)
		c.emitAudit(ctx, auditEventMFALoginFailure, false, userIDOf(pendingUser), "", err, nil)
		if errors.Is(err, ErrMFAChallengeExpired) {
			c.abandonPendingLogin()
		}
		return nil, err
	}

	user := userFromWire(grant.User)
	if user == nil {
		user = pendingUser
	}
	epoch := c.adoptSession(ctx, grant.AccessToken, user)
	c.metricInc(MetricMFAVerifySuccess)
	c.emitAudit(ctx, auditEventMFALoginSuccess, true, userIDOf(user), "", nil, nil)

	if err := c.loadTenantContext(ctx, epoch); err != nil {
		log.Print("sessionkit: tenant context load failed")
	}

	return &LoginResult{User: user}, nil
}

// ConfirmLoginRecovery describes the confirmloginrecovery operation and its observable behavior.
//
// ConfirmLoginRecovery completes a suspended login with a single-use backup
// code instead of a device code.
//
// ConfirmLoginRecovery may return an error when input validation, dependency calls, or security checks fail.
// ConfirmLoginRecovery does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) ConfirmLoginRecovery(ctx context.Context, backupCode string) (*LoginResult, error) {
	if c == nil || c.closed.Load() {
		return nil, ErrClientClosed
	}
	if !validBackupCode(backupCode) {
		return nil, ErrBackupCodeMalformed
	}

	challenge, pendingUser, err := c.pendingChallenge()
	if err != nil {
		return nil, err
	}

	grant, err := c.wire.MFARecoveryLogin(ctx, challenge, backupCode)
	if err != nil {
		err = mapAPIError(err)
		c.metricInc(MetricMFAVerifyFailure)
		c.emitAudit(ctx, auditEventMFALoginFailure, false, userIDOf(pendingUser), "", err, nil)
		if errors.Is(err, ErrMFAChallengeExpired) {
			c.abandonPendingLogin()
		}
		return nil, err
	}

	user := userFromWire(grant.User)
	if user == nil {
		user = pendingUser
	}
	epoch := c.adoptSession(ctx, grant.AccessToken, user)
	c.metricInc(MetricMFAVerifySuccess)
	c.emitAudit(ctx, auditEventMFARecoveryUsed, true, userIDOf(user), "", nil, nil)

	if err := c.loadTenantContext(ctx, epoch); err != nil {
		log.Print("sessionkit: tenant context load failed")
	}

	return &LoginResult{User: user}, nil
}

// MFAStatus describes the mfastatus operation and its observable behavior.
//
// MFAStatus may return an error when input validation, dependency calls, or security checks fail.
// MFAStatus does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) MFAStatus(ctx context.Context) (*MFAState, error) {
	if c == nil || c.closed.Load() {
		return nil, ErrClientClosed
	}
	if _, err := c.requireAuthenticated(); err != nil {
		return nil, err
	}

	st, err := c.wire.MFAStatus(ctx)
	if err != nil {
		return nil, mapAPIError(err)
	}

	return &MFAState{
		Enabled:      st.Enabled,
		PendingSetup: st.PendingSetup,
		DeviceCount:  st.DeviceCount,
	}, nil
}

// BeginMFASetup describes the beginmfasetup operation and its observable behavior.
//
// The returned provisioning payload is the only copy; the client retains
// nothing. Render it, then call [MFAProvisioning.Wipe] so the secret does
// not outlive enrollment.
//
// BeginMFASetup may return an error when input validation, dependency calls, or security checks fail.
// BeginMFASetup does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) BeginMFASetup(ctx context.Context) (*MFAProvisioning, error) {
	if c == nil || c.closed.Load() {
		return nil, ErrClientClosed
	}
	if _, err := c.requireAuthenticated(); err != nil {
		return nil, err
	}

	prov, err := c.wire.MFASetup(ctx)
	if err != nil {
		return nil, mapAPIError(err)
	}

	c.emitAudit(ctx, auditEventMFASetupRequested, true, "", "", nil, nil)

	return &MFAProvisioning{Secret: prov.Secret, URI: prov.URI}, nil
}

// ConfirmMFASetup describes the confirmmfasetup operation and its observable behavior.
//
// ConfirmMFASetup may return an error when input validation, dependency calls, or security checks fail.
// ConfirmMFASetup does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) ConfirmMFASetup(ctx context.Context, code string) (*MFAState, error) {
	if c == nil || c.closed.Load() {
		return nil, ErrClientClosed
	}
	if !validMFACode(code, c.config.MFA.CodeDigits) {
		return nil, ErrMFACodeMalformed
	}
	if _, err := c.requireAuthenticated(); err != nil {
		return nil, err
	}

	st, err := c.wire.MFAConfirmSetup(ctx, code)
	if err != nil {
		err = mapAPIError(err)
		c.metricInc(MetricMFAVerifyFailure)
		c.emitAudit(ctx, auditEventMFAEnabled, false, "", "", err, nil)
		return nil, err
	}

	c.metricInc(MetricMFAVerifySuccess)
	c.emitAudit(ctx, auditEventMFAEnabled, true, "", "", nil, nil)

	return &MFAState{
		Enabled:      st.Enabled,
		PendingSetup: st.PendingSetup,
		DeviceCount:  st.DeviceCount,
	}, nil
}

// DisableMFA describes the disablemfa operation and its observable behavior.
//
// Disabling requires the account password and a current device code
// together. The platform rotates the session credential on success and the
// re-issued credential is adopted in place.
//
// DisableMFA may return an error when input validation, dependency calls, or security checks fail.
// DisableMFA does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) DisableMFA(ctx context.Context, password, code string) error {
	if c == nil || c.closed.Load() {
		return ErrClientClosed
	}
	if !validMFACode(code, c.config.MFA.CodeDigits) {
		return ErrMFACodeMalformed
	}
	epoch, err := c.requireAuthenticated()
	if err != nil {
		return err
	}

	grant, err := c.wire.MFADisable(ctx, password, code)
	if err != nil {
		err = mapAPIError(err)
		c.metricInc(MetricMFAVerifyFailure)
		c.emitAudit(ctx, auditEventMFADisabled, false, "", "", err, nil)
		return err
	}

	c.storeCredential(ctx, epoch, grant.AccessToken)
	c.emitAudit(ctx, auditEventMFADisabled, true, "", "", nil, nil)

	return nil
}

func (c *Client) pendingChallenge() (string, *User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseAwaitingSecondFactor || c.pending == nil {
		return "", nil, ErrNoPendingLogin
	}
	return c.pending.challenge, c.pending.user, nil
}

// validMFACode is a shape check only: length and digits. Whether the code
// is correct is the server's call; no TOTP material ever reaches this
// process.
func validMFACode(code string, digits int) bool {
	if digits <= 0 {
		digits = 6
	}
	if len(code) != digits {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

func validBackupCode(code string) bool {
	if len(code) < 8 {
		return false
	}
	for i := 0; i < len(code); i++ {
		ch := code[i]
		switch {
		case ch >= '0' && ch <= '9':
		case ch >= 'a' && ch <= 'z':
		case ch >= 'A' && ch <= 'Z':
		case ch == '-':
		default:
			return false
		}
	}
	return true
}
