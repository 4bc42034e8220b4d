package sessionkit

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/TransferAgent/sessionkit/access"
	"github.com/TransferAgent/sessionkit/credential"
	"github.com/TransferAgent/sessionkit/internal/wire"
)

// Client defines a public type used by sessionkit APIs.
//
// Client instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Client struct {
	config  Config
	wire    *wire.Client
	creds   *credential.Store
	audit   *auditDispatcher
	metrics *Metrics

	httpClient   *http.Client
	refreshGroup singleflight.Group

	mu          sync.Mutex
	phase       Phase
	epoch       uint64
	user        *User
	pending     *pendingLogin
	tenant      *Tenant
	role        access.Role
	memberships []Membership
	features    access.FeatureUsage
	tenantReady bool

	subMu   sync.Mutex
	subs    map[uint64]func(Snapshot)
	nextSub uint64

	closed atomic.Bool
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.closed.Store(true)
	if c.audit != nil {
		c.audit.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) AuditDropped() uint64 {
	if c == nil || c.audit == nil {
		return 0
	}
	return c.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	if c == nil || c.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return c.metrics.Snapshot()
}

func (c *Client) metricInc(id MetricID) {
	if c == nil || c.metrics == nil {
		return
	}
	c.metrics.Inc(id)
}

// HTTPClient describes the httpclient operation and its observable behavior.
//
// The returned client attaches the session credential to every request and
// transparently coordinates one refresh-and-replay when the credential
// expires mid-flight. Use it for every platform call made outside this
// package.
//
// HTTPClient may return an error when input validation, dependency calls, or security checks fail.
// HTTPClient does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// Snapshot describes the snapshot operation and its observable behavior.
//
// Snapshot may return an error when input validation, dependency calls, or security checks fail.
// Snapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Client) snapshotLocked() Snapshot {
	snap := Snapshot{
		Phase:       c.phase,
		Role:        c.role,
		Features:    c.features.Clone(),
		TenantReady: c.tenantReady,
	}
	if c.user != nil {
		u := *c.user
		snap.User = &u
	}
	if c.tenant != nil {
		t := *c.tenant
		snap.Tenant = &t
	}
	if len(c.memberships) > 0 {
		snap.Memberships = append([]Membership(nil), c.memberships...)
	}
	return snap
}

// Subscribe describes the subscribe operation and its observable behavior.
//
// Subscribers run on the goroutine that triggered the transition, after the
// state is committed and outside all client locks; calling back into the
// client from a subscriber is safe. The returned cancel detaches the
// subscriber.
//
// Subscribe may return an error when input validation, dependency calls, or security checks fail.
// Subscribe does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) Subscribe(fn func(Snapshot)) (cancel func()) {
	if fn == nil {
		return func() {}
	}

	c.subMu.Lock()
	if c.subs == nil {
		c.subs = make(map[uint64]func(Snapshot))
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *Client) notify() {
	snap := c.Snapshot()

	c.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// Allowed describes the allowed operation and its observable behavior.
//
// Allowed may return an error when input validation, dependency calls, or security checks fail.
// Allowed does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) Allowed(required ...access.Role) bool {
	c.mu.Lock()
	role := c.role
	c.mu.Unlock()
	return access.Allowed(required, role)
}

// FeatureEnabled describes the featureenabled operation and its observable behavior.
//
// FeatureEnabled may return an error when input validation, dependency calls, or security checks fail.
// FeatureEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) FeatureEnabled(key string) bool {
	c.mu.Lock()
	usage := c.features
	c.mu.Unlock()
	return access.FeatureEnabled(key, usage)
}

func (c *Client) currentEpoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

// adoptSession commits a freshly granted credential and flips the session to
// authenticated. The credential is stored before the phase flips so a
// subscriber reacting to the transition can immediately make authed calls.
// An empty token keeps whatever the store already holds; session resume
// adopts a credential that was recovered from the slot.
func (c *Client) adoptSession(ctx context.Context, token string, user *User) uint64 {
	if token != "" {
		if err := c.creds.Set(ctx, token); err != nil {
			log.Print("sessionkit: credential slot write failed")
		}
	}

	c.mu.Lock()
	c.epoch++
	epoch := c.epoch
	c.phase = PhaseAuthenticated
	c.user = user
	c.pending = nil
	c.tenant = nil
	c.role = access.RoleNone
	c.memberships = nil
	c.features = nil
	c.tenantReady = false
	c.mu.Unlock()

	c.notify()
	return epoch
}

// storeCredential swaps in a re-issued credential for an already
// authenticated session. A stale epoch means the session ended while the
// exchange was in flight; the late credential must not resurrect it.
func (c *Client) storeCredential(ctx context.Context, epoch uint64, token string) {
	if token == "" {
		return
	}

	c.mu.Lock()
	stale := c.epoch != epoch
	c.mu.Unlock()
	if stale {
		return
	}

	if err := c.creds.Set(ctx, token); err != nil {
		log.Print("sessionkit: credential slot write failed")
	}

	c.mu.Lock()
	stale = c.epoch != epoch
	c.mu.Unlock()
	if stale {
		if err := c.creds.Clear(context.Background()); err != nil {
			log.Print("sessionkit: credential slot clear failed")
		}
	}
}

// expireSession tears the session down after a terminal credential failure.
// It is a no-op when the epoch no longer matches or the session already
// ended, so a late failure cannot wipe a newer session. Reports whether it
// acted.
func (c *Client) expireSession(ctx context.Context, epoch uint64, cause error) bool {
	c.mu.Lock()
	if c.epoch != epoch || c.phase == PhaseUnauthenticated {
		c.mu.Unlock()
		return false
	}
	c.epoch++
	var userID, tenantID string
	if c.user != nil {
		userID = c.user.ID
	}
	if c.tenant != nil {
		tenantID = c.tenant.ID
	}
	c.resetLocked()
	c.mu.Unlock()

	if err := c.creds.Clear(ctx); err != nil {
		log.Print("sessionkit: credential slot clear failed")
	}

	c.metricInc(MetricSessionExpired)
	c.emitAudit(ctx, auditEventSessionExpired, false, userID, tenantID, cause, nil)
	c.notify()
	return true
}

// clearSession unconditionally returns the client to unauthenticated.
// Logout uses this; expiry paths go through expireSession for the epoch
// guard.
func (c *Client) clearSession(ctx context.Context) {
	c.mu.Lock()
	c.epoch++
	c.resetLocked()
	c.mu.Unlock()

	if err := c.creds.Clear(ctx); err != nil {
		log.Print("sessionkit: credential slot clear failed")
	}

	c.notify()
}

func (c *Client) resetLocked() {
	c.phase = PhaseUnauthenticated
	c.user = nil
	c.pending = nil
	c.tenant = nil
	c.role = access.RoleNone
	c.memberships = nil
	c.features = nil
	c.tenantReady = false
}

// mapAPIError converts a wire-level failure into the package's sentinel
// vocabulary. Transport errors and unrecognized platform errors pass
// through unchanged so callers can distinguish "rejected" from "unreachable".
func mapAPIError(err error) error {
	if err == nil {
		return nil
	}

	var we *wire.Error
	if !errors.As(err, &we) {
		return err
	}

	switch we.Code {
	case wire.CodeInvalidCredentials:
		return ErrInvalidCredentials
	case wire.CodeInviteInvalid:
		return ErrInviteInvalid
	case wire.CodeMFACodeInvalid:
		return ErrMFACodeInvalid
	case wire.CodeMFAChallengeExpired:
		return ErrMFAChallengeExpired
	case wire.CodeMFANotEnabled:
		return ErrMFANotEnabled
	case wire.CodeMFASetupNotPending:
		return ErrMFASetupNotPending
	}

	switch {
	case we.Status == http.StatusUnauthorized:
		return ErrUnauthenticated
	case we.Status == http.StatusForbidden:
		return ErrPermissionDenied
	case we.Status >= 500:
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, we)
	}

	return err
}

// authShaped reports whether err indicates the credential itself was
// rejected, as opposed to a transient or unrelated failure. Only
// auth-shaped failures may tear a session down.
func authShaped(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnauthenticated) || errors.Is(err, ErrSessionExpired) {
		return true
	}
	var we *wire.Error
	return errors.As(err, &we) && we.Unauthorized()
}
