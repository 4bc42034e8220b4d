package sessionkit

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/TransferAgent/sessionkit/access"
)

// loadTenantContext fetches the tenant context and entitlement map and
// commits them against the given epoch. Losing the entitlement exchange
// must not lose the tenant context: gates simply fail closed on a nil map
// until a reload succeeds. A user with zero memberships commits an empty
// context; that is a valid resolved state, not a failure.
func (c *Client) loadTenantContext(ctx context.Context, epoch uint64) error {
	tc, err := c.wire.TenantContext(ctx)
	if err != nil {
		err = mapAPIError(err)
		c.metricInc(MetricTenantContextFailure)
		c.emitAudit(ctx, auditEventTenantContextFailure, false, "", "", err, nil)
		return err
	}

	features, err := c.wire.FeatureUsage(ctx)
	if err != nil {
		features = nil
		log.Print("sessionkit: feature usage load failed")
	}

	tenant := tenantFromWire(tc.CurrentTenant)
	role, _ := access.ParseRole(tc.CurrentRole)
	memberships := membershipsFromWire(tc.AvailableTenants)

	c.mu.Lock()
	if c.epoch != epoch || c.phase != PhaseAuthenticated {
		c.mu.Unlock()
		return nil
	}
	c.tenant = tenant
	c.role = role
	c.memberships = memberships
	c.features = access.FeatureUsage(features)
	c.tenantReady = true
	c.mu.Unlock()

	c.emitAudit(ctx, auditEventTenantContextLoaded, true, "", tenantIDOf(tenant), nil, func() map[string]string {
		return map[string]string{
			"role":        role.String(),
			"memberships": strconv.Itoa(len(memberships)),
		}
	})
	c.notify()

	return nil
}

// RefreshTenantContext describes the refreshtenantcontext operation and its observable behavior.
//
// RefreshTenantContext may return an error when input validation, dependency calls, or security checks fail.
// RefreshTenantContext does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) RefreshTenantContext(ctx context.Context) error {
	if c == nil || c.closed.Load() {
		return ErrClientClosed
	}
	epoch, err := c.requireAuthenticated()
	if err != nil {
		return err
	}
	return c.loadTenantContext(ctx, epoch)
}

// SwitchTenant describes the switchtenant operation and its observable behavior.
//
// The switch is purely local, which is why it takes no context: it selects
// among the memberships the last context fetch delivered and performs no
// network call. An id outside that set fails with [ErrNotMember] and
// changes nothing. Entitlements are tenant-scoped, so the feature map is
// dropped on switch and gates fail closed until
// [Client.RefreshTenantContext] reloads it.
//
// SwitchTenant may return an error when input validation, dependency calls, or security checks fail.
// SwitchTenant does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) SwitchTenant(id string) error {
	if c == nil || c.closed.Load() {
		return ErrClientClosed
	}

	c.mu.Lock()
	if c.phase != PhaseAuthenticated {
		c.mu.Unlock()
		return ErrUnauthenticated
	}
	var target *Membership
	for i := range c.memberships {
		if c.memberships[i].Tenant.ID == id {
			target = &c.memberships[i]
			break
		}
	}
	if target == nil {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotMember, id)
	}
	tenant := target.Tenant
	role := target.Role
	c.tenant = &tenant
	c.role = role
	c.features = nil
	c.mu.Unlock()

	c.metricInc(MetricTenantSwitch)
	c.emitAudit(context.Background(), auditEventTenantSwitch, true, "", tenant.ID, nil, func() map[string]string {
		return map[string]string{"role": role.String()}
	})
	c.notify()

	return nil
}

// CurrentTenant describes the currenttenant operation and its observable behavior.
//
// CurrentTenant may return an error when input validation, dependency calls, or security checks fail.
// CurrentTenant does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) CurrentTenant() *Tenant {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tenant == nil {
		return nil
	}
	t := *c.tenant
	return &t
}

// CurrentRole describes the currentrole operation and its observable behavior.
//
// CurrentRole may return an error when input validation, dependency calls, or security checks fail.
// CurrentRole does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) CurrentRole() access.Role {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.role
}

// AvailableTenants describes the availabletenants operation and its observable behavior.
//
// AvailableTenants may return an error when input validation, dependency calls, or security checks fail.
// AvailableTenants does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) AvailableTenants() []Membership {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.memberships) == 0 {
		return nil
	}
	return append([]Membership(nil), c.memberships...)
}

// TenantReady describes the tenantready operation and its observable behavior.
//
// TenantReady distinguishes "context not yet loaded" from "loaded, possibly
// empty" so callers can render a pending state instead of a denial flash.
//
// TenantReady may return an error when input validation, dependency calls, or security checks fail.
// TenantReady does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) TenantReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tenantReady
}

// IsAdmin describes the isadmin operation and its observable behavior.
//
// IsAdmin may return an error when input validation, dependency calls, or security checks fail.
// IsAdmin does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) IsAdmin() bool {
	return access.IsAdmin(c.CurrentRole())
}

// IsStaff describes the isstaff operation and its observable behavior.
//
// IsStaff may return an error when input validation, dependency calls, or security checks fail.
// IsStaff does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) IsStaff() bool {
	return access.IsStaff(c.CurrentRole())
}

// IsPlatformAdmin describes the isplatformadmin operation and its observable behavior.
//
// IsPlatformAdmin may return an error when input validation, dependency calls, or security checks fail.
// IsPlatformAdmin does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) IsPlatformAdmin() bool {
	return access.IsPlatformAdmin(c.CurrentRole())
}

func tenantIDOf(t *Tenant) string {
	if t == nil {
		return ""
	}
	return t.ID
}
