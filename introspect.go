package sessionkit

import (
	"time"

	"github.com/TransferAgent/sessionkit/access"
	"github.com/TransferAgent/sessionkit/internal/claims"
)

// Report is the safe introspection view of the client. It intentionally
// excludes the credential itself and the pending MFA challenge; only the
// credential's parsed expiry is exposed.
type Report struct {
	Phase               Phase
	UserID              string
	TenantID            string
	Role                access.Role
	TenantReady         bool
	MFAPending          bool
	CredentialPresent   bool
	CredentialExpiresAt time.Time
	AuditDropped        uint64
	Counters            map[MetricID]uint64
}

// Introspect describes the introspect operation and its observable behavior.
//
// Introspect may return an error when input validation, dependency calls, or security checks fail.
// Introspect does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) Introspect() Report {
	if c == nil {
		return Report{}
	}

	c.mu.Lock()
	r := Report{
		Phase:       c.phase,
		Role:        c.role,
		TenantReady: c.tenantReady,
		MFAPending:  c.pending != nil,
	}
	if c.user != nil {
		r.UserID = c.user.ID
	}
	if c.tenant != nil {
		r.TenantID = c.tenant.ID
	}
	c.mu.Unlock()

	if token := c.creds.Current(); token != "" {
		r.CredentialPresent = true
		if p, err := claims.Parse(token); err == nil {
			r.CredentialExpiresAt = p.ExpiresAt
		}
	}

	r.AuditDropped = c.AuditDropped()
	r.Counters = c.MetricsSnapshot().Counters

	return r
}
