package sessionkit

import (
	"github.com/TransferAgent/sessionkit/access"
	"github.com/TransferAgent/sessionkit/internal/wire"
)

// Phase is the session lifecycle state. Transitions are driven exclusively
// by [Client.Login], [Client.Register], [Client.ConfirmLoginMFA],
// [Client.Resume], [Client.Logout], and refresh outcomes; callers observe
// them through [Client.Snapshot] and [Client.Subscribe].
//
//	Docs: docs/session.md
type Phase uint8

const (
	// PhaseUnauthenticated is an exported constant or variable used by the session client.
	PhaseUnauthenticated Phase = iota
	// PhaseAwaitingSecondFactor is an exported constant or variable used by the session client.
	PhaseAwaitingSecondFactor
	// PhaseAuthenticated is an exported constant or variable used by the session client.
	PhaseAuthenticated
)

// String returns the lowercase phase name.
func (p Phase) String() string {
	switch p {
	case PhaseUnauthenticated:
		return "unauthenticated"
	case PhaseAwaitingSecondFactor:
		return "awaiting_second_factor"
	case PhaseAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// User is the authenticated identity as reported by the platform. The
// client never derives or caches identity fields on its own; every value
// here came from a server response.
type User struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
}

// Tenant is an organization the user can act within.
type Tenant struct {
	ID     string
	Name   string
	Slug   string
	Status string
}

// Membership pairs a tenant with the role the user holds in it. The
// membership list is fetched with the tenant context and is the only set
// [Client.SwitchTenant] will switch among.
type Membership struct {
	Tenant Tenant
	Role   access.Role
}

// Snapshot is a point-in-time copy of the observable session state.
// Slices and maps are deep-copied; mutating a snapshot never affects the
// client.
//
// TenantReady distinguishes "tenant context not yet loaded" from "loaded,
// possibly empty" so callers can render a pending state instead of a
// denial flash.
//
//	Docs: docs/session.md
type Snapshot struct {
	Phase       Phase
	User        *User
	Tenant      *Tenant
	Role        access.Role
	Memberships []Membership
	Features    access.FeatureUsage
	TenantReady bool
}

// LoginInput carries the first-factor credentials for [Client.Login].
type LoginInput struct {
	Identifier string
	Secret     string
}

// RegisterInput is the payload for [Client.Register]. InviteToken binds
// the new account to a pre-existing invitation when present. Password and
// PasswordConfirmation must match; the check is local and fails before
// any network call.
type RegisterInput struct {
	Email                string
	Password             string
	PasswordConfirmation string
	FirstName            string
	LastName             string
	InviteToken          string
}

// LoginResult is returned by [Client.Login], [Client.Register],
// [Client.ConfirmLoginMFA], and [Client.ConfirmLoginRecovery]. When
// MFARequired is set no credential was stored and the session is
// suspended until the second factor confirms.
type LoginResult struct {
	MFARequired bool
	User        *User
}

// MFAState mirrors the server's step-up configuration for the account.
type MFAState struct {
	Enabled      bool
	PendingSetup bool
	DeviceCount  int
}

// MFAProvisioning is the enrollment payload returned by
// [Client.BeginMFASetup]: the one-time secret and the QR-encodable
// otpauth URI. The client keeps no copy; the value must not outlive the
// enrollment exchange. Call [MFAProvisioning.Wipe] once it has been
// rendered.
type MFAProvisioning struct {
	Secret string
	URI    string
}

// Wipe clears the provisioning fields so the secret does not linger in a
// reachable value after enrollment.
func (p *MFAProvisioning) Wipe() {
	if p == nil {
		return
	}
	p.Secret = ""
	p.URI = ""
}

func userFromWire(w *wire.User) *User {
	if w == nil {
		return nil
	}
	return &User{
		ID:        w.ID,
		Email:     w.Email,
		FirstName: w.FirstName,
		LastName:  w.LastName,
	}
}

func tenantFromWire(w *wire.Tenant) *Tenant {
	if w == nil {
		return nil
	}
	return &Tenant{
		ID:     w.ID,
		Name:   w.Name,
		Slug:   w.Slug,
		Status: w.Status,
	}
}

func membershipsFromWire(ws []wire.Membership) []Membership {
	if len(ws) == 0 {
		return nil
	}
	out := make([]Membership, 0, len(ws))
	for _, m := range ws {
		role, _ := access.ParseRole(m.Role)
		out = append(out, Membership{
			Tenant: *tenantFromWire(&m.Tenant),
			Role:   role,
		})
	}
	return out
}
