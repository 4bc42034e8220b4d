package wire

// User is the identity record as the identity service serializes it.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Tenant is an organization record.
type Tenant struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Status string `json:"status"`
}

// Membership pairs a tenant with the caller's role in it.
type Membership struct {
	Tenant Tenant `json:"tenant"`
	Role   string `json:"role"`
}

// TenantContext is the tenant service's answer to "who am I acting as".
type TenantContext struct {
	CurrentTenant    *Tenant      `json:"current_tenant"`
	CurrentRole      string       `json:"current_role"`
	AvailableTenants []Membership `json:"available_tenants"`
}

// LoginRequest carries the identifier/secret pair.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
}

// RegisterRequest carries the registration payload. InviteToken binds the
// new account to a pre-existing invitation when present.
type RegisterRequest struct {
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	FirstName            string `json:"first_name,omitempty"`
	LastName             string `json:"last_name,omitempty"`
	InviteToken          string `json:"invite_token,omitempty"`
}

// SessionGrant is the success payload of every exchange that can produce a
// credential: login, register, step-up confirmation, MFA disable, password
// change. A login that requires a second factor carries MFARequired and the
// opaque challenge reference instead of a token.
type SessionGrant struct {
	AccessToken  string `json:"access_token,omitempty"`
	MFARequired  bool   `json:"mfa_required,omitempty"`
	MFAChallenge string `json:"mfa_challenge,omitempty"`
	User         *User  `json:"user,omitempty"`
}

// RefreshResponse carries the replacement credential.
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

// MFAStatus mirrors the server's step-up state for the account.
type MFAStatus struct {
	Enabled      bool `json:"enabled"`
	PendingSetup bool `json:"pending_setup"`
	DeviceCount  int  `json:"device_count"`
}

// MFAProvisioning is the enrollment payload: a one-time secret and the
// QR-encodable URI. It must not outlive the enrollment exchange.
type MFAProvisioning struct {
	Secret string `json:"secret"`
	URI    string `json:"otpauth_uri"`
}

// FeatureUsage is the billing service's entitlement map for the active
// tenant.
type FeatureUsage map[string]bool
