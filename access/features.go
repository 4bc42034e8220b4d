package access

// FeatureUsage maps a feature key to whether the active tenant's subscription
// tier enables it. Delivered by the billing service; read-only on the client.
type FeatureUsage map[string]bool

// Feature keys known to the platform. The gate accepts arbitrary keys; these
// constants exist so call sites do not scatter string literals.
const (
	FeatureEmailInvitations      = "email_invitations"
	FeatureCertificateManagement = "certificate_management"
	FeatureAPIAccess             = "api_access"
)

// FeatureEnabled is the feature-gate predicate. Fail-closed: a nil map, an
// empty key, or an absent key all deny. Callers render an upgrade affordance
// on denial, not an error.
func FeatureEnabled(key string, usage FeatureUsage) bool {
	if key == "" || usage == nil {
		return false
	}
	return usage[key]
}

// Clone returns an independent copy of the usage map. A nil receiver clones
// to nil.
func (u FeatureUsage) Clone() FeatureUsage {
	if u == nil {
		return nil
	}
	out := make(FeatureUsage, len(u))
	for k, v := range u {
		out[k] = v
	}
	return out
}
