// Package access provides the pure role and feature-entitlement predicates used by
// sessionkit authorization decisions.
//
// # Roles
//
// Roles form a single privilege order: PlatformAdmin > TenantAdmin > TenantStaff >
// Shareholder. A gate configured with a required role grants any role of equal or
// higher privilege. The zero value [RoleNone] satisfies nothing.
//
// # Feature entitlements
//
// [FeatureUsage] is the per-tenant map of feature key to enabled flag delivered by
// the billing service. [FeatureEnabled] is fail-closed: an absent key, an empty key,
// or a nil map all deny.
//
// # Architecture boundaries
//
// This package is a pure in-memory decision layer with no I/O. Role gates answer
// "who can act"; feature gates answer "what the tenant is entitled to". The two are
// independent and a denial from either stands alone.
//
// # What this package must NOT do
//
//   - Access the network, Redis, or any storage.
//   - Import sessionkit, credential, or wire.
//   - Render, redirect, or otherwise touch presentation concerns.
package access
