package internaldefs

import (
	sessionkit "github.com/TransferAgent/sessionkit"
)

// CounterDef defines a public type used by sessionkit APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   sessionkit.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by sessionkit APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   sessionkit.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the session client.
var CounterDefs = []CounterDef{
	{ID: sessionkit.MetricLoginSuccess, Name: "sessionkit_login_success_total", Help: "Successful login attempts."},
	{ID: sessionkit.MetricLoginFailure, Name: "sessionkit_login_failure_total", Help: "Failed login attempts."},
	{ID: sessionkit.MetricLoginMFARequired, Name: "sessionkit_login_mfa_required_total", Help: "Logins suspended for a second factor."},
	{ID: sessionkit.MetricRegisterSuccess, Name: "sessionkit_register_success_total", Help: "Successful registrations."},
	{ID: sessionkit.MetricRegisterFailure, Name: "sessionkit_register_failure_total", Help: "Failed registrations."},
	{ID: sessionkit.MetricRefreshSuccess, Name: "sessionkit_refresh_success_total", Help: "Successful credential refreshes."},
	{ID: sessionkit.MetricRefreshFailure, Name: "sessionkit_refresh_failure_total", Help: "Failed credential refreshes."},
	{ID: sessionkit.MetricRefreshCoalesced, Name: "sessionkit_refresh_coalesced_total", Help: "Refresh requests served by a shared exchange."},
	{ID: sessionkit.MetricRequestRetried, Name: "sessionkit_request_retried_total", Help: "Requests replayed after a refresh."},
	{ID: sessionkit.MetricRequestUnauthorized, Name: "sessionkit_request_unauthorized_total", Help: "Requests rejected after a replay."},
	{ID: sessionkit.MetricTenantSwitch, Name: "sessionkit_tenant_switch_total", Help: "Local tenant switches."},
	{ID: sessionkit.MetricTenantContextFailure, Name: "sessionkit_tenant_context_failure_total", Help: "Failed tenant context loads."},
	{ID: sessionkit.MetricMFAVerifySuccess, Name: "sessionkit_mfa_verify_success_total", Help: "Successful second-factor verifications."},
	{ID: sessionkit.MetricMFAVerifyFailure, Name: "sessionkit_mfa_verify_failure_total", Help: "Failed second-factor verifications."},
	{ID: sessionkit.MetricLogout, Name: "sessionkit_logout_total", Help: "Logout operations."},
	{ID: sessionkit.MetricSessionExpired, Name: "sessionkit_session_expired_total", Help: "Sessions ended by credential rejection."},
	{ID: sessionkit.MetricPasswordChangeSuccess, Name: "sessionkit_password_change_success_total", Help: "Successful password changes."},
	{ID: sessionkit.MetricPasswordChangeFailure, Name: "sessionkit_password_change_failure_total", Help: "Failed password changes."},
}

// HistogramDefs is an exported constant or variable used by the session client.
var HistogramDefs = []HistogramDef{
	{ID: sessionkit.MetricLoginLatency, Name: "sessionkit_login_latency_seconds", Help: "Login latency histogram."},
	{ID: sessionkit.MetricRefreshLatency, Name: "sessionkit_refresh_latency_seconds", Help: "Credential refresh latency histogram."},
	{ID: sessionkit.MetricRequestLatency, Name: "sessionkit_request_latency_seconds", Help: "Pipeline request latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the session client.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the session client.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets may return an error when input validation, dependency calls, or security checks fail.
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets may return an error when input validation, dependency calls, or security checks fail.
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
