// Package sessionkit is the session and access-control client for the
// TransferAgent platform: bearer-credential management with coordinated
// refresh-and-replay, a multi-tenant role and feature gate, and a step-up
// MFA flow, all behind one observable session state machine.
//
// The package is designed for concurrent callers: Client methods and the
// [http.Client] returned by [Client.HTTPClient] are safe to use from
// multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// sessionkit is the public surface. It exposes [Client], [Builder],
// [Config], and value types (Snapshot, Report, MetricsSnapshot, etc.),
// plus the access and credential sub-packages. All wire encoding and HTTP
// exchange detail lives under internal/ and is never exported.
//
// # What this package must NOT do
//
//   - Hold secrets it does not need: the refresh secret lives in an
//     HttpOnly cookie and never passes through package code, and no TOTP
//     secret or hash is ever computed client-side.
//   - Decide authorization. Role and feature gates are rendering
//     affordances; the platform re-checks every request server-side.
//   - Trust local claims. The JWT peek is advisory scheduling input only;
//     the session is real only while the platform accepts its credential.
//
// # Concurrency contract
//
// Credential refresh is single-flight: any number of requests hitting
// credential expiry at once produce exactly one refresh exchange, and
// every waiter shares its outcome. A request is replayed at most once;
// state transitions are epoch-guarded so late outcomes from an ended
// session cannot resurrect it.
package sessionkit
