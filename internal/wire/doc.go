// Package wire owns the raw HTTP exchanges with the platform's identity,
// tenant, and billing endpoints.
//
// # Design
//
// One method per consumed endpoint, each a plain request/response exchange:
// marshal, send, decode, map non-2xx payloads to [*Error]. The package holds
// two HTTP clients. Authentication endpoints (login, register, refresh, the
// step-up exchanges) go through the direct client so they can never recurse
// into the credential-refresh pipeline. Everything that rides on an existing
// session (current user, tenant context, feature usage, MFA management) goes
// through the authed client, whose transport IS the pipeline.
//
// # Architecture boundaries
//
// This package is mechanics only: it keeps no session state, retries
// nothing, and decides nothing. Interpreting an outcome (store a credential,
// tear down a session, suspend a login) is the sessionkit Client's job.
//
// # What this package must NOT do
//
//   - Hold or cache credentials (the bearer header on direct calls is an
//     explicit per-call argument).
//   - Retry or refresh; the pipeline owns that protocol.
//   - Import sessionkit, credential, or access.
package wire
