// Package claims reads the platform's access-token claims without verifying
// them.
//
// # Design
//
// The client never holds verification keys; token validity is the identity
// service's decision, delivered as HTTP 401. What the client may legitimately
// read is the token's own schedule: expiry and issue time, plus the subject
// and tenant hints for diagnostics. Parsing uses the JWT library's unverified
// path and every result is advisory.
//
// # What this package must NOT do
//
//   - Verify signatures or manage keys.
//   - Feed any parsed value into an authorization decision.
//   - Import sessionkit or any sibling internal package.
package claims
