// Package credential owns the client-held bearer credential: one in-memory value
// mirrored into a durable, bounded-lifetime slot.
//
// # Model
//
// [Store] is the single source of truth for the credential. Memory is
// authoritative within a process; the [Slot] exists so a restarted or sibling
// process can resume a live session. Every slot write carries a TTL so a
// credential can never outlive its exposure bound, and [Store.Clear] wipes both
// layers.
//
// # Slots
//
// [MemorySlot] is the default: process-scoped, gone when the process is. The
// Redis-backed [RedisSlot] serves multi-process workers sharing one logical
// session. Both store the bearer credential only; the refresh secret lives in an
// HttpOnly cookie owned by the HTTP client's jar and never passes through this
// package.
//
// # Architecture boundaries
//
// This package performs no HTTP and makes no authorization decisions. Redis is
// the only I/O, and only through a [Slot].
//
// # What this package must NOT do
//
//   - Store refresh secrets, passwords, or one-time codes.
//   - Import sessionkit, access, or wire.
//   - Persist a credential without a TTL bound.
package credential
