// Package tokenstore provides durable local persistence for the current
// login's token pair and expiry metadata.
//
// The Store interface is intentionally narrow (Get/Set/Clear) so the
// backing medium can be swapped without touching the session manager:
// FileStore persists a single session.json with restrictive permissions,
// MemoryStore backs tests and ephemeral runs.
//
// The session manager is the sole writer of a Store; everything else
// receives cloned, immutable snapshots. A Watcher can additionally detect
// session changes written by a sibling process and invalidate the
// FileStore cache.
package tokenstore
