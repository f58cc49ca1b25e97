// Package store persists scenes and the keying log in SQLite.
//
// A database holds one scene snapshot (preferences, objects, properties,
// curves and their keys) and an append-only keying log with one row per
// InsertKeys batch.
//
// # Ordering
//
// Log rows are ordered by seq, the dispatcher's logical clock, never by
// wall time. Every log query uses ORDER BY seq ASC, batch_id ASC COLLATE
// BINARY so reads are identical across runs.
//
// Keys are stored as JSON with their exact control points, next to the
// key time and value columns used for filtering.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
