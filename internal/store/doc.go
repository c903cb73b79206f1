// Package store provides an optional SQLite run log for tagloop.
//
// Every harness run can be recorded as one row in runs plus one row per
// invocation in invocations, so that long stress runs can be inspected after
// the fact with "tagloop history".
//
// # Ordering
//
// Invocations are always read ORDER BY idx ASC, the harness's invocation index.
// Runs are listed newest first, ties broken by id.
//
// # Database Configuration
//
//   - WAL mode: history can be read while a run is writing
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: invocations must reference an existing run
package store
