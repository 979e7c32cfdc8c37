// Package store provides a SQLite-backed single-table item store.
//
// Every item is addressed by a composite key (PK, SK). PK is the partition
// (one per guild) and SK orders items inside it. Attributes are stored as the
// tagged JSON encoding of package attr.
//
// The store offers four primitives:
//   - GetItem: strongly consistent point lookup
//   - Query: prefix range scan over SK, forward or reverse, paginated
//   - QueryAll: Query with the cursor loop hidden
//   - TransactWrite: all-or-nothing Put/Update/Delete with per-item conditions
//
// # Transactions
//
// TransactWrite evaluates every condition against the current state before
// writing anything. If one fails, nothing is written and the caller receives
// a *TransactionCanceledError with one reason per item, in request order.
//
// # Ordering
//
// SK comparisons use BINARY collation, so scans return items in byte order.
// Callers that embed timestamps in SK must use a fixed-width format.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - _txlock=immediate: Transactions take the write lock on BEGIN
package store
