// Package store provides a SQLite-backed table store for filter evaluation
// against a remote query engine.
//
// Records of a Go shape are flattened into one table per shape:
//   - exported scalar fields become columns named by ColumnName
//   - nested structs (and pointers to them) are flattened with a "_" join,
//     so Address.City is stored in address_city
//   - slices, maps and interface members are stored as JSON text
//
// Every table carries an INTEGER PRIMARY KEY named SeqColumn holding the
// insertion order. Queries order by it so results are deterministic.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - REGEXP: registered per connection, backed by regexp2 with a match timeout (WithRegexTimeout)
//
// The catalog table records the shape and column layout of each table created
// through CreateTable.
package store
