// Package querysql compiles queryir queries to parameterized SQLite SQL.
//
// Literals are always bound as parameters, never interpolated. Column names
// come from SQLCompiler.Column and are never taken from literals. Every
// SELECT ends with a deterministic ORDER BY on the store's insertion key.
//
// Absent members are stored as NULL. The generated SQL keeps the in-memory
// evaluator's semantics for them: negated tests (Ne, NotIn, NotBetween,
// negated matches) are true for NULL, everything else is false.
package querysql
