// Package predicate compiles condition trees into reusable record predicates.
//
// Compilation runs in two stages. Describe walks the tree for a record
// shape and produces the data form (queryir): groups become And/Or, each
// condition is resolved against the shape and handed to the operator
// registry. Compile then turns that data form into an evaluator and caches
// the result for the process lifetime.
//
// Degradation rules:
//   - a nil tree, an empty group or a nil child contributes true
//   - a condition whose path is blank or does not resolve contributes true
//   - an operator outside the known set aborts compilation
//   - a literal that cannot be coerced to its member type aborts compilation
//   - a Regex pattern with bad syntax fails when first evaluated
//
// The cache is keyed by record shape and by the tree's content hash, so two
// parses of the same query string share one compiled predicate.
package predicate
