// Package harness runs filter scenarios as executable contract tests.
//
// A scenario names a record shape, a set of records and one filter query
// string, then states what the query must select and what the parsed
// condition tree must look like.
//
// # Scenario Format
//
//	name: score_window
//	description: "Scores strictly above 80"
//	shape: person          # record shape (see sample.ShapeNames)
//	query: "filter[score][$gt]=80"
//	param: filter          # optional, defaults to "filter"
//	key: name              # member that identifies records in expect lists
//	remote: true           # also run the query through the SQLite store
//	records:               # optional; "person" defaults to the sample people
//	  - {name: Ada, score: 92.5}
//	expect:
//	  match: [Ada]         # records the predicate selects, in order
//	  error: format        # or: the compile error kind expected instead
//	assertions:
//	  - type: tree_contains
//	    condition: score-0
//	    path: score
//	    operator: GreaterThan
//	    member_of: root
//
// # Assertion Types
//
//   - tree_contains: a condition with the given name exists, with the given
//     path, operator, values and parent when those are set
//   - tree_group: a group with the given name exists, with the given
//     conjunction and parent when those are set
//   - tree_count: the tree holds exactly Count conditions
//   - expr: the compiled data form renders as Expr
//   - portable: queryir.Validate reports Portable
//
// Golden snapshots of the tree, the data form and the selection are stored
// under testdata/golden and compared with goldie.
package harness
