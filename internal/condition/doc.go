// Package condition parses JSON:API-style bracket filter query strings into
// condition trees.
//
// A condition tree is a root Group (always named "root", conjunction And)
// whose children are leaf Conditions and nested Groups:
//
//	filter[score][$gt]=80                         score > 80
//	filter[profile.city]=Berlin                   profile.city == "Berlin"
//	filter[profile][city][$startswith]=Ber        same path, multi-bracket form
//	filter[$or][0][status][$eq]=active            implicit group "status-or-group"
//	filter[group]=people                          declares group "people" (And)
//	filter[$or][group]=people                     declares group "people" (Or)
//	filter[people][$or][0][age][$lt]=18           condition inside group "people"
//	filter[outer][group]=inner                    group "inner" nested in "outer"
//	filter[age][$between]=18,65                   multi-valued operators split on ","
//
// Parsing never fails. Pairs whose key does not decompose, that use an unknown
// $operator, or that nest conjunction keywords in unexpected places are dropped
// silently (logged at Debug level). A Condition with a blank path is kept; it is
// the predicate compiler that treats it as inapplicable.
//
// Names are synthetic and unique within one parse: conditions are named
// "<path>-<n>" with n counting conditions on the same path in input order, and
// implicit conjunction groups are named "<path>-and-group" or "<path>-or-group".
// A group's conjunction is the first one stated for its name, by a declaration
// or by a condition key; a group whose name never comes with $and or $or is an
// And group. Its parent is likewise the first one declared. Later conflicting
// values are ignored.
//
// Trees are immutable once returned. Canonical and ID give a content-addressed
// identity used by predicate caches.
package condition
