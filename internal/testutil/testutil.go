// Package testutil holds helpers shared by the package tests.
package testutil

import "github.com/roach88/sieve/internal/sample"

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// Names returns the Name of each person, in order.
func Names(people []sample.Person) []string {
	names := make([]string, len(people))
	for i, p := range people {
		names[i] = p.Name
	}
	return names
}
