package cli

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/roach88/sieve/internal/records"
	"github.com/roach88/sieve/internal/sample"
)

// LoadError represents an error that occurred while resolving a shape or
// loading records.
type LoadError struct {
	Code    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// lookupShape resolves a registered shape name.
func lookupShape(name string) (reflect.Type, error) {
	shape, ok := sample.Shape(name)
	if !ok {
		return nil, &LoadError{
			Code:    ErrCodeUnknownShape,
			Message: fmt.Sprintf("unknown shape %q (known: %s)", name, strings.Join(sample.ShapeNames(), ", ")),
		}
	}
	return shape, nil
}

// loadRecords reads a record file into values of shape. An empty path selects
// the built-in people when shape is the person shape.
func loadRecords(path string, shape reflect.Type) ([]any, error) {
	if path == "" {
		if shape != reflect.TypeOf(sample.Person{}) {
			return nil, &LoadError{Code: ErrCodeRecords, Message: fmt.Sprintf("--records is required for shape %v", shape)}
		}
		people := sample.People()
		recs := make([]any, len(people))
		for i, p := range people {
			recs[i] = p
		}
		return recs, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("records file not found: %s", path)}
	}
	recs, err := records.Load(path, shape)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeRecords, Message: err.Error()}
	}
	return recs, nil
}
