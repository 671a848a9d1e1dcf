package operators

import "github.com/roach88/sieve/internal/errors"

var (
	errNotOrderable = errors.New("member type has no ordering")
	errBothRequired = errors.New("both values required")
)
