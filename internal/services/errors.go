package services

import (
	"errors"
	"fmt"
)

// ErrPersistence marks failures of the underlying store. Callers treat it as fatal
// for the request; nothing is retried.
var ErrPersistence = errors.New("persistence failure")

func persistenceError(op string, err error) error {
	return fmt.Errorf("%w: failed to %s: %w", ErrPersistence, op, err)
}
