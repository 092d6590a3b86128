package questions

import (
	"errors"
	"fmt"
)

var (
	// ErrPersistence marks a failed write or transaction boundary.
	ErrPersistence = errors.New("question persistence failed")
	// ErrTxDone is returned when a finished transaction is used again.
	ErrTxDone = errors.New("transaction already finished")
)

func persistenceErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
