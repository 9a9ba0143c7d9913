package intrinsic

import (
	"errors"
	"fmt"
)

// ErrIntrinsic is matched by every *IntrinsicError.
var ErrIntrinsic = errors.New("intrinsic failed")

// IntrinsicError records a host function that failed or panicked while the
// sandboxed program was calling it. It is logged, never returned to the
// interpreter.
type IntrinsicError struct {
	Name string
	Err  error
}

func (e *IntrinsicError) Error() string {
	return fmt.Sprintf("intrinsic %s: %v", e.Name, e.Err)
}

func (e *IntrinsicError) Unwrap() error { return e.Err }

// Is matches ErrIntrinsic.
func (e *IntrinsicError) Is(target error) bool {
	return target == ErrIntrinsic
}
