package convert

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrDone      = errors.New("conversion is done")
	ErrStreaming = errors.New("conversion is already streaming")
)

// LifecycleError is returned for calls that are not valid in the current
// state of the Converter.
type LifecycleError struct {
	Op    string
	State State
	Err   error
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("%s in state %s: %v", e.Op, e.State, e.Err)
}

func (e *LifecycleError) Unwrap() error { return e.Err }

func IsLifecycleError(err error) bool {
	var le *LifecycleError
	return errors.As(err, &le)
}
