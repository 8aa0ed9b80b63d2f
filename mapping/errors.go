package mapping

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrFrozen           = errors.New("configuration is frozen")
	ErrDuplicate        = errors.New("already declared")
	ErrUnknownLayer     = errors.New("unknown layer")
	ErrUnknownAttribute = errors.New("attribute not declared on layer")
	ErrUnknownType      = errors.New("unknown attribute type")
	ErrReservedName     = errors.New("reserved column name")
	ErrLayerNotSet      = errors.New("rule has no target layer")
	ErrLayerAlreadySet  = errors.New("rule already has a target layer")
	ErrGeometryMismatch = errors.New("entity kind does not produce the layer geometry")
	ErrInvalidMatch     = errors.New("invalid match specification")
	ErrInvalidAttribute = errors.New("invalid attribute source")
	ErrUnknownDerived   = errors.New("unknown derived function")
)

// ConfigError is returned for all invalid configuration calls. Op is the
// failed operation, Name the layer, attribute or key it was called with.
type ConfigError struct {
	Op   string
	Name string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("config error in %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("config error in %s(%q): %v", e.Op, e.Name, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func configError(op, name string, err error) error {
	return &ConfigError{Op: op, Name: name, Err: err}
}

// IsConfigError returns true if err is or wraps a *ConfigError.
func IsConfigError(err error) bool {
	var cerr *ConfigError
	return errors.As(err, &cerr)
}
