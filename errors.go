package arbor

import (
	"errors"
	"fmt"
)

var (
	// ErrNoLocalState is reported when an operation needs an Instance the
	// value does not carry.
	ErrNoLocalState = errors.New("arbor: value has no local state")
	// ErrNoParent is reported when a child cannot be attached because no
	// parent could be resolved.
	ErrNoParent = errors.New("arbor: no resolvable parent")
	// ErrDestroyed is reported for operations on destroyed nodes.
	ErrDestroyed = errors.New("arbor: node destroyed")
	// ErrInvalidPriority is reported when a priority attribute does not parse.
	ErrInvalidPriority = errors.New("arbor: invalid priority")
	// ErrUnknownType is reported when a tag has no catalogue entry.
	ErrUnknownType = errors.New("arbor: unknown type")
	// ErrUnknownProp is reported when a prop key resolves to nothing.
	ErrUnknownProp = errors.New("arbor: unknown property")
	// ErrConfig is reported for invalid configuration values.
	ErrConfig = errors.New("arbor: invalid configuration")
	// ErrScript is returned for malformed mutation scripts.
	ErrScript = errors.New("arbor: script error")
)

// configError logs a recoverable configuration problem. The caller goes on
// with a default.
func configError(err error, args ...any) {
	logger.Warn(err.Error(), args...)
}

// report logs a structural error. The caller skips the operation.
func report(err error, args ...any) {
	logger.Error(err.Error(), args...)
}

// errorf wraps a sentinel with context.
func errorf(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}
