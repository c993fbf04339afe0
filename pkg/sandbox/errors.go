package sandbox

import (
	"errors"
	"fmt"
)

var (
	// ErrLoad matches every *LoadError
	ErrLoad = errors.New("module image load failed")

	// ErrInvalidState is returned by operations on a context in the wrong
	// state, and by every derived handle once its context is torn down
	ErrInvalidState = errors.New("invalid sandbox state")
)

// LoadError reports a missing or malformed module image. A failed load leaves
// the context as it was.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func (e *LoadError) Is(target error) bool {
	return target == ErrLoad
}

func invalidState(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}
