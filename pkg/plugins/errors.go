package plugins

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrOperationCancelled is returned when the cancellation signal fires
	ErrOperationCancelled = errors.New("operation cancelled")

	// ErrDiscovery marks a declaration that could not be inspected
	ErrDiscovery = errors.New("discovery error")
)

// Cancelled returns an error matching ErrOperationCancelled that also wraps the
// context's cause, so errors.Is(err, context.DeadlineExceeded) keeps working.
func Cancelled(ctx context.Context) error {
	cause := context.Cause(ctx)
	if cause == nil {
		return ErrOperationCancelled
	}
	return fmt.Errorf("%w: %w", ErrOperationCancelled, cause)
}

// DiscoveryError reports a declaration skipped during discovery
type DiscoveryError struct {
	Module string
	Type   string
	Reason string
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("skipped %s.%s: %s", e.Module, e.Type, e.Reason)
}

func (e *DiscoveryError) Is(target error) bool {
	return target == ErrDiscovery
}
