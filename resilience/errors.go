package resilience

import (
	"errors"
	"fmt"

	"github.com/poiesic/docqa/core"
)

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")
	// ErrInvalidMultiplier is returned when the backoff multiplier is < 1
	ErrInvalidMultiplier = errors.New("multiplier must be at least 1")
	// ErrInvalidJitter is returned when the jitter fraction is outside [0, 1]
	ErrInvalidJitter = errors.New("jitter must be between 0 and 1")
)

// ExhaustedError reports that every permitted attempt failed with a retryable error.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s after %d attempts: %v", core.ErrProviderTransient, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Is makes an ExhaustedError match core.ErrProviderTransient.
func (e *ExhaustedError) Is(target error) bool {
	return target == core.ErrProviderTransient
}
