package strip

import (
	"errors"
	"fmt"
)

// Error kinds. Errors returned by Driver wrap one of these and, where there
// is one, the underlying cause; test with errors.Is.
var (
	ErrInit             = errors.New("strip: peripheral init failed")
	ErrInvalidParameter = errors.New("strip: invalid parameter")
	ErrNotInitialized   = errors.New("strip: not initialized")
	ErrPeripheral       = errors.New("strip: peripheral write failed")
	ErrNoMemory         = errors.New("strip: frame buffer too large")

	errShortWrite = errors.New("short write")
)

func wrap(kind error, op string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: %s", kind, op)
	}
	return fmt.Errorf("%w: %s: %w", kind, op, cause)
}
