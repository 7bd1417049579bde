// internal/util/errors.go
package util

import "errors"

// Common application-specific errors.
var (
	ErrInvalidInput = errors.New("invalid input provided")
	ErrStorage      = errors.New("storage failure") // Any fault raised by the store; never classified further
)

// IsError reports whether any error in err's chain matches target.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}
