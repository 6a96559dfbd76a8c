package service

import (
	"errors"
	"fmt"
)

// ErrValidation marks input the caller has to fix.
var ErrValidation = errors.New("validation failed")

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
