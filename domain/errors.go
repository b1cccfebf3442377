package domain

import (
	"errors"
	"fmt"
)

// ErrInvalid marks input that cannot form a valid aggregate.
var ErrInvalid = errors.New("invalid")

// ErrChildNotFound is returned when a child entity id is unknown to its
// aggregate.
var ErrChildNotFound = errors.New("child entity not found")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...)
}
