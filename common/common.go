package common

import (
	"errors"
	"fmt"
)

// Shared errors used across packages
var (
	ErrNilPointer        = errors.New("nil pointer")
	ErrInternal          = errors.New("internal invariant violated")
	ErrTypeAssertFailure = errors.New("type assert failure")
)

// AppendError appends an error to a list of existing errors. A nil original
// returns the incoming error unchanged
func AppendError(original, incoming error) error {
	if incoming == nil {
		return original
	}
	if original == nil {
		return incoming
	}
	return errors.Join(original, incoming)
}

// GetTypeAssertError returns additional information for when an assertion failure
// occurs
func GetTypeAssertError(required string, received any, fieldDescription ...string) error {
	var description string
	if len(fieldDescription) > 0 {
		description = " for: " + fieldDescription[0]
	}
	return fmt.Errorf("%w from %T to %s%s", ErrTypeAssertFailure, received, required, description)
}

// Internal marks err as an internal invariant violation
func Internal(err error) error {
	if err == nil || errors.Is(err, ErrInternal) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrInternal, err)
}
