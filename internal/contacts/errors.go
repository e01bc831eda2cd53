package contacts

import "errors"

var (
	// ErrContactNotFound is returned when no contact matches the identifier.
	ErrContactNotFound = errors.New("contact not found")

	// ErrTokenNotFound is returned when no contact matches a cancel token.
	ErrTokenNotFound = errors.New("cancel token not found")
)
