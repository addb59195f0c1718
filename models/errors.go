package models

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrNotFound            = errors.New("not found")
	ErrNotConsumable       = errors.New("tool is not consumable")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidWorker       = errors.New("worker is required")
	ErrInstanceUnavailable = errors.New("instance is not available")
	ErrInstanceNotLoaned   = errors.New("instance is not loaned")
	ErrMalformedPayload    = errors.New("malformed code payload")
	ErrStorage             = errors.New("storage failure")
	ErrForbidden           = errors.New("forbidden")
)

var domainErrors = []error{
	ErrInvalidInput, ErrNotFound, ErrNotConsumable, ErrInvalidAmount, ErrInvalidWorker,
	ErrInstanceUnavailable, ErrInstanceNotLoaned, ErrMalformedPayload, ErrStorage, ErrForbidden,
}

// IsDomain reports whether err already carries one of the sentinel kinds above.
func IsDomain(err error) bool {
	for _, e := range domainErrors {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
