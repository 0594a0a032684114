package domain

import "errors"

var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists is returned when a resource already exists
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidSort is returned when a sort key is rejected under strict sorting
	ErrInvalidSort = errors.New("invalid sort key")

	// ErrInvalidFilter is returned when a filter type is not a known facet
	ErrInvalidFilter = errors.New("invalid filter type")
)
