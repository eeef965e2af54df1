package neorm

import "errors"

// Sentinel errors.
var (
	// ErrConfigNotFound is returned when no .neorm.yaml is found.
	ErrConfigNotFound = errors.New("neorm: no .neorm.yaml found")

	// ErrUnsupportedConstraint is returned for constraint specs other than unique.
	ErrUnsupportedConstraint = errors.New("neorm: unsupported constraint type")

	// ErrNotAStruct is returned when Define is given something other than a
	// struct or pointer to struct.
	ErrNotAStruct = errors.New("neorm: model must be a struct or pointer to struct")

	// ErrNoLabel is returned when a model ends up with no mapped labels.
	ErrNoLabel = errors.New("neorm: model has no mapped labels")

	// ErrGateClosed is returned for work submitted after the gate is closed.
	ErrGateClosed = errors.New("neorm: session gate is closed")

	// ErrNoMatchProperties is returned when a merge is attempted without
	// any properties to match on.
	ErrNoMatchProperties = errors.New("neorm: merge requires at least one match property")
)
