package apperrors

import "errors"

var (
	// ErrNotFound covers missing records and ownership-chain mismatches alike,
	// so a caller probing another provider's pool cannot distinguish "exists
	// but not yours" from "does not exist".
	ErrNotFound = errors.New("not found")

	ErrDuplicateReference = errors.New("reference number already registered for provider")
	ErrInvalidProvider    = errors.New("unknown provider")
	ErrInvalidStepType    = errors.New("step type not in provider vocabulary")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidKind        = errors.New("invalid application kind")
	ErrImmutableField     = errors.New("field is immutable after creation")
	ErrCategoryRequired   = errors.New("document category required for provider")
	ErrStorageFailure     = errors.New("object storage failure")
)
