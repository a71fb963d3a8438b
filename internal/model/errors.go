package model

import "errors"

var (
	// ErrValidation marks client-side, field-specific failures that block
	// submission before any network or storage call.
	ErrValidation = errors.New("validation failed")
	// ErrDesync marks a services/moving-orders inconsistency detected at
	// submit time despite an expected sync.
	ErrDesync = errors.New("services and moving orders are out of sync")
)
