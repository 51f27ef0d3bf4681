package domain

import "errors"

// Sentinel errors used across layers.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidAmount     = errors.New("boost amount must be a positive number")
	ErrUnknownCompetitor = errors.New("unknown competitor")
	ErrUnsupported       = errors.New("speech is not supported in this runtime")
	ErrUnknownProvider   = errors.New("unknown speech provider")
)
