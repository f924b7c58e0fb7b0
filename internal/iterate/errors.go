package iterate

import "errors"

var (
	// ErrInvalidThreshold is returned when a threshold is constructed with a negative value.
	ErrInvalidThreshold = errors.New("threshold value must not be negative")

	// ErrTypeMismatch is returned when a stage receives or produces a value
	// that violates its declared type.
	ErrTypeMismatch = errors.New("stage type mismatch")

	// ErrReservedKey is returned on attempts to write a reserved context key.
	ErrReservedKey = errors.New("context key is reserved")

	// ErrInvalidArgument is returned when a close reason message is empty.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNilStageFunc is returned when a stage is constructed without a function.
	ErrNilStageFunc = errors.New("stage function must not be nil")

	// ErrNilSource is returned when a manager is configured without a primary sequence.
	ErrNilSource = errors.New("primary sequence must not be nil")
)
