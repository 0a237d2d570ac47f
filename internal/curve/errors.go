package curve

import "codeberg.org/mutker/fanctl/internal/errors"

const (
	ErrInvalidDutyCycle = errors.ErrorCode("curve_invalid_duty_cycle")
	ErrInvalidPrecision = errors.ErrorCode("curve_invalid_precision")
	ErrIndivisibleRange = errors.ErrorCode("curve_indivisible_range")
)
