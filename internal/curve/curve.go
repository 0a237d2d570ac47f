package curve

import (
	"math"

	"codeberg.org/mutker/fanctl/internal/errors"
)

// Temperatures below MinTemp get the minimum duty cycle, temperatures
// at or above MaxTemp the maximum. Both are fixed for the supported
// hardware and not configurable.
const (
	MinTemp = 30
	MaxTemp = 80
)

// Precisions lists the allowed subdivision counts for the temperature
// and duty-cycle ranges.
var Precisions = []int{5, 10, 25, 50}

const (
	minDutyCycleCeil  = 95
	maxDutyCycleFloor = 5
	dutyCycleMax      = 100
)

// Table maps quantized temperatures to duty-cycle values. It is built
// once and never mutated: thresholds[i] carries the duty cycle
// dutyCycles[i], both slices strictly ascending with precision+1
// entries each.
type Table struct {
	minDC      int
	maxDC      int
	tempStep   int
	thresholds []int
	dutyCycles []int
}

// Validate checks the duty-cycle bounds and precision against the
// invariants the table construction relies on. The config layer uses
// the same checks, so a Table can be built from any inputs that passed
// CLI validation.
func Validate(minDC, maxDC, precision int) error {
	errFactory := errors.New()

	if minDC < 0 || minDC > minDutyCycleCeil {
		return errFactory.WithData(ErrInvalidDutyCycle, "min duty cycle value should belong to [0,95]")
	}
	if maxDC < maxDutyCycleFloor || maxDC > dutyCycleMax {
		return errFactory.WithData(ErrInvalidDutyCycle, "max duty cycle value should belong to [5,100]")
	}
	if minDC >= maxDC {
		return errFactory.WithData(ErrInvalidDutyCycle, "min duty cycle value should be less than max duty cycle value")
	}
	if !validPrecision(precision) {
		return errFactory.WithData(ErrInvalidPrecision, "valid precision values are 5, 10, 25, and 50")
	}
	if (maxDC-minDC)%precision != 0 {
		return errFactory.WithData(ErrIndivisibleRange, "duty cycle range should be a multiple of precision value")
	}

	return nil
}

func validPrecision(precision int) bool {
	for _, p := range Precisions {
		if precision == p {
			return true
		}
	}

	return false
}

// New builds the lookup table for the given duty-cycle bounds and precision.
func New(minDC, maxDC, precision int) (*Table, error) {
	if err := Validate(minDC, maxDC, precision); err != nil {
		return nil, err
	}

	t := &Table{
		minDC:    minDC,
		maxDC:    maxDC,
		tempStep: (MaxTemp - MinTemp) / precision,
	}

	dcStep := (maxDC - minDC) / precision
	for i := 0; i <= precision; i++ {
		t.thresholds = append(t.thresholds, MinTemp+i*t.tempStep)
		t.dutyCycles = append(t.dutyCycles, minDC+i*dcStep)
	}

	return t, nil
}

// Lookup returns the duty cycle for the given temperature. The value is
// floored to an integer, quantized down to the nearest threshold and
// clamped into [MinTemp, MaxTemp]; the result is the duty cycle aligned
// to that threshold. Total and monotonic non-decreasing for any input.
func (t *Table) Lookup(tempC float64) int {
	// Clamp in float space: conversion to int is only defined within
	// the int range, and NaN compares false against everything.
	if math.IsNaN(tempC) || tempC < MinTemp {
		tempC = MinTemp
	}
	if tempC > MaxTemp {
		tempC = MaxTemp
	}

	temp := int(math.Floor(tempC))
	temp = temp / t.tempStep * t.tempStep

	return t.dutyCycles[(temp-MinTemp)/t.tempStep]
}

// Thresholds returns the ascending temperature thresholds.
func (t *Table) Thresholds() []int {
	return t.thresholds
}

// DutyCycles returns the ascending duty-cycle values.
func (t *Table) DutyCycles() []int {
	return t.dutyCycles
}

// MinDutyCycle returns the configured minimum duty cycle.
func (t *Table) MinDutyCycle() int {
	return t.minDC
}

// MaxDutyCycle returns the configured maximum duty cycle.
func (t *Table) MaxDutyCycle() int {
	return t.maxDC
}
