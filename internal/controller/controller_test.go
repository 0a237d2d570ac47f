package controller

import (
	"context"
	"fmt"
	"testing"
	"time"

	"codeberg.org/mutker/fanctl/internal/curve"
	"codeberg.org/mutker/fanctl/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// orderedDriver records every driver call in order.
type orderedDriver struct {
	ops         []string
	freqQueries int
	applyErr    error
}

func (d *orderedDriver) SetFrequency(pin, freqHz int) error { return nil }
func (d *orderedDriver) SetRange(pin, rng int) error        { return nil }

func (d *orderedDriver) SetDutyCycle(pin, dutyCycle int) error {
	if d.applyErr != nil {
		return d.applyErr
	}
	d.ops = append(d.ops, fmt.Sprintf("duty:%d", dutyCycle))
	return nil
}

func (d *orderedDriver) Frequency(pin int) (int, error) {
	d.freqQueries++
	return 40000, nil
}

func (d *orderedDriver) Close() error {
	d.ops = append(d.ops, "close")
	return nil
}

func (d *orderedDriver) applies() []string {
	var out []string
	for _, op := range d.ops {
		if op != "close" {
			out = append(out, op)
		}
	}
	return out
}

type scriptedSensor struct {
	temps []float64
	next  int
	err   error
}

func (s *scriptedSensor) Temperature() (float64, error) {
	if s.err != nil {
		return 0, s.err
	}
	if s.next >= len(s.temps) {
		return s.temps[len(s.temps)-1], nil
	}
	t := s.temps[s.next]
	s.next++
	return t, nil
}

// runScripted runs the controller over the given temperatures, one per
// iteration, canceling after the last sample's sleep.
func runScripted(t *testing.T, drv *orderedDriver, temps []float64, minDC, maxDC, precision int) error {
	t.Helper()

	table, err := curve.New(minDC, maxDC, precision)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	iterations := 0
	old := sleepFn
	sleepFn = func(time.Duration) {
		iterations++
		if iterations >= len(temps) {
			cancel()
		}
	}
	t.Cleanup(func() { sleepFn = old })

	c := New(Config{Pin: 23, FrequencyHz: 40000}, table, drv, &scriptedSensor{temps: temps}, nil)
	return c.Run(ctx)
}

func TestApplyOnlyOnChange(t *testing.T) {
	drv := &orderedDriver{}
	temps := []float64{32, 33.5, 47, 47.2, 60, 60.9, 81}

	require.NoError(t, runScripted(t, drv, temps, 20, 40, 10))

	// 7 samples, 4 value changes (20, 26, 32, 40), plus the forced 0 on
	// shutdown. Unchanged targets cause no backend call.
	assert.Equal(t, []string{"duty:20", "duty:26", "duty:32", "duty:40", "duty:0"}, drv.applies())
}

func TestCancellationCleanupOrder(t *testing.T) {
	drv := &orderedDriver{}

	require.NoError(t, runScripted(t, drv, []float64{55}, 20, 40, 10))

	// Exactly one apply(0) and one close, in that order, as the final
	// actions.
	require.GreaterOrEqual(t, len(drv.ops), 2)
	assert.Equal(t, "duty:0", drv.ops[len(drv.ops)-2])
	assert.Equal(t, "close", drv.ops[len(drv.ops)-1])

	zeroes, closes := 0, 0
	for _, op := range drv.ops {
		switch op {
		case "duty:0":
			zeroes++
		case "close":
			closes++
		}
	}
	assert.Equal(t, 1, zeroes)
	assert.Equal(t, 1, closes)
}

func TestImmediateCancelStillCleansUp(t *testing.T) {
	table, err := curve.New(20, 40, 10)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	drv := &orderedDriver{}
	c := New(Config{Pin: 23, FrequencyHz: 40000}, table, drv, &scriptedSensor{temps: []float64{50}}, nil)
	require.NoError(t, c.Run(ctx))

	assert.Equal(t, []string{"duty:0", "close"}, drv.ops)
}

func TestFatalApplyErrorSkipsCleanup(t *testing.T) {
	table, err := curve.New(20, 40, 10)
	require.NoError(t, err)

	errFactory := errors.New()
	drv := &orderedDriver{applyErr: errFactory.New(errors.ErrInternal)}

	old := sleepFn
	sleepFn = func(time.Duration) { t.Fatal("loop must fail before sleeping") }
	t.Cleanup(func() { sleepFn = old })

	c := New(Config{Pin: 23, FrequencyHz: 40000}, table, drv, &scriptedSensor{temps: []float64{50}}, nil)
	err = c.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, ErrApplyFailed, errors.CodeOf(err))

	// No fail-safe on abnormal termination: neither apply(0) nor close.
	assert.Empty(t, drv.ops)
}

func TestSensorErrorIsFatal(t *testing.T) {
	table, err := curve.New(20, 40, 10)
	require.NoError(t, err)

	errFactory := errors.New()
	drv := &orderedDriver{}
	src := &scriptedSensor{err: errFactory.New(errors.ErrInternal)}

	c := New(Config{Pin: 23, FrequencyHz: 40000}, table, drv, src, nil)
	err = c.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, ErrSensorFailed, errors.CodeOf(err))
	assert.Empty(t, drv.ops)
}

func TestFrequencyReportedOnEntry(t *testing.T) {
	drv := &orderedDriver{}

	require.NoError(t, runScripted(t, drv, []float64{50}, 20, 40, 10))
	assert.Equal(t, 1, drv.freqQueries)
}

func TestZeroTargetNotAppliedAtStartup(t *testing.T) {
	drv := &orderedDriver{}

	// min duty cycle 0 and a cold CPU: the target equals the startup
	// sentinel, so no backend call is made until the value changes.
	require.NoError(t, runScripted(t, drv, []float64{20, 20, 55}, 0, 100, 10))
	assert.Equal(t, []string{"duty:50", "duty:0"}, drv.applies())
}
