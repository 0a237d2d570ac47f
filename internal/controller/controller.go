package controller

import (
	"context"
	"sync"
	"time"

	"codeberg.org/mutker/fanctl/internal/curve"
	"codeberg.org/mutker/fanctl/internal/errors"
	"codeberg.org/mutker/fanctl/internal/logger"
	"codeberg.org/mutker/fanctl/internal/pwm"
	"codeberg.org/mutker/fanctl/internal/sensor"
	"codeberg.org/mutker/fanctl/internal/telemetry"
)

const defaultInterval = 1 * time.Second

// sleepFn is swapped out in tests.
var sleepFn = time.Sleep

type Config struct {
	Pin         int
	FrequencyHz int
	Interval    time.Duration
}

// Controller runs the fan control loop. It owns the driver handle from
// construction until shutdown; nothing else may touch it. Cancellation
// is cooperative: the context is polled once per iteration, before the
// sample, so stopping takes at most one sleep interval plus one
// sample/apply cycle.
type Controller struct {
	cfg       Config
	table     *curve.Table
	drv       pwm.Driver
	source    sensor.Source
	collector telemetry.Collector

	// lastDC starts at 0, which doubles as the not-yet-set sentinel.
	lastDC   int
	stopOnce sync.Once
}

func New(cfg Config, table *curve.Table, drv pwm.Driver, source sensor.Source, collector telemetry.Collector) *Controller {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}

	return &Controller{
		cfg:       cfg,
		table:     table,
		drv:       drv,
		source:    source,
		collector: collector,
	}
}

// Run drives the fan until ctx is canceled. On cancellation it forces
// the duty cycle to 0 and releases the driver handle, exactly once, as
// its final actions. A backend or sensor failure mid-loop is fatal and
// returned as-is: the duty cycle then stays at whatever was last
// applied, there is no fail-safe state on abnormal termination.
func (c *Controller) Run(ctx context.Context) error {
	errFactory := errors.New()

	logger.Info().Msgf("requested PWM frequency: %dHz", c.cfg.FrequencyHz)
	if freq, err := c.drv.Frequency(c.cfg.Pin); err != nil {
		logger.Warn().Msgf("cannot read programmed PWM frequency: %v", err)
	} else {
		logger.Info().Msgf("current PWM frequency: %dHz", freq)
	}

	for {
		select {
		case <-ctx.Done():
			return c.shutdown()
		default:
		}

		temp, err := c.source.Temperature()
		if err != nil {
			return errFactory.Wrap(ErrSensorFailed, err)
		}
		logger.Debug().Msgf("temperature: %.1f°C", temp)

		dutyCycle := c.table.Lookup(temp)
		logger.Debug().Msgf("duty cycle: %d%%", dutyCycle)

		applied := false
		if dutyCycle != c.lastDC {
			if err := c.drv.SetDutyCycle(c.cfg.Pin, dutyCycle); err != nil {
				return errFactory.Wrap(ErrApplyFailed, err)
			}
			c.lastDC = dutyCycle
			applied = true
		}

		c.record(temp, dutyCycle, applied)

		sleepFn(c.cfg.Interval)
	}
}

// shutdown stops the fan and releases the backend handle. Both actions
// run even if the first fails; the first error wins.
func (c *Controller) shutdown() error {
	errFactory := errors.New()

	var err error
	c.stopOnce.Do(func() {
		logger.Info().Msg("stopping fan and releasing backend handle")

		if applyErr := c.drv.SetDutyCycle(c.cfg.Pin, 0); applyErr != nil {
			err = errFactory.Wrap(ErrShutdownFailed, applyErr)
		}
		if closeErr := c.drv.Close(); closeErr != nil && err == nil {
			err = errFactory.Wrap(ErrShutdownFailed, closeErr)
		}
	})

	return err
}

func (c *Controller) record(temp float64, dutyCycle int, applied bool) {
	if c.collector == nil {
		return
	}

	sample := &telemetry.Sample{
		Timestamp:    time.Now(),
		TemperatureC: temp,
		DutyCycle:    dutyCycle,
		Applied:      applied,
	}

	// Background context: the final sample of a canceled run should
	// still be written.
	if err := c.collector.Record(context.Background(), sample); err != nil {
		logger.Warn().Msgf("telemetry record failed: %v", err)
	}
}
