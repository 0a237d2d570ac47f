package pwm

import (
	"context"

	"codeberg.org/mutker/fanctl/internal/errors"
	"codeberg.org/mutker/fanctl/internal/logger"
	"codeberg.org/mutker/fanctl/internal/retry"
)

// openBackendFn is swapped out in tests.
var openBackendFn = openBackend

func openBackend(backend, addr string) (Driver, error) {
	errFactory := errors.New()

	switch backend {
	case BackendPigpio:
		return dialPigpio(addr)
	case BackendRPIO:
		return openRPIO()
	default:
		return nil, errFactory.WithData(ErrUnknownBackend, backend)
	}
}

// Connector establishes and programs the connection to a PWM backend.
//
// Connection attempts retry with capped exponential backoff for as long
// as the context lives: the backend daemon may start after this
// process, and no duty cycle can be applied before it is up anyway.
// Programming the frequency and duty-cycle range after a successful
// connection is a different matter; a failure there is a configuration
// mismatch and is returned to the caller immediately.
type Connector struct {
	Backend     string
	Addr        string
	Pin         int
	FrequencyHz int
	Policy      retry.Policy
}

// Connect blocks until a programmed Driver is available or ctx is
// canceled. The returned handle is owned by the caller.
func (c *Connector) Connect(ctx context.Context) (Driver, error) {
	errFactory := errors.New()

	var drv Driver
	err := retry.Do(ctx, c.Policy, func() error {
		d, err := openBackendFn(c.Backend, c.Addr)
		if err != nil {
			logger.Debug().Msgf("cannot connect to %s backend, waiting: %v", c.Backend, err)
			return err
		}
		drv = d
		return nil
	})
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrUnavailable, err)
	}

	if err := c.program(drv); err != nil {
		drv.Close()
		return nil, err
	}

	logger.Info().Msgf("%s backend configuration completed", c.Backend)

	return drv, nil
}

func (c *Connector) program(drv Driver) error {
	errFactory := errors.New()

	if err := drv.SetFrequency(c.Pin, c.FrequencyHz); err != nil {
		return errFactory.Wrap(ErrConfigureFailed, err)
	}
	if err := drv.SetRange(c.Pin, DutyCycleRange); err != nil {
		return errFactory.Wrap(ErrConfigureFailed, err)
	}

	return nil
}
