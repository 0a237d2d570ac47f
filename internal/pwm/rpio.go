package pwm

import (
	"codeberg.org/mutker/fanctl/internal/errors"
	"github.com/stianeikeland/go-rpio/v4"
)

// rpioDriver drives the hardware PWM peripheral directly through
// /dev/gpiomem, for setups without pigpiod. The PWM clock has to carry
// frequency times range, so both are remembered per pin and the clock
// is reprogrammed whenever either changes.
type rpioDriver struct {
	freqs  map[int]int
	ranges map[int]int
}

// openRPIO maps the GPIO registers. Failures are reported as transient
// so the connector's retry policy applies uniformly across backends.
func openRPIO() (Driver, error) {
	errFactory := errors.New()

	if err := rpio.Open(); err != nil {
		return nil, errFactory.Wrap(ErrBackendUnavailable, err)
	}

	return &rpioDriver{
		freqs:  make(map[int]int),
		ranges: make(map[int]int),
	}, nil
}

func (d *rpioDriver) program(pin int) {
	p := rpio.Pin(pin)
	p.Mode(rpio.Pwm)

	freq := d.freqs[pin]
	rng := d.ranges[pin]
	if rng == 0 {
		rng = DutyCycleRange
	}
	if freq > 0 {
		p.Freq(freq * rng)
	}
}

func (d *rpioDriver) SetFrequency(pin, freqHz int) error {
	errFactory := errors.New()

	if freqHz <= 0 {
		return errFactory.WithData(ErrConfigureFailed, "frequency must be positive")
	}

	d.freqs[pin] = freqHz
	d.program(pin)

	return nil
}

func (d *rpioDriver) SetRange(pin, rng int) error {
	errFactory := errors.New()

	if rng <= 0 {
		return errFactory.WithData(ErrConfigureFailed, "range must be positive")
	}

	d.ranges[pin] = rng
	d.program(pin)

	return nil
}

func (d *rpioDriver) SetDutyCycle(pin, dutyCycle int) error {
	errFactory := errors.New()

	rng := d.ranges[pin]
	if rng == 0 {
		rng = DutyCycleRange
	}
	if dutyCycle < 0 || dutyCycle > rng {
		return errFactory.WithData(ErrCommandFailed, "duty cycle outside programmed range")
	}

	rpio.Pin(pin).DutyCycle(uint32(dutyCycle), uint32(rng))

	return nil
}

// Frequency returns the last programmed frequency; the hardware offers
// no readback through this interface.
func (d *rpioDriver) Frequency(pin int) (int, error) {
	errFactory := errors.New()

	freq, ok := d.freqs[pin]
	if !ok {
		return 0, errFactory.WithData(ErrCommandFailed, "frequency not programmed")
	}

	return freq, nil
}

func (d *rpioDriver) Close() error {
	return rpio.Close()
}
