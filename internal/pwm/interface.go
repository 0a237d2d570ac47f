package pwm

// Driver is the minimal surface the controller needs from a PWM
// backend. Pins use BCM numbering, duty cycles are percent against the
// range programmed with SetRange.
//
// Implementations are not required to be safe for concurrent use; the
// control loop owns the handle exclusively after Connect.
type Driver interface {
	// SetFrequency programs the PWM frequency for the pin in Hz.
	SetFrequency(pin, freqHz int) error

	// SetRange programs the duty-cycle scale for the pin; the
	// connector always uses 0-100.
	SetRange(pin, rng int) error

	// SetDutyCycle applies a duty cycle within the programmed range.
	SetDutyCycle(pin, dutyCycle int) error

	// Frequency reports the frequency actually programmed for the pin,
	// which may differ from the requested one.
	Frequency(pin int) (int, error)

	// Close releases the backend handle. It does not touch the duty
	// cycle; callers stop the fan first.
	Close() error
}

// Supported backends.
const (
	BackendPigpio = "pigpio"
	BackendRPIO   = "rpio"
)

// DutyCycleRange is the duty-cycle scale programmed on every pin, so
// duty cycles are plain percentages.
const DutyCycleRange = 100

// ValidBackend reports whether name selects a known backend.
func ValidBackend(name string) bool {
	return name == BackendPigpio || name == BackendRPIO
}
