package sensor

import (
	"os"
	"strconv"
	"strings"

	"codeberg.org/mutker/fanctl/internal/errors"
)

const thermalZonePath = "/sys/class/thermal/thermal_zone0/temp"

// Source provides the current CPU temperature in degrees Celsius.
type Source interface {
	Temperature() (float64, error)
}

// CPU reads the SoC temperature from the sysfs thermal zone.
type CPU struct {
	path string
}

// NewCPU returns a Source backed by the default thermal zone.
func NewCPU() *CPU {
	return &CPU{path: thermalZonePath}
}

// Temperature implements Source.
func (c *CPU) Temperature() (float64, error) {
	errFactory := errors.New()

	b, err := os.ReadFile(c.path)
	if err != nil {
		return 0, errFactory.Wrap(ErrReadFailed, err)
	}

	return parseTemp(string(b))
}

// parseTemp handles both milli-degree integers (the common kernel
// format, e.g. 52345) and plain degrees.
func parseTemp(s string) (float64, error) {
	errFactory := errors.New()

	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errFactory.New(ErrParseFailed)
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errFactory.Wrap(ErrParseFailed, err)
	}

	if n > 1000 {
		return float64(n) / 1000.0, nil
	}

	return float64(n), nil
}
