package config

import (
	"os"
	"strings"

	"codeberg.org/mutker/fanctl/internal/curve"
	"codeberg.org/mutker/fanctl/internal/errors"
	"codeberg.org/mutker/fanctl/internal/pwm"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultPrecision = 10
	DefaultPWMPin    = 23
	DefaultPWMFreq   = 40000
	DefaultInterval  = 1

	maxBCMPin = 53
)

type Config struct {
	MinDutyCycle int    `mapstructure:"min-dc"`
	MaxDutyCycle int    `mapstructure:"max-dc"`
	Precision    int    `mapstructure:"precision"`
	PWMPin       int    `mapstructure:"pwm-pin"`
	PWMFreq      int    `mapstructure:"pwm-freq"`
	Interval     int    `mapstructure:"interval"`
	Backend      string `mapstructure:"backend"`
	PigpioAddr   string `mapstructure:"pigpio-addr"`
	Telemetry    bool   `mapstructure:"telemetry"`
	TelemetryDB  string `mapstructure:"telemetry-db"`
	Debug        bool   `mapstructure:"debug"`
	Verbose      bool   `mapstructure:"verbose"`
}

// Load merges flags, environment (FANCTL_ prefix) and an optional TOML
// config file (/etc/fanctl.toml, or $FANCTL_CONFIG), flags winning, and
// validates the result. Nothing is connected or started before this
// returns successfully.
func Load() (*Config, error) {
	errFactory := errors.New()

	fs := pflag.NewFlagSet("fanctl", pflag.ContinueOnError)
	fs.Int("min-dc", 0, "Minimal duty cycle value (%)")
	fs.Int("max-dc", 0, "Maximal duty cycle value (%)")
	fs.Int("precision", DefaultPrecision, "Number of subdivisions for the duty cycle range (5, 10, 25 or 50)")
	fs.Int("pwm-pin", DefaultPWMPin, "GPIO pin number (BCM) for the PWM signal")
	fs.Int("pwm-freq", DefaultPWMFreq, "PWM signal frequency (Hz)")
	fs.Int("interval", DefaultInterval, "Seconds between temperature samples")
	fs.String("backend", pwm.BackendPigpio, "PWM backend (pigpio or rpio)")
	fs.String("pigpio-addr", pwm.DefaultPigpioAddr, "pigpiod socket address")
	fs.Bool("telemetry", false, "Record samples to the telemetry database")
	fs.String("telemetry-db", "", "Telemetry database path")
	fs.Bool("debug", false, "Activate debug logging")
	fs.Bool("verbose", false, "Activate verbose logging")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	v.SetEnvPrefix("FANCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := os.Getenv("FANCTL_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("fanctl")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate enforces the same invariants the lookup-table construction
// relies on, plus the backend parameters. Violations are fatal before
// any connection attempt.
func (c *Config) Validate() error {
	errFactory := errors.New()

	if err := curve.Validate(c.MinDutyCycle, c.MaxDutyCycle, c.Precision); err != nil {
		return err
	}
	if c.PWMPin < 0 || c.PWMPin > maxBCMPin {
		return errFactory.WithData(errors.ErrInvalidConfig, "pwm pin should belong to [0,53]")
	}
	if c.PWMFreq < 1 {
		return errFactory.WithData(errors.ErrInvalidConfig, "pwm frequency should be a positive number of Hz")
	}
	if c.Interval < 1 {
		return errFactory.WithData(errors.ErrInvalidConfig, "interval should be at least 1 second")
	}
	if !pwm.ValidBackend(c.Backend) {
		return errFactory.WithData(errors.ErrInvalidConfig, "backend should be pigpio or rpio")
	}

	return nil
}
