package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/mutker/fanctl/internal/config"
	"codeberg.org/mutker/fanctl/internal/controller"
	"codeberg.org/mutker/fanctl/internal/curve"
	"codeberg.org/mutker/fanctl/internal/errors"
	"codeberg.org/mutker/fanctl/internal/logger"
	"codeberg.org/mutker/fanctl/internal/pid"
	"codeberg.org/mutker/fanctl/internal/pwm"
	"codeberg.org/mutker/fanctl/internal/retry"
	"codeberg.org/mutker/fanctl/internal/sensor"
	"codeberg.org/mutker/fanctl/internal/telemetry"
)

var cfg *config.Config

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Debug, cfg.Verbose, logger.IsService())
	logger.Debug().Msg("Config loaded")
}

func main() {
	if err := run(); err != nil {
		logger.ErrorWithCode(errors.New().Wrap(errors.ErrMainLoop, err)).Msg("exiting on fatal error")
		os.Exit(1)
	}
}

func run() error {
	if err := pid.Write(); err != nil {
		return err
	}
	defer func() {
		if err := pid.Remove(); err != nil {
			logger.Error().Err(err).Msg("failed to remove PID file")
		}
	}()

	table, err := curve.New(cfg.MinDutyCycle, cfg.MaxDutyCycle, cfg.Precision)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	connector := &pwm.Connector{
		Backend:     cfg.Backend,
		Addr:        cfg.PigpioAddr,
		Pin:         cfg.PWMPin,
		FrequencyHz: cfg.PWMFreq,
		Policy:      retry.DefaultPolicy(),
	}
	drv, err := connector.Connect(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("terminated before backend became available")
			return nil
		}
		return err
	}

	var collector telemetry.Collector
	if cfg.Telemetry {
		telemetryCfg := telemetry.DefaultConfig()
		if cfg.TelemetryDB != "" {
			telemetryCfg.DBPath = cfg.TelemetryDB
		}
		collector, err = telemetry.NewService(telemetryCfg)
		if err != nil {
			logger.Warn().Err(err).Msg("telemetry disabled: failed to initialize")
			collector = nil
		} else {
			defer collector.Close()
		}
	}

	ctrl := controller.New(controller.Config{
		Pin:         cfg.PWMPin,
		FrequencyHz: cfg.PWMFreq,
		Interval:    time.Duration(cfg.Interval) * time.Second,
	}, table, drv, sensor.NewCPU(), collector)

	logger.Info().Msg("starting controller loop")

	return ctrl.Run(ctx)
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}
