package controller

import "codeberg.org/mutker/fanctl/internal/errors"

const (
	ErrSensorFailed   = errors.ErrorCode("controller_sensor_read_failed")
	ErrApplyFailed    = errors.ErrorCode("controller_apply_duty_cycle_failed")
	ErrShutdownFailed = errors.ErrorCode("controller_shutdown_failed")
)
