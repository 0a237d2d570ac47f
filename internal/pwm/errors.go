package pwm

import "codeberg.org/mutker/fanctl/internal/errors"

const (
	// ErrBackendUnavailable marks transient connection failures; the
	// connector retries these indefinitely.
	ErrBackendUnavailable = errors.ErrorCode("pwm_backend_unavailable")

	// ErrConfigureFailed marks a failure while programming frequency or
	// range after a successful connection. Not retried: it means the
	// requested configuration does not match the backend.
	ErrConfigureFailed = errors.ErrorCode("pwm_configure_failed")

	ErrCommandFailed  = errors.ErrorCode("pwm_command_failed")
	ErrUnknownBackend = errors.ErrorCode("pwm_unknown_backend")
)
