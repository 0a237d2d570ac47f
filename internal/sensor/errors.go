package sensor

import "codeberg.org/mutker/fanctl/internal/errors"

const (
	ErrReadFailed  = errors.ErrorCode("sensor_read_failed")
	ErrParseFailed = errors.ErrorCode("sensor_parse_failed")
)
