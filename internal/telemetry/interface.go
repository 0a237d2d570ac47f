package telemetry

import (
	"context"
	"time"
)

// Collector records control-loop samples
type Collector interface {
	Record(ctx context.Context, sample *Sample) error
	Close() error
}

// Sample is one control-loop iteration
type Sample struct {
	Timestamp    time.Time
	TemperatureC float64
	DutyCycle    int
	Applied      bool
}
