package telemetry_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/mutker/fanctl/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceRecordAndClose(t *testing.T) {
	cfg := telemetry.Config{DBPath: filepath.Join(t.TempDir(), "telemetry.db")}

	svc, err := telemetry.NewService(cfg)
	require.NoError(t, err)

	sample := &telemetry.Sample{
		Timestamp:    time.Now(),
		TemperatureC: 47.3,
		DutyCycle:    26,
		Applied:      true,
	}
	require.NoError(t, svc.Record(context.Background(), sample))

	// Same timestamp upserts instead of failing on the primary key.
	sample.DutyCycle = 28
	require.NoError(t, svc.Record(context.Background(), sample))

	require.NoError(t, svc.Close())
}

func TestServiceRejectsNilSample(t *testing.T) {
	cfg := telemetry.Config{DBPath: filepath.Join(t.TempDir(), "telemetry.db")}

	svc, err := telemetry.NewService(cfg)
	require.NoError(t, err)
	defer svc.Close()

	assert.Error(t, svc.Record(context.Background(), nil))
}

func TestServiceRequiresDBPath(t *testing.T) {
	_, err := telemetry.NewService(telemetry.Config{})
	assert.Error(t, err)
}
