package sensor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTempMilliDegrees(t *testing.T) {
	v, err := parseTemp("52345\n")
	require.NoError(t, err)
	assert.InDelta(t, 52.345, v, 0.001)
}

func TestParseTempPlainDegrees(t *testing.T) {
	v, err := parseTemp("52")
	require.NoError(t, err)
	assert.Equal(t, 52.0, v)
}

func TestParseTempEmpty(t *testing.T) {
	_, err := parseTemp("\n")
	assert.Error(t, err)
}

func TestParseTempGarbage(t *testing.T) {
	_, err := parseTemp("not-a-number")
	assert.Error(t, err)
}

func TestTemperatureFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "temp")
	require.NoError(t, os.WriteFile(path, []byte("42000\n"), 0o644))

	c := &CPU{path: path}
	v, err := c.Temperature()
	require.NoError(t, err)
	assert.Equal(t, 42.0, v)
}

func TestTemperatureMissingFile(t *testing.T) {
	c := &CPU{path: filepath.Join(t.TempDir(), "missing")}
	_, err := c.Temperature()
	assert.Error(t, err)
}
