package remo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cormoran/natureremo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSensorCache(t *testing.T) {
	fd := &fakeDevices{devices: []*natureremo.Device{{
		DeviceCore: natureremo.DeviceCore{ID: "dev-1", Name: "Remo"},
		NewestEvents: map[natureremo.SensorType]natureremo.SensorValue{
			natureremo.SensorTypeTemperature: {Value: 24},
		},
	}}}
	cache := NewSensorCache(newClient(&fakeAppliances{}, fd, nil), time.Minute)
	now := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		rs, err := cache.Sensors(context.Background())
		require.NoError(t, err)
		require.Len(t, rs, 1)
	}
	assert.Equal(t, 1, fd.calls)

	now = now.Add(time.Minute)
	_, err := cache.Sensors(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, fd.calls)

	now = now.Add(time.Minute)
	fd.err = errors.New("boom")
	_, err = cache.Sensors(context.Background())
	assert.ErrorContains(t, err, "boom")
	assert.Equal(t, 3, fd.calls)

	fd.err = nil
	rs, err := cache.Sensors(context.Background())
	require.NoError(t, err)
	assert.Len(t, rs, 1)
	assert.Equal(t, 4, fd.calls)
}
