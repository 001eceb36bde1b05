package remo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cormoran/natureremo"
)

// SensorReading is the latest room climate reported by a Remo device.
type SensorReading struct {
	DeviceID    string
	DeviceName  string
	Temperature *float64
	Humidity    *float64
	MeasuredAt  time.Time
}

// Sensors returns the newest temperature and humidity events of every device.
func (c *Client) Sensors(ctx context.Context) ([]SensorReading, error) {
	if c.devices == nil {
		return nil, nil
	}
	ds, err := c.devices.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("get devices: %w", err)
	}
	readings := make([]SensorReading, 0, len(ds))
	for _, d := range ds {
		if d.NewestEvents == nil {
			continue
		}
		r := SensorReading{DeviceID: d.ID, DeviceName: d.Name}
		if v, ok := d.NewestEvents[natureremo.SensorTypeTemperature]; ok {
			t := v.Value
			r.Temperature = &t
			r.MeasuredAt = v.CreatedAt
		}
		if v, ok := d.NewestEvents[natureremo.SensorTypeHumidity]; ok {
			h := v.Value
			r.Humidity = &h
			if v.CreatedAt.After(r.MeasuredAt) {
				r.MeasuredAt = v.CreatedAt
			}
		}
		if r.Temperature == nil && r.Humidity == nil {
			continue
		}
		readings = append(readings, r)
	}
	return readings, nil
}

// SensorSource reads room sensors, e.g. a Client.
type SensorSource interface {
	Sensors(ctx context.Context) ([]SensorReading, error)
}

// SensorCache keeps the readings of source for ttl so that frequent
// callers such as a metrics scrape share one device request.
type SensorCache struct {
	source SensorSource
	ttl    time.Duration
	now    func() time.Time

	mu        sync.Mutex
	readings  []SensorReading
	fetchedAt time.Time
}

func NewSensorCache(source SensorSource, ttl time.Duration) *SensorCache {
	return &SensorCache{source: source, ttl: ttl, now: time.Now}
}

// Sensors returns the cached readings, fetching them again once they are
// older than ttl. A failed fetch leaves the cache as it was.
func (c *SensorCache) Sensors(ctx context.Context) ([]SensorReading, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if !c.fetchedAt.IsZero() && now.Sub(c.fetchedAt) < c.ttl {
		return c.readings, nil
	}
	readings, err := c.source.Sensors(ctx)
	if err != nil {
		return nil, err
	}
	c.readings, c.fetchedAt = readings, now
	return readings, nil
}
