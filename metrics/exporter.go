package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	remoaircon "github.com/eivy/remo-aircon"
	"github.com/eivy/remo-aircon/remo"
)

const sensorTimeout = 10 * time.Second

// Metrics descriptions
var (
	powerState = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "aircon", "power_state"),
		"Whether the aircon is on (1) or off (0)",
		[]string{"name", "id"}, nil,
	)

	targetTemperature = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "aircon", "target_temperature"),
		"The target temperature of the aircon",
		[]string{"name", "id"}, nil,
	)

	hvacMode = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "aircon", "mode"),
		"The current HVAC mode of the aircon (1 for the active mode)",
		[]string{"name", "id", "mode"}, nil,
	)

	minTemperature = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "aircon", "min_temperature"),
		"The lowest target temperature of the current mode",
		[]string{"name", "id"}, nil,
	)

	maxTemperature = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "aircon", "max_temperature"),
		"The highest target temperature of the current mode",
		[]string{"name", "id"}, nil,
	)

	temperature = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "temperature"),
		"The temperature of the remo device",
		[]string{"name", "id"}, nil,
	)

	humidity = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "humidity"),
		"The humidity of the remo device",
		[]string{"name", "id"}, nil,
	)
)

// StateSource lists the aircon states to export.
type StateSource interface {
	States() []remoaircon.State
}

// SensorSource reads the room sensors of the Remo devices.
type SensorSource interface {
	Sensors(ctx context.Context) ([]remo.SensorReading, error)
}

// Exporter exposes the aircon states and room sensors
type Exporter struct {
	states  StateSource
	sensors SensorSource
	logger  *zap.Logger
}

// NewExporter returns an initialized exporter. sensors may be nil.
func NewExporter(states StateSource, sensors SensorSource, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{
		states:  states,
		sensors: sensors,
		logger:  logger,
	}
}

// Describe is to describe the metrics for Prometheus
func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	ch <- powerState
	ch <- targetTemperature
	ch <- hvacMode
	ch <- minTemperature
	ch <- maxTemperature
	ch <- temperature
	ch <- humidity
}

// Collect collects data to be consumed by prometheus
func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	for _, s := range e.states.States() {
		e.collectState(s, ch)
	}

	if e.sensors == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), sensorTimeout)
	defer cancel()
	readings, err := e.sensors.Sensors(ctx)
	if err != nil {
		e.logger.Warn("fetching device sensors failed", zap.Error(err))
		return
	}
	for _, r := range readings {
		if r.Temperature != nil {
			ch <- prometheus.MustNewConstMetric(temperature, prometheus.GaugeValue, *r.Temperature, r.DeviceName, r.DeviceID)
		}
		if r.Humidity != nil {
			ch <- prometheus.MustNewConstMetric(humidity, prometheus.GaugeValue, *r.Humidity, r.DeviceName, r.DeviceID)
		}
	}
}

func (e *Exporter) collectState(s remoaircon.State, ch chan<- prometheus.Metric) {
	power := 0.0
	if s.Power() {
		power = 1
	}
	ch <- prometheus.MustNewConstMetric(powerState, prometheus.GaugeValue, power, s.Name, s.ID)

	if s.TargetTemperature != nil {
		ch <- prometheus.MustNewConstMetric(targetTemperature, prometheus.GaugeValue, *s.TargetTemperature, s.Name, s.ID)
	}

	for _, m := range s.HvacModes {
		active := 0.0
		if m == s.HvacMode {
			active = 1
		}
		ch <- prometheus.MustNewConstMetric(hvacMode, prometheus.GaugeValue, active, s.Name, s.ID, string(m))
	}

	ch <- prometheus.MustNewConstMetric(minTemperature, prometheus.GaugeValue, float64(s.MinTemp), s.Name, s.ID)
	ch <- prometheus.MustNewConstMetric(maxTemperature, prometheus.GaugeValue, float64(s.MaxTemp), s.Name, s.ID)
}
