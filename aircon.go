package remoaircon

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultMinTemp is the lower bound used when a mode has no temperature range.
	DefaultMinTemp = 7
	// DefaultMaxTemp is the upper bound used when a mode has no temperature range.
	DefaultMaxTemp = 35
	// TemperatureStep is the granularity of the target temperature.
	TemperatureStep = 1
)

var errNoAPI = errors.New("aircon has no api client")

// Aircon models one Nature Remo air conditioner.
//
// State changes only through Ingest. The setters never touch local state: the
// device is the source of truth and its answer arrives with the next update.
// An Aircon is not safe for concurrent use.
type Aircon struct {
	id       string
	name     string
	caps     CapabilityTable
	defaults DefaultTemperatures
	api      API
	logger   *zap.Logger

	hvacMode          HvacMode
	targetTemperature *float64
	fanMode           *string
	swingMode         *string
	// rawMode is kept while the aircon is off; capabilities are keyed by it.
	rawMode   string
	updatedAt time.Time
}

// NewAircon builds the model of d and ingests its initial settings. api may
// be nil when only command encoding is needed.
func NewAircon(d Descriptor, defaults DefaultTemperatures, api API, logger *zap.Logger) (*Aircon, error) {
	if d.ID == "" {
		return nil, ErrEmptyApplianceID
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Aircon{
		id:       d.ID,
		name:     fmt.Sprintf("Nature Remo %s", d.Nickname),
		caps:     d.Capabilities,
		defaults: defaults,
		api:      api,
		logger:   logger.With(zap.String("appliance", d.ID)),
	}
	a.Ingest(d.Settings)
	return a, nil
}

// Ingest recomputes the normalized state from a settings snapshot.
func (a *Aircon) Ingest(s RawSettings) {
	a.rawMode = s.Mode

	if t, ok := ParseTemperature(s.Temp); ok {
		a.targetTemperature = &t
	} else {
		a.targetTemperature = nil
	}

	// mode keeps the last active mode while powered off, so power comes from button
	if s.PoweredOff() {
		a.hvacMode = HvacModeOff
	} else if m, ok := HvacModeFromRaw(a.rawMode); ok {
		a.hvacMode = m
	} else {
		a.hvacMode = ""
		a.logger.Warn("unrecognized raw mode", zap.String("mode", a.rawMode))
	}

	a.fanMode = optionalString(s.Vol)
	a.swingMode = optionalString(s.Dir)
	a.updatedAt = time.Now()
}

// Update fetches fresh settings and ingests them.
func (a *Aircon) Update(ctx context.Context) error {
	if a.api == nil {
		return errNoAPI
	}
	s, err := a.api.FetchSettings(ctx, a.id)
	if err != nil {
		return fmt.Errorf("fetch settings of %s: %w", a.id, err)
	}
	a.Ingest(s)
	return nil
}

func (a *Aircon) ID() string   { return a.id }
func (a *Aircon) Name() string { return a.name }

func (a *Aircon) HvacMode() HvacMode { return a.hvacMode }

// HvacModes is the same for every aircon.
func (a *Aircon) HvacModes() []HvacMode { return HvacModes() }

func (a *Aircon) TargetTemperature() *float64 { return a.targetTemperature }

func (a *Aircon) TargetTemperatureStep() int { return TemperatureStep }

func (a *Aircon) FanMode() *string   { return a.fanMode }
func (a *Aircon) SwingMode() *string { return a.swingMode }

// RawMode is the last reported device mode, also while the aircon is off.
func (a *Aircon) RawMode() string { return a.rawMode }

func (a *Aircon) UpdatedAt() time.Time { return a.updatedAt }

// TemperatureRange returns the temperatures the current raw mode accepts.
// An empty range is valid; MinTemp and MaxTemp fall back to the defaults.
func (a *Aircon) TemperatureRange() ([]int, error) {
	return a.caps.TemperatureRange(a.rawMode)
}

func (a *Aircon) FanModes() ([]string, error) {
	return a.caps.FanLevels(a.rawMode)
}

func (a *Aircon) SwingModes() ([]string, error) {
	return a.caps.SwingDirections(a.rawMode)
}

func (a *Aircon) MinTemp() (int, error) {
	r, err := a.TemperatureRange()
	if err != nil {
		return 0, err
	}
	if len(r) == 0 {
		return DefaultMinTemp, nil
	}
	return r[0], nil
}

func (a *Aircon) MaxTemp() (int, error) {
	r, err := a.TemperatureRange()
	if err != nil {
		return 0, err
	}
	if len(r) == 0 {
		return DefaultMaxTemp, nil
	}
	return r[len(r)-1], nil
}

// EncodeTemperature returns the command for a target temperature, truncated
// to whole degrees. A nil degrees gives a nil command: nothing must be sent.
// NaN and values beyond the int32 range are ErrInvalidValue.
func (a *Aircon) EncodeTemperature(degrees *float64) (Command, error) {
	if degrees == nil {
		return nil, nil
	}
	d := *degrees
	if math.IsNaN(d) || d < math.MinInt32 || d > math.MaxInt32 {
		return nil, fmt.Errorf("%w: temperature %v", ErrInvalidValue, d)
	}
	return TemperatureCommand{Temperature: int(d)}, nil
}

// EncodeHvacMode returns the command switching to m. The default temperature
// is the one configured for m, not for the current mode.
func (a *Aircon) EncodeHvacMode(m HvacMode) (Command, error) {
	raw, err := m.ToRaw()
	if err != nil {
		return nil, err
	}
	if raw == RawPowerOff {
		return PowerOffCommand{}, nil
	}
	return ModeCommand{OperationMode: raw, Temperature: a.defaults.forMode(m)}, nil
}

// EncodeFanMode returns the command for an air volume. level is not checked
// against the capability table; the device rejects what it does not support.
func (a *Aircon) EncodeFanMode(level string) Command {
	return FanCommand{AirVolume: level}
}

// EncodeSwingMode returns the command for an air direction.
func (a *Aircon) EncodeSwingMode(direction string) Command {
	return SwingCommand{AirDirection: direction}
}

// SetTemperature sends a target temperature. A nil degrees sends nothing.
func (a *Aircon) SetTemperature(ctx context.Context, degrees *float64) error {
	cmd, err := a.EncodeTemperature(degrees)
	if err != nil || cmd == nil {
		return err
	}
	a.logger.Info("set temperature", zap.Int("temperature", cmd.(TemperatureCommand).Temperature))
	return a.send(ctx, cmd)
}

func (a *Aircon) SetHvacMode(ctx context.Context, m HvacMode) error {
	cmd, err := a.EncodeHvacMode(m)
	if err != nil {
		return err
	}
	a.logger.Info("set mode", zap.Stringer("mode", m))
	return a.send(ctx, cmd)
}

func (a *Aircon) SetFanMode(ctx context.Context, level string) error {
	a.logger.Info("set fan mode", zap.String("vol", level))
	return a.send(ctx, a.EncodeFanMode(level))
}

func (a *Aircon) SetSwingMode(ctx context.Context, direction string) error {
	a.logger.Info("set swing mode", zap.String("dir", direction))
	return a.send(ctx, a.EncodeSwingMode(direction))
}

func (a *Aircon) send(ctx context.Context, cmd Command) error {
	if a.api == nil {
		return errNoAPI
	}
	if err := a.api.SendCommand(ctx, a.id, cmd); err != nil {
		return fmt.Errorf("send %s to %s: %w", cmd.Kind(), a.id, err)
	}
	return nil
}
