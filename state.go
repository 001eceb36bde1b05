package remoaircon

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// State is a read-only snapshot of an Aircon, as exposed to the host.
type State struct {
	ID                    string     `json:"id" yaml:"id"`
	Name                  string     `json:"name" yaml:"name"`
	HvacMode              HvacMode   `json:"hvac_mode" yaml:"hvac_mode"`
	HvacModes             []HvacMode `json:"hvac_modes" yaml:"hvac_modes"`
	TargetTemperature     *float64   `json:"target_temperature" yaml:"target_temperature"`
	TargetTemperatureStep int        `json:"target_temperature_step" yaml:"target_temperature_step"`
	MinTemp               int        `json:"min_temp" yaml:"min_temp"`
	MaxTemp               int        `json:"max_temp" yaml:"max_temp"`
	FanMode               *string    `json:"fan_mode" yaml:"fan_mode"`
	FanModes              []string   `json:"fan_modes" yaml:"fan_modes"`
	SwingMode             *string    `json:"swing_mode" yaml:"swing_mode"`
	SwingModes            []string   `json:"swing_modes" yaml:"swing_modes"`
	RawMode               string     `json:"raw_mode" yaml:"raw_mode"`
	UpdatedAt             time.Time  `json:"updated_at" yaml:"updated_at"`
}

// Power reports whether the aircon is on.
func (s State) Power() bool {
	return s.HvacMode != HvacModeOff
}

// State returns a snapshot. When the raw mode has no capability entry the
// lists are empty, the bounds are the defaults and the lookup error is
// returned with the snapshot.
func (a *Aircon) State() (State, error) {
	s := State{
		ID:                    a.id,
		Name:                  a.name,
		HvacMode:              a.hvacMode,
		HvacModes:             a.HvacModes(),
		TargetTemperature:     a.targetTemperature,
		TargetTemperatureStep: a.TargetTemperatureStep(),
		MinTemp:               DefaultMinTemp,
		MaxTemp:               DefaultMaxTemp,
		FanMode:               a.fanMode,
		SwingMode:             a.swingMode,
		RawMode:               a.rawMode,
		UpdatedAt:             a.updatedAt,
	}

	lo, err := a.MinTemp()
	if err != nil {
		return s, err
	}
	hi, err := a.MaxTemp()
	if err != nil {
		return s, err
	}
	s.MinTemp, s.MaxTemp = lo, hi

	if s.FanModes, err = a.FanModes(); err != nil {
		return s, err
	}
	if s.SwingModes, err = a.SwingModes(); err != nil {
		return s, err
	}
	return s, nil
}

// Apply parses value for kind and calls the matching setter. An empty
// temperature value sends nothing.
func (a *Aircon) Apply(ctx context.Context, kind CommandKind, value string) error {
	value = strings.TrimSpace(value)
	switch kind {
	case KindTemperature:
		if value == "" {
			return a.SetTemperature(ctx, nil)
		}
		t, ok := ParseTemperature(value)
		if !ok {
			return fmt.Errorf("%w: temperature %q", ErrInvalidValue, value)
		}
		return a.SetTemperature(ctx, &t)
	case KindHvacMode:
		m, err := ParseHvacMode(value)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidValue, err)
		}
		return a.SetHvacMode(ctx, m)
	case KindFanMode:
		return a.SetFanMode(ctx, value)
	case KindSwingMode:
		return a.SetSwingMode(ctx, value)
	}
	return fmt.Errorf("%w: unknown command kind %d", ErrInvalidValue, kind)
}
