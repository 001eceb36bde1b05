package remoaircon

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// HvacMode is the normalized climate-control mode.
type HvacMode string

const (
	HvacModeAuto    HvacMode = "auto"
	HvacModeCool    HvacMode = "cool"
	HvacModeDry     HvacMode = "dry"
	HvacModeFanOnly HvacMode = "fan_only"
	HvacModeHeat    HvacMode = "heat"
	HvacModeOff     HvacMode = "off"
)

// Raw mode tokens used by the Nature Remo API.
const (
	RawModeAuto = "auto"
	RawModeBlow = "blow"
	RawModeCool = "cool"
	RawModeDry  = "dry"
	RawModeWarm = "warm"
	// RawPowerOff is the button value of a powered-off aircon.
	RawPowerOff = "power-off"
)

var hvacToRaw = map[HvacMode]string{
	HvacModeAuto:    RawModeAuto,
	HvacModeFanOnly: RawModeBlow,
	HvacModeCool:    RawModeCool,
	HvacModeDry:     RawModeDry,
	HvacModeHeat:    RawModeWarm,
	HvacModeOff:     RawPowerOff,
}

var rawToHvac = map[string]HvacMode{
	RawModeAuto: HvacModeAuto,
	RawModeBlow: HvacModeFanOnly,
	RawModeCool: HvacModeCool,
	RawModeDry:  HvacModeDry,
	RawModeWarm: HvacModeHeat,
	RawPowerOff: HvacModeOff,
}

// HvacModes returns every normalized mode, in a stable order.
func HvacModes() []HvacMode {
	return []HvacMode{
		HvacModeAuto,
		HvacModeCool,
		HvacModeDry,
		HvacModeFanOnly,
		HvacModeHeat,
		HvacModeOff,
	}
}

// ToRaw translates m into the device vocabulary.
func (m HvacMode) ToRaw() (string, error) {
	raw, ok := hvacToRaw[m]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownHvacMode, string(m))
	}
	return raw, nil
}

// HvacModeFromRaw translates a raw device mode into its normalized mode.
func HvacModeFromRaw(raw string) (HvacMode, bool) {
	m, ok := rawToHvac[raw]
	return m, ok
}

// ParseHvacMode validates s as a normalized mode.
func ParseHvacMode(s string) (HvacMode, error) {
	m := HvacMode(s)
	if _, ok := hvacToRaw[m]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownHvacMode, s)
	}
	return m, nil
}

func (m HvacMode) String() string {
	if m == "" {
		return "unknown"
	}
	return string(m)
}

// MarshalYAML define custom marshaling for HvacMode
func (m HvacMode) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}

// UnmarshalYAML define custom unmarshaling for HvacMode
func (m *HvacMode) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseHvacMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
