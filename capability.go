package remoaircon

import (
	"fmt"
	"sort"
	"strconv"
)

// ModeCapability is the range of settings a raw mode accepts.
type ModeCapability struct {
	Temperatures    []string `json:"temp" yaml:"temp"`
	FanLevels       []string `json:"vol" yaml:"vol"`
	SwingDirections []string `json:"dir" yaml:"dir"`
}

// CapabilityTable maps a raw mode to its capability. It is never mutated
// after discovery.
type CapabilityTable map[string]ModeCapability

func (t CapabilityTable) lookup(rawMode string) (ModeCapability, error) {
	c, ok := t[rawMode]
	if !ok {
		return ModeCapability{}, fmt.Errorf("%w: %q", ErrUnknownMode, rawMode)
	}
	return c, nil
}

// TemperatureRange returns the integer temperatures of rawMode in ascending
// order. Empty entries are skipped.
func (t CapabilityTable) TemperatureRange(rawMode string) ([]int, error) {
	c, err := t.lookup(rawMode)
	if err != nil {
		return nil, err
	}
	temps := make([]int, 0, len(c.Temperatures))
	for _, s := range c.Temperatures {
		if s == "" {
			continue
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("%w: mode %q: %q", ErrInvalidTemperatureRange, rawMode, s)
		}
		temps = append(temps, v)
	}
	sort.Ints(temps)
	return temps, nil
}

// FanLevels returns the air volumes of rawMode.
func (t CapabilityTable) FanLevels(rawMode string) ([]string, error) {
	c, err := t.lookup(rawMode)
	if err != nil {
		return nil, err
	}
	return c.FanLevels, nil
}

// SwingDirections returns the air directions of rawMode.
func (t CapabilityTable) SwingDirections(rawMode string) ([]string, error) {
	c, err := t.lookup(rawMode)
	if err != nil {
		return nil, err
	}
	return c.SwingDirections, nil
}
