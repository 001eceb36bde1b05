package remoaircon

import (
	"math"
	"strconv"
	"strings"
)

// RawSettings is an aircon settings snapshot as reported by the API.
type RawSettings struct {
	Mode   string `json:"mode" yaml:"mode"`
	Temp   string `json:"temp" yaml:"temp"`
	Button string `json:"button" yaml:"button"`
	Vol    string `json:"vol" yaml:"vol"`
	Dir    string `json:"dir" yaml:"dir"`
}

// PoweredOff reports whether the button reading is the power-off token.
func (s RawSettings) PoweredOff() bool {
	return s.Button == RawPowerOff
}

// ParseTemperature reads a temperature reading. ok is false when the
// reading is absent, not numeric (which some modes report) or not finite.
func ParseTemperature(s string) (v float64, ok bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
