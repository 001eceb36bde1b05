package remoaircon

import "errors"

var (
	// ErrUnknownMode is returned when a raw mode has no capability entry.
	ErrUnknownMode = errors.New("mode not in capability table")

	// ErrUnknownHvacMode is returned for a value outside the six normalized modes.
	ErrUnknownHvacMode = errors.New("unknown hvac mode")

	// ErrInvalidTemperatureRange is returned when a capability temperature is not an integer.
	ErrInvalidTemperatureRange = errors.New("invalid temperature range")

	ErrEmptyApplianceID = errors.New("appliance id is empty")

	// ErrNoAirconSettings is returned for an AC appliance lacking settings or a range.
	ErrNoAirconSettings = errors.New("appliance has no aircon settings")

	ErrApplianceNotFound = errors.New("appliance not found")

	// ErrInvalidValue is returned by Apply for a value its kind cannot take.
	ErrInvalidValue = errors.New("invalid command value")
)
