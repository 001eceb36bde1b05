package remoaircon

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// CommandKind names the setting a command changes.
type CommandKind int

const (
	// KindTemperature is a target temperature change
	KindTemperature CommandKind = iota
	// KindHvacMode is an operation mode change, including power off
	KindHvacMode
	// KindFanMode is an air volume change
	KindFanMode
	// KindSwingMode is an air direction change
	KindSwingMode
)

func (k CommandKind) String() string {
	switch k {
	case KindTemperature:
		return "temperature"
	case KindHvacMode:
		return "mode"
	case KindFanMode:
		return "fan_mode"
	case KindSwingMode:
		return "swing_mode"
	default:
		return "unknown"
	}
}

// ParseCommandKind is the inverse of String.
func ParseCommandKind(s string) (CommandKind, error) {
	switch s {
	case "temperature":
		return KindTemperature, nil
	case "mode":
		return KindHvacMode, nil
	case "fan_mode":
		return KindFanMode, nil
	case "swing_mode":
		return KindSwingMode, nil
	}
	return 0, fmt.Errorf("unknown command kind: %q", s)
}

// CommandKinds lists every kind.
func CommandKinds() []CommandKind {
	return []CommandKind{KindTemperature, KindHvacMode, KindFanMode, KindSwingMode}
}

// MarshalYAML define custom marshaling for CommandKind
func (k CommandKind) MarshalYAML() (interface{}, error) {
	return k.String(), nil
}

// UnmarshalYAML define custom unmarshaling for CommandKind
func (k *CommandKind) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseCommandKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
