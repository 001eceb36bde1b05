package remoaircon

import "strconv"

// Command is a partial update of the aircon settings resource. The concrete
// types are TemperatureCommand, ModeCommand, PowerOffCommand, FanCommand and
// SwingCommand.
type Command interface {
	Kind() CommandKind
	// Fields returns the flat wire form. A nil value is a null field.
	Fields() map[string]*string
	command()
}

// TemperatureCommand changes the target temperature.
type TemperatureCommand struct {
	Temperature int
}

func (TemperatureCommand) Kind() CommandKind { return KindTemperature }

func (c TemperatureCommand) Fields() map[string]*string {
	t := strconv.Itoa(c.Temperature)
	return map[string]*string{"temperature": &t}
}

func (TemperatureCommand) command() {}

// ModeCommand switches the operation mode. Temperature is the configured
// default for the target mode and is nil for modes without one.
type ModeCommand struct {
	OperationMode string
	Temperature   *int
}

func (ModeCommand) Kind() CommandKind { return KindHvacMode }

func (c ModeCommand) Fields() map[string]*string {
	mode := c.OperationMode
	f := map[string]*string{"operation_mode": &mode, "temperature": nil}
	if c.Temperature != nil {
		t := strconv.Itoa(*c.Temperature)
		f["temperature"] = &t
	}
	return f
}

func (ModeCommand) command() {}

// PowerOffCommand presses the power-off button.
type PowerOffCommand struct{}

func (PowerOffCommand) Kind() CommandKind { return KindHvacMode }

func (PowerOffCommand) Fields() map[string]*string {
	b := RawPowerOff
	return map[string]*string{"button": &b}
}

func (PowerOffCommand) command() {}

// FanCommand changes the air volume.
type FanCommand struct {
	AirVolume string
}

func (FanCommand) Kind() CommandKind { return KindFanMode }

func (c FanCommand) Fields() map[string]*string {
	v := c.AirVolume
	return map[string]*string{"air_volume": &v}
}

func (FanCommand) command() {}

// SwingCommand changes the air direction.
type SwingCommand struct {
	AirDirection string
}

func (SwingCommand) Kind() CommandKind { return KindSwingMode }

func (c SwingCommand) Fields() map[string]*string {
	v := c.AirDirection
	return map[string]*string{"air_direction": &v}
}

func (SwingCommand) command() {}
