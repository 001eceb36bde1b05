package remoaircon

import (
	"context"
)

// ApplianceTypeAC is the Nature Remo appliance type of an air conditioner.
const ApplianceTypeAC = "AC"

// Descriptor describes one aircon appliance as discovered from the API.
type Descriptor struct {
	ID           string          `json:"id" yaml:"id"`
	Nickname     string          `json:"nickname" yaml:"nickname"`
	DeviceID     string          `json:"device_id,omitempty" yaml:"device_id,omitempty"`
	Capabilities CapabilityTable `json:"modes" yaml:"modes"`
	Settings     RawSettings     `json:"settings" yaml:"settings"`
}

// DefaultTemperatures are the temperatures sent along with a switch to cool
// or heat.
type DefaultTemperatures struct {
	Cool int `json:"cool" yaml:"cool"`
	Heat int `json:"heat" yaml:"heat"`
}

func (d DefaultTemperatures) forMode(m HvacMode) *int {
	var t int
	switch m {
	case HvacModeCool:
		t = d.Cool
	case HvacModeHeat:
		t = d.Heat
	default:
		return nil
	}
	return &t
}

// Fetcher reads the current settings of an appliance.
type Fetcher interface {
	FetchSettings(ctx context.Context, applianceID string) (RawSettings, error)
}

// Sender transmits a command to the aircon settings resource of an appliance.
type Sender interface {
	SendCommand(ctx context.Context, applianceID string, cmd Command) error
}

// API is the remote API collaborator.
type API interface {
	Fetcher
	Sender
}
