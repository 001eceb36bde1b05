package mqtt

import (
	"github.com/carlmjohnson/versioninfo"

	remoaircon "github.com/eivy/remo-aircon"
)

// ClimateDiscoveryConfig is the Home Assistant MQTT discovery payload of a
// climate entity.
type ClimateDiscoveryConfig struct {
	Device             DiscoveryDevice `json:"device"`
	Name               string          `json:"name"`
	UniqueId           string          `json:"unique_id"`
	Platform           string          `json:"platform"`
	AvTopic            string          `json:"availability_topic"`
	TemperatureUnit    string          `json:"temperature_unit"`
	Precision          float64         `json:"precision"`
	Modes              []string        `json:"modes"`
	FanModes           []string        `json:"fan_modes,omitempty"`
	SwingModes         []string        `json:"swing_modes,omitempty"`
	MinTemp            int             `json:"min_temp"`
	MaxTemp            int             `json:"max_temp"`
	TempStep           int             `json:"temp_step"`
	ModeCommandTopic   string          `json:"mode_command_topic"`
	ModeStateTopic     string          `json:"mode_state_topic"`
	ModeStateTemplate  string          `json:"mode_state_template"`
	TempCommandTopic   string          `json:"temperature_command_topic"`
	TempStateTopic     string          `json:"temperature_state_topic"`
	TempStateTemplate  string          `json:"temperature_state_template"`
	FanCommandTopic    string          `json:"fan_mode_command_topic"`
	FanStateTopic      string          `json:"fan_mode_state_topic"`
	FanStateTemplate   string          `json:"fan_mode_state_template"`
	SwingCommandTopic  string          `json:"swing_mode_command_topic"`
	SwingStateTopic    string          `json:"swing_mode_state_topic"`
	SwingStateTemplate string          `json:"swing_mode_state_template"`
}

type DiscoveryDevice struct {
	Id           []string `json:"identifiers"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Version      string   `json:"sw_version,omitempty"`
	Model        string   `json:"model,omitempty"`
	Name         string   `json:"name,omitempty"`
}

// ClimateDiscoveryMessage builds the discovery payload of state. Fan and
// swing lists follow the current raw mode, so the message is republished when
// the raw mode changes.
func ClimateDiscoveryMessage(topics Topics, state remoaircon.State) ClimateDiscoveryConfig {
	modes := make([]string, 0, len(state.HvacModes))
	for _, m := range state.HvacModes {
		modes = append(modes, string(m))
	}
	stateTopic := topics.State(state.ID)
	return ClimateDiscoveryConfig{
		Device: DiscoveryDevice{
			Id:           []string{"remo_aircon_" + state.ID},
			Manufacturer: "Nature",
			Model:        "Remo",
			Name:         state.Name,
			Version:      versioninfo.Short(),
		},
		Name:               state.Name,
		UniqueId:           state.ID,
		Platform:           "mqtt",
		AvTopic:            topics.Availability(),
		TemperatureUnit:    "C",
		Precision:          1,
		Modes:              modes,
		FanModes:           state.FanModes,
		SwingModes:         state.SwingModes,
		MinTemp:            state.MinTemp,
		MaxTemp:            state.MaxTemp,
		TempStep:           state.TargetTemperatureStep,
		ModeCommandTopic:   topics.Command(state.ID, remoaircon.KindHvacMode),
		ModeStateTopic:     stateTopic,
		ModeStateTemplate:  "{{ value_json.hvac_mode }}",
		TempCommandTopic:   topics.Command(state.ID, remoaircon.KindTemperature),
		TempStateTopic:     stateTopic,
		TempStateTemplate:  "{{ value_json.target_temperature }}",
		FanCommandTopic:    topics.Command(state.ID, remoaircon.KindFanMode),
		FanStateTopic:      stateTopic,
		FanStateTemplate:   "{{ value_json.fan_mode }}",
		SwingCommandTopic:  topics.Command(state.ID, remoaircon.KindSwingMode),
		SwingStateTopic:    stateTopic,
		SwingStateTemplate: "{{ value_json.swing_mode }}",
	}
}
