package mqtt

import (
	"fmt"
	"strings"

	remoaircon "github.com/eivy/remo-aircon"
)

// Topics builds the topic names of one bridge.
type Topics struct {
	base      string
	discovery string
}

func NewTopics(base, discovery string) Topics {
	return Topics{base: base, discovery: discovery}
}

// Availability is <base>/bridge/state.
func (t Topics) Availability() string {
	return fmt.Sprintf("%s/bridge/state", t.base)
}

// State is <base>/aircon/<id>/state.
func (t Topics) State(applianceID string) string {
	return fmt.Sprintf("%s/aircon/%s/state", t.base, applianceID)
}

// Command is <base>/aircon/<id>/<kind>/set.
func (t Topics) Command(applianceID string, kind remoaircon.CommandKind) string {
	return fmt.Sprintf("%s/aircon/%s/%s/set", t.base, applianceID, kind)
}

func (t Topics) CommandSubscription() string {
	return fmt.Sprintf("%s/aircon/+/+/set", t.base)
}

// Discovery is <discovery>/climate/<id>/config.
func (t Topics) Discovery(applianceID string) string {
	return fmt.Sprintf("%s/climate/%s/config", t.discovery, applianceID)
}

// ParseCommand extracts the appliance ID and kind from a command topic.
func (t Topics) ParseCommand(topic string) (string, remoaircon.CommandKind, error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 5 || parts[0] != t.base || parts[1] != "aircon" || parts[4] != "set" || parts[2] == "" {
		return "", 0, fmt.Errorf("invalid command topic format: %s", topic)
	}
	kind, err := remoaircon.ParseCommandKind(parts[3])
	if err != nil {
		return "", 0, err
	}
	return parts[2], kind, nil
}
