package model

import "fmt"

// TelemetryType selects the outbound telemetry channel and payload shape.
type TelemetryType string

const (
	Measurement TelemetryType = "measurement"
	Alarm       TelemetryType = "alarm"
	Event       TelemetryType = "event"
)

// ParseTelemetryType validates a CLI flag value.
func ParseTelemetryType(s string) (TelemetryType, error) {
	switch TelemetryType(s) {
	case Measurement, Alarm, Event:
		return TelemetryType(s), nil
	}
	return "", fmt.Errorf("unknown telemetry type %q (expected measurement, alarm or event)", s)
}

func (t TelemetryType) String() string { return string(t) }

// ChannelSuffix returns the single-letter channel segment of the outbound
// telemetry topic.
func (t TelemetryType) ChannelSuffix() string {
	switch t {
	case Alarm:
		return "a"
	case Event:
		return "e"
	default:
		return "m"
	}
}

// VerificationTopic returns the downstream topic the mapper republishes this
// telemetry type onto.
func (t TelemetryType) VerificationTopic() string {
	switch t {
	case Alarm:
		return "c8y/alarm/alarms/create"
	case Event:
		return "c8y/event/events/create"
	default:
		return "c8y/measurement/measurements/create"
	}
}
