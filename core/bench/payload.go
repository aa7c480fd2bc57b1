package bench

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/kilianp07/mqttbench/core/model"
)

// alarmText is the fixed text field carried by alarm and event telemetry.
const alarmText = "benchmark generated telemetry"

// telemetryPayload builds the outbound message body for one msgid. Every
// message carries the msgid, a UTC generation timestamp and datapoints
// synthetic numeric fields; alarms and events additionally carry a fixed
// text field required by their downstream schema.
func telemetryPayload(t model.TelemetryType, msgid, datapoints int, ts time.Time) ([]byte, error) {
	body := make(map[string]any, datapoints+3)
	body["msgid"] = msgid
	body["time"] = ts.UTC().Format(time.RFC3339Nano)
	for i := 0; i < datapoints; i++ {
		body["dp"+strconv.Itoa(i)] = float64((msgid+i)%100) + 0.25
	}
	if t == model.Alarm || t == model.Event {
		body["text"] = alarmText
	}
	return json.Marshal(body)
}
