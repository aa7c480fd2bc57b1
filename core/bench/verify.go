package bench

import (
	"encoding/json"

	"github.com/kilianp07/mqttbench/core/model"
)

// extractMsgID pulls the correlation id out of a verification message. The
// downstream mapper nests the id as msgid.msgid.value for measurements but
// keeps it as a flat top-level field for alarms and events, so the parser
// branches on telemetry type.
func extractMsgID(t model.TelemetryType, payload []byte) (int, bool) {
	if t == model.Measurement {
		var m struct {
			MsgID struct {
				MsgID struct {
					Value float64 `json:"value"`
				} `json:"msgid"`
			} `json:"msgid"`
		}
		if err := json.Unmarshal(payload, &m); err != nil {
			return 0, false
		}
		// msgids start at 1, a zero value means the field was absent.
		if m.MsgID.MsgID.Value == 0 {
			return 0, false
		}
		return int(m.MsgID.MsgID.Value), true
	}

	var m struct {
		MsgID *float64 `json:"msgid"`
	}
	if err := json.Unmarshal(payload, &m); err != nil || m.MsgID == nil {
		return 0, false
	}
	return int(*m.MsgID), true
}
