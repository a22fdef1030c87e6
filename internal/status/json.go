package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Radio         RadioJSON    `json:"radio"`
	Last          *LastJSON    `json:"last,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"event_counts"`
	RecentSignals int          `json:"recent_signals"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

type RadioJSON struct {
	Mode         string  `json:"mode"`
	FrequencyMHz float64 `json:"frequency_mhz"`
	Preset       string  `json:"preset"`
}

type LastJSON struct {
	Outcome   string `json:"outcome"`
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	Protocol  string `json:"protocol,omitempty"`
	CaptureID string `json:"capture_id,omitempty"`
	Pulses    int    `json:"pulses"`
	Timestamp string `json:"timestamp"`
}

type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

type CountsJSON struct {
	Captures    int `json:"captures"`
	Decoded     int `json:"decoded"`
	Undecoded   int `json:"undecoded"`
	Duplicates  int `json:"duplicates"`
	Transmitted int `json:"transmitted"`
	TxFailed    int `json:"tx_failed"`
}

type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

type ConfigJSON struct {
	PollMs         int64  `json:"poll_ms"`
	QuietTimeoutMs int64  `json:"quiet_timeout_ms"`
	HeartbeatMs    int64  `json:"heartbeat_ms"`
	Broker         string `json:"broker"`
	HTTPAddr       string `json:"http_addr"`
	Source         string `json:"source"`
	StoreDir       string `json:"store_dir"`
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Radio: RadioJSON{
			Mode:         snap.Mode.String(),
			FrequencyMHz: snap.Params.FrequencyMHz,
			Preset:       snap.Params.Preset,
		},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Captures:    snap.Counts.Captures,
			Decoded:     snap.Counts.Decoded,
			Undecoded:   snap.Counts.Undecoded,
			Duplicates:  snap.Counts.Duplicates,
			Transmitted: snap.Counts.Transmitted,
			TxFailed:    snap.Counts.TxFailed,
		},
		RecentSignals: snap.Recent,
		Config: ConfigJSON{
			PollMs:         snap.Config.PollMs,
			QuietTimeoutMs: snap.Config.QuietTimeoutMs,
			HeartbeatMs:    snap.Config.HeartbeatMs,
			Broker:         snap.Config.Broker,
			HTTPAddr:       snap.Config.HTTPAddr,
			Source:         snap.Config.Source,
			StoreDir:       snap.Config.StoreDir,
		},
	}

	if l := snap.Last; l.Outcome != "" {
		lj := &LastJSON{
			Outcome:   string(l.Outcome),
			Message:   l.Message(),
			CaptureID: l.CaptureID,
			Pulses:    l.Pulses,
			Timestamp: l.At.UTC().Format(time.RFC3339),
		}
		if l.Code != nil {
			lj.Code = l.Code.String()
			lj.Protocol = l.Code.Protocol
		}
		inner.Last = lj
	}

	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
