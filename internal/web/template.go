package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/rf-sniffer/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"modeClass": func(mode string) string {
		switch mode {
		case "RECEIVING":
			return "rx"
		case "TRANSMITTING":
			return "tx"
		case "DECODED":
			return "ok"
		}
		return "idle"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>RF Sniffer</title>
<style>
body { font-family: monospace; max-width: 640px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.rx { color: green; font-weight: bold; }
.tx { color: red; font-weight: bold; }
.ok { color: blue; }
.idle { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>RF Sniffer</h1>

<h2>Radio</h2>
<table>
<tr><th>Mode</th><td class="{{modeClass .Mode.String}}">{{.Mode}}</td></tr>
<tr><th>Frequency</th><td>{{printf "%.3f" .Params.FrequencyMHz}} MHz</td></tr>
<tr><th>Preset</th><td>{{.Params.Preset}}</td></tr>
</table>

<h2>Last capture</h2>
<table>
{{if .Last.Outcome}}<tr><th>Outcome</th><td>{{.Last.Message}}</td></tr>
{{if .Last.Code}}<tr><th>Code</th><td>{{.Last.Code}}</td></tr>{{end}}
<tr><th>Pulses</th><td>{{.Last.Pulses}}</td></tr>
<tr><th>At</th><td>{{.Last.At.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
{{if .Last.CaptureID}}<tr><th>Capture</th><td>{{.Last.CaptureID}}</td></tr>{{end}}
{{else}}<tr><th>Outcome</th><td>none yet</td></tr>{{end}}
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Captures</th><td>{{.Counts.Captures}}</td></tr>
<tr><th>Decoded</th><td>{{.Counts.Decoded}}</td></tr>
<tr><th>Undecoded</th><td>{{.Counts.Undecoded}}</td></tr>
<tr><th>Repeats</th><td>{{.Counts.Duplicates}}</td></tr>
<tr><th>Transmitted</th><td>{{.Counts.Transmitted}}</td></tr>
<tr><th>TX failed</th><td>{{.Counts.TxFailed}}</td></tr>
<tr><th>In memory</th><td>{{.Recent}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Source</th><td>{{.Config.Source}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Quiet timeout</th><td>{{.Config.QuietTimeoutMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/captures.json">Captures</a> | <a href="/metrics">Metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
