package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/farm-monitor/internal/status"
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
	"onOff": func(on bool) string {
		if on {
			return "ON"
		}
		return "OFF"
	},
	"channelName": func(i int) string {
		names := []string{"Moisture", "Nutrient", "Light", "Temp"}
		if i < len(names) {
			return names[i]
		}
		return fmt.Sprintf("Channel %d", i)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Farm Monitor</title>
<style>
body { font-family: monospace; max-width: 700px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.alert-0 { color: green; }
.alert-low { color: orange; }
.alert-high { color: red; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Farm Monitor</h1>

<h2>State</h2>
<table>
<tr><th>Mode</th><td>{{.Mode}}</td></tr>
<tr><th>Alert Level</th><td class="{{if eq .Engine.AlertLevel 0}}alert-0{{else if le .Engine.AlertLevel 2}}alert-low{{else}}alert-high{{end}}">{{.Engine.AlertLevel}} / 4</td></tr>
<tr><th>Ready</th><td>{{if .Baselined}}yes{{else}}no{{end}}</td></tr>
<tr><th>Ticks</th><td>{{.Ticks}}</td></tr>
</table>

<h2>Channels</h2>
<table>
<tr><th>Channel</th><td>avg</td><td>threshold</td><td>min</td><td>max</td><td>trend</td></tr>
{{range $i, $ch := .Engine.Channels}}<tr><th>{{channelName $i}}</th><td>{{$ch.Average}}</td><td>{{$ch.Threshold}}</td><td>{{$ch.Min}}</td><td>{{$ch.Max}}</td><td>{{$ch.Trend}}</td></tr>
{{end}}</table>

<h2>Actuators</h2>
<table>
<tr><th>Pump</th><td class="{{if .Engine.Pump}}on{{else}}off{{end}}">{{onOff .Engine.Pump}}</td></tr>
<tr><th>Valve</th><td class="{{if .Engine.Valve}}on{{else}}off{{end}}">{{onOff .Engine.Valve}}</td></tr>
<tr><th>Fertilizer</th><td class="{{if .Engine.Fertilizer}}on{{else}}off{{end}}">{{onOff .Engine.Fertilizer}}</td></tr>
<tr><th>Lights</th><td class="{{if .Engine.Lights}}on{{else}}off{{end}}">{{onOff .Engine.Lights}}</td></tr>
<tr><th>Pump Timer</th><td>{{.Engine.PumpTimer}}</td></tr>
</table>

<h2>Last Frame</h2>
<table>
<tr><th>Stage</th><td>{{.Engine.Frame.Stage}}</td></tr>
<tr><th>Counts</th><td>green={{.Engine.Frame.Green}} red={{.Engine.Frame.Red}} brown={{.Engine.Frame.Brown}} total={{.Engine.Frame.Total}}</td></tr>
<tr><th>Score</th><td>{{.Engine.Frame.Score}}</td></tr>
<tr><th>Harvest Ready</th><td class="{{if .Engine.Frame.Harvest}}on{{else}}off{{end}}">{{onOff .Engine.Frame.Harvest}}</td></tr>
<tr><th>Pest</th><td>{{onOff .Engine.Frame.Pest}}</td></tr>
<tr><th>Disease</th><td>{{onOff .Engine.Frame.Disease}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Alert changes</th><td>{{.Counts.AlertChanges}}</td></tr>
<tr><th>Pump ON / OFF</th><td>{{.Counts.PumpOn}} / {{.Counts.PumpOff}}</td></tr>
<tr><th>Fertilizer ON / OFF</th><td>{{.Counts.FertilizerOn}} / {{.Counts.FertilizerOff}}</td></tr>
<tr><th>Lights ON / OFF</th><td>{{.Counts.LightsOn}} / {{.Counts.LightsOff}}</td></tr>
<tr><th>Frames classified</th><td>{{.Counts.Frames}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Session</th><td>{{.Config.Session}}</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>Serial</th><td>{{if .Config.SerialPort}}{{.Config.SerialPort}}{{else}}scripted{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a>{{if .Config.DBPath}} · <a href="/chart">Chart</a>{{end}}</p>
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
