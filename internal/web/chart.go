package web

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/sweeney/farm-monitor/internal/engine"
	"github.com/sweeney/farm-monitor/internal/store"
)

// chartDefaultLimit bounds how many stored readings feed the chart.
const chartDefaultLimit = 2000

var channelLabels = [engine.NumChannels]string{"moisture", "nutrient", "light", "temp"}

// handleChart renders a line chart of recent channel averages from the
// history database. Query params: limit (readings to load, default 2000).
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		http.Error(w, "history disabled (no database)", http.StatusNotFound)
		return
	}

	limit := chartDefaultLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 50000 {
			limit = v
		}
	}

	session := s.tracker.Snapshot().Config.Session
	readings, err := s.history.RecentReadings(session, limit)
	if err != nil {
		http.Error(w, fmt.Sprintf("load readings: %v", err), http.StatusInternalServerError)
		return
	}
	if len(readings) == 0 {
		http.Error(w, "no readings recorded yet", http.StatusNotFound)
		return
	}

	// RecentReadings returns newest first; plot oldest to newest.
	sort.Slice(readings, func(i, j int) bool { return readings[i].Tick < readings[j].Tick })

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Farm Monitor — Channel Averages", Width: "1100px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: "Channel Averages", Subtitle: fmt.Sprintf("session=%s readings=%d", session, len(readings))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "tick"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "average", Min: 0, Max: 255}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	ticks, series := splitByChannel(readings)
	line.SetXAxis(ticks)
	for ch := 0; ch < engine.NumChannels; ch++ {
		line.AddSeries(channelLabels[ch], series[ch])
	}

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		http.Error(w, fmt.Sprintf("render chart: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// splitByChannel builds one shared tick axis and a per-channel series of
// averages, carrying each channel's last value across ticks it was not
// sampled on so the lines stay continuous.
func splitByChannel(readings []store.Reading) ([]uint64, [engine.NumChannels][]opts.LineData) {
	var ticks []uint64
	var series [engine.NumChannels][]opts.LineData
	var last [engine.NumChannels]uint8

	for _, r := range readings {
		if r.Channel < engine.NumChannels {
			last[r.Channel] = r.Average
		}
		ticks = append(ticks, r.Tick)
		for ch := 0; ch < engine.NumChannels; ch++ {
			series[ch] = append(series[ch], opts.LineData{Value: last[ch]})
		}
	}
	return ticks, series
}
