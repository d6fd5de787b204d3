// Package report computes summary statistics over stored sensor history.
package report

import (
	"fmt"
	"io"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary describes one channel's stored samples.
type Summary struct {
	Channel uint8
	Count   int
	Mean    float64
	StdDev  float64
	Min     float64
	Max     float64
	Median  float64
	P90     float64
}

// Summarize computes the summary for one channel's samples. An empty
// sample set yields a zero summary with Count 0.
func Summarize(channel uint8, samples []float64) Summary {
	s := Summary{Channel: channel, Count: len(samples)}
	if len(samples) == 0 {
		return s
	}

	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	s.Mean = stat.Mean(sorted, nil)
	if len(sorted) > 1 {
		s.StdDev = stat.StdDev(sorted, nil)
	}
	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	s.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	s.P90 = stat.Quantile(0.9, stat.Empirical, sorted, nil)
	return s
}

// channelNames matches the channel roles wired into the auto-controller.
var channelNames = [...]string{"moisture", "nutrient", "light", "temp"}

// Render writes a fixed-width table of summaries.
func Render(w io.Writer, summaries []Summary) {
	fmt.Fprintf(w, "%-10s %8s %8s %8s %6s %6s %8s %8s\n",
		"channel", "count", "mean", "stddev", "min", "max", "median", "p90")
	for _, s := range summaries {
		name := fmt.Sprintf("ch%d", s.Channel)
		if int(s.Channel) < len(channelNames) {
			name = channelNames[s.Channel]
		}
		if s.Count == 0 {
			fmt.Fprintf(w, "%-10s %8d %8s %8s %6s %6s %8s %8s\n",
				name, 0, "-", "-", "-", "-", "-", "-")
			continue
		}
		fmt.Fprintf(w, "%-10s %8d %8.2f %8.2f %6.0f %6.0f %8.0f %8.0f\n",
			name, s.Count, s.Mean, s.StdDev, s.Min, s.Max, s.Median, s.P90)
	}
}
