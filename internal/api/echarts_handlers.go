package api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// handleHistoryChart renders the session history as an HTML page with two
// charts: per-session event counts (bar) and the good-shift rate over time
// (line). This is a quick debugging view, not the product UI.
func (ws *WebServer) handleHistoryChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ws.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	stats, err := ws.loadStats()
	if err != nil {
		ws.writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}
	history := stats.SessionHistory
	if len(history) == 0 {
		ws.writeJSONError(w, http.StatusNotFound, "no sessions recorded yet")
		return
	}

	x := make([]string, 0, len(history))
	stalls := make([]opts.BarData, 0, len(history))
	lugs := make([]opts.BarData, 0, len(history))
	launches := make([]opts.BarData, 0, len(history))
	shiftRate := make([]opts.LineData, 0, len(history))

	for _, entry := range history {
		x = append(x, time.Unix(int64(entry.Timestamp), 0).Format("01-02 15:04"))
		stalls = append(stalls, opts.BarData{Value: entry.Stalls})
		lugs = append(lugs, opts.BarData{Value: entry.Lugs})
		launches = append(launches, opts.BarData{Value: entry.Launches})

		rate := 0.0
		if shifts := entry.Upshifts + entry.Downshifts; shifts > 0 {
			rate = float64(entry.UpshiftsGood+entry.DownshiftsGood) / float64(shifts)
		}
		shiftRate = append(shiftRate, opts.LineData{Value: rate * 100})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Events per Session", Subtitle: fmt.Sprintf("sessions=%d", len(history))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("stalls", stalls).
		AddSeries("lugs", lugs).
		AddSeries("launches", launches)

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Good Shift Rate", Subtitle: "percent of graded shifts per session"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 100, Name: "%"}),
	)
	line.SetXAxis(x).
		AddSeries("good shifts", shiftRate, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true)}))

	page := components.NewPage()
	page.AddCharts(bar, line)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
