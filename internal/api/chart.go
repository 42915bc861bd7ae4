package api

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// countsChart renders a quick bar chart (HTML) of per-label counts using
// go-echarts. This is a debugging-only endpoint (no auth) to eyeball
// counting behaviour without the kiosk UI. Query params:
//   - since_hours (optional): aggregate the audit trail over that window
//     instead of the live session stats.
func (s *Server) countsChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var byLabel map[string]int
	subtitle := "live session"

	if sh := r.URL.Query().Get("since_hours"); sh != "" {
		hours, err := strconv.Atoi(sh)
		if err != nil || hours < 1 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'since_hours' parameter")
			return
		}
		if s.db == nil {
			s.writeJSONError(w, http.StatusServiceUnavailable, "no database configured")
			return
		}
		byLabel, err = s.db.CountsByLabelSince(time.Now().Add(-time.Duration(hours) * time.Hour))
		if err != nil {
			s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to aggregate counts: %v", err))
			return
		}
		subtitle = fmt.Sprintf("last %dh across all sessions", hours)
	} else {
		_, byLabel, _, _ = s.lane.Stats()
	}

	labels := make([]string, 0, len(byLabel))
	for label := range byLabel {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	data := make([]opts.BarData, 0, len(labels))
	for _, label := range labels {
		data = append(data, opts.BarData{Value: byLabel[label]})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Counts by Label", Theme: "dark", Width: "900px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: "Counts by Label", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(labels)
	bar.AddSeries("counts", data)

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
