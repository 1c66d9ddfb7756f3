package webserver

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// handleCurrentChart renders the current analysis as an interactive line
// chart: the analyzed trace (background-subtracted when available) with
// detected peaks overlaid as scatter points.
func (s *Server) handleCurrentChart(w http.ResponseWriter, r *http.Request) {
	if s.current == nil {
		s.writeJSONError(w, http.StatusNotFound, "no current analysis loaded")
		return
	}

	res := s.current
	series := res.Scan.Intensity
	seriesName := "intensity"
	if res.Subtracted != nil {
		series = res.Subtracted
		seriesName = "intensity (background-subtracted)"
	}

	xs := make([]string, res.Scan.Len())
	ys := make([]opts.LineData, res.Scan.Len())
	for i := range xs {
		xs[i] = fmt.Sprintf("%.2f", res.Scan.TwoTheta[i])
		ys[i] = opts.LineData{Value: series[i]}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "crysanalyze — " + s.source,
			Theme:     "dark",
			Width:     "1200px",
			Height:    "600px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "XRD Scan",
			Subtitle: fmt.Sprintf("source=%s points=%d peaks=%d", s.source, res.Scan.Len(), len(res.Peaks)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "2θ (°)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Intensity (a.u.)"}),
	)
	line.SetXAxis(xs)
	line.AddSeries(seriesName, ys, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(false)}))

	if len(res.Peaks) > 0 {
		scatter := charts.NewScatter()
		data := make([]opts.ScatterData, 0, len(res.Peaks))
		for _, p := range res.Peaks {
			data = append(data, opts.ScatterData{
				Value: []interface{}{fmt.Sprintf("%.2f", p.Position), p.Intensity},
			})
		}
		scatter.AddSeries("peaks", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 10}))
		line.Overlap(scatter)
	}

	s.renderChart(w, line)
}

// handleRunChart renders an archived run's peaks as a scatter chart:
// position against intensity, sized by presence of a refined width.
func (s *Server) handleRunChart(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeJSONError(w, http.StatusNotFound, "no archive configured")
		return
	}

	// Path shape: /runs/{id}/chart
	rest := strings.TrimPrefix(r.URL.Path, "/runs/")
	runID, tail, ok := strings.Cut(rest, "/")
	if !ok || tail != "chart" || runID == "" {
		http.NotFound(w, r)
		return
	}

	run, err := s.store.GetRun(runID)
	if err != nil {
		s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("run %s not found", runID))
		return
	}
	peaks, err := s.store.RunPeaks(runID)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("load peaks: %v", err))
		return
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "crysanalyze — " + run.SourceFile,
			Theme:     "dark",
			Width:     "1200px",
			Height:    "600px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Archived Peaks",
			Subtitle: fmt.Sprintf("run=%s source=%s peaks=%d", run.RunID, run.SourceFile, len(peaks)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "2θ (°)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Intensity (a.u.)"}),
	)

	data := make([]opts.ScatterData, 0, len(peaks))
	for _, p := range peaks {
		data = append(data, opts.ScatterData{Value: []interface{}{p.Position, p.Intensity}})
	}
	scatter.AddSeries("peaks", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))

	s.renderChart(w, scatter)
}

// renderer is the common surface of go-echarts chart types.
type renderer interface {
	Render(w io.Writer) error
}

func (s *Server) renderChart(w http.ResponseWriter, chart renderer) {
	var buf bytes.Buffer
	if err := chart.Render(&buf); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
