package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crysdata/crysanalyze/internal/ingest"
	"github.com/crysdata/crysanalyze/internal/monitoring"
	"github.com/crysdata/crysanalyze/internal/plot"
	"github.com/crysdata/crysanalyze/internal/report"
	"github.com/crysdata/crysanalyze/internal/scandb"
	"github.com/crysdata/crysanalyze/internal/webserver"
	"github.com/crysdata/crysanalyze/internal/xrd"
)

// baseConfig builds the analysis config from file defaults plus the global
// range flag. Command flags layer on top of the result.
func (g globalOptions) baseConfig() xrd.AnalysisConfig {
	var cfg xrd.AnalysisConfig
	if g.defaults != nil {
		cfg = g.defaults.AnalysisConfig()
	}
	if g.rng != nil {
		cfg.Range = g.rng
	}
	return cfg
}

func (g globalOptions) loadScan() (xrd.Scan, error) {
	if g.input == "" {
		return xrd.Scan{}, fmt.Errorf("no input file (use -input)")
	}
	return ingest.ReadScan(g.input)
}

// openOutput returns the text output destination: the -output file when
// set, stdout otherwise.
func (g globalOptions) openOutput() (io.Writer, func() error, error) {
	if g.output == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(g.output)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}
	return f, f.Close, nil
}

// setFlags reports which flags were given explicitly on the command line.
func setFlags(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

func runPeaks(g globalOptions, args []string) error {
	fs := flag.NewFlagSet("peaks", flag.ExitOnError)
	fitPeaks := fs.Bool("fit-peaks", false, "fit found peaks (adds FWHM)")
	minHeight := fs.Float64("min-height", 0, "minimum peak height for detection")
	minDist := fs.Float64("min-dist", 0, "minimum horizontal distance between peaks (degrees)")
	bgPoly := fs.Int("bg-poly", 0, "polynomial background subtraction order")
	asMarkdown := fs.Bool("markdown", false, "write the report as markdown")
	record := fs.Bool("record", false, "record this run in the archive (-archive)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	set := setFlags(fs)

	cfg := g.baseConfig()
	if set["bg-poly"] {
		v := *bgPoly
		cfg.BgPoly = &v
	}
	if set["min-height"] {
		v := *minHeight
		cfg.MinHeight = &v
	}
	if set["min-dist"] {
		v := *minDist
		cfg.MinDistanceDeg = &v
	}
	if *fitPeaks {
		cfg.Refine = true
	}

	scan, err := g.loadScan()
	if err != nil {
		return err
	}

	res, err := xrd.Analyze(scan, cfg)
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		monitoring.Logf("warning: %v", w)
	}

	out, closeOut, err := g.openOutput()
	if err != nil {
		return err
	}
	defer closeOut()

	opts := report.Options{
		SourceFile: g.input,
		Wavelength: g.wavelength,
		Config:     cfg,
	}
	if *asMarkdown {
		err = report.WriteMarkdown(out, res.Peaks, opts)
	} else {
		err = report.WriteText(out, res.Peaks, opts)
	}
	if err != nil {
		return err
	}

	if *record {
		if g.archive == "" {
			return fmt.Errorf("-record requires -archive")
		}
		if err := recordRun(g, cfg, res); err != nil {
			return err
		}
	}
	return nil
}

func recordRun(g globalOptions, cfg xrd.AnalysisConfig, res xrd.Result) error {
	db, err := scandb.Open(g.archive)
	if err != nil {
		return err
	}
	defer db.Close()

	params, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode run params: %w", err)
	}

	run := &scandb.Run{
		SourceFile: g.input,
		Wavelength: g.wavelength,
		ParamsJSON: params,
	}
	if err := scandb.NewRunStore(db).InsertRun(run, res.Peaks); err != nil {
		return err
	}
	monitoring.Logf("recorded run %s (%d peaks)", run.RunID, len(res.Peaks))
	return nil
}

func runBgsub(g globalOptions, args []string) error {
	fs := flag.NewFlagSet("bgsub", flag.ExitOnError)
	bgPoly := fs.Int("bg-poly", 3, "polynomial background subtraction order")
	if err := fs.Parse(args); err != nil {
		return err
	}

	scan, err := g.loadScan()
	if err != nil {
		return err
	}
	if g.rng != nil {
		if scan, err = scan.Clip(*g.rng); err != nil {
			return err
		}
	}

	subtracted, warn, err := xrd.SubtractBackground(scan.TwoTheta, scan.Intensity, *bgPoly)
	if err != nil {
		return err
	}
	if warn != nil {
		monitoring.Logf("warning: %v", warn)
	}

	out, closeOut, err := g.openOutput()
	if err != nil {
		return err
	}
	defer closeOut()

	return ingest.WriteScan(out, xrd.Scan{TwoTheta: scan.TwoTheta, Intensity: subtracted})
}

func runPlot(g globalOptions, args []string) error {
	fs := flag.NewFlagSet("plot", flag.ExitOnError)
	plotType := fs.String("plot-type", "raw", "type of plot to generate (raw, bgsub, peaks)")
	savePlot := fs.String("save-plot", "crysanalyze.png", "save plot to the specified file")
	bgPoly := fs.Int("bg-poly", 0, "polynomial background subtraction order")
	if err := fs.Parse(args); err != nil {
		return err
	}
	set := setFlags(fs)

	t := plot.Type(*plotType)
	if !t.Valid() {
		return fmt.Errorf("unknown plot type %q (want raw, bgsub, or peaks)", *plotType)
	}

	cfg := g.baseConfig()
	if set["bg-poly"] {
		v := *bgPoly
		cfg.BgPoly = &v
	}
	// A bgsub plot needs a background; fall back to the traditional cubic.
	if t == plot.BgSub && cfg.BgPoly == nil {
		order := 3
		cfg.BgPoly = &order
	}

	scan, err := g.loadScan()
	if err != nil {
		return err
	}

	res, err := xrd.Analyze(scan, cfg)
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		monitoring.Logf("warning: %v", w)
	}

	if err := plot.Render(*savePlot, res, t); err != nil {
		return err
	}
	fmt.Printf("Plot saved to %s\n", *savePlot)
	return nil
}

func runRuns(g globalOptions, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	limit := fs.Int("limit", 20, "maximum number of runs to list")
	runID := fs.String("id", "", "show a single run with its peaks")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if g.archive == "" {
		return fmt.Errorf("no archive configured (use -archive)")
	}
	db, err := scandb.Open(g.archive)
	if err != nil {
		return err
	}
	defer db.Close()
	store := scandb.NewRunStore(db)

	out, closeOut, err := g.openOutput()
	if err != nil {
		return err
	}
	defer closeOut()

	if *runID != "" {
		run, err := store.GetRun(*runID)
		if err != nil {
			return err
		}
		peaks, err := store.RunPeaks(*runID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Run %s\nSource: %s\nWavelength: %g\nRecorded: %s\n\n",
			run.RunID, run.SourceFile, run.Wavelength,
			time.Unix(0, run.CreatedAtNs).Format(time.RFC3339))
		return report.WriteText(out, peaks, report.Options{
			SourceFile: run.SourceFile,
			Wavelength: run.Wavelength,
		})
	}

	runs, err := store.ListRuns(*limit)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Run ID\tRecorded\tSource\tPeaks")
	for _, run := range runs {
		fmt.Fprintf(out, "%s\t%s\t%s\t%d\n",
			run.RunID,
			time.Unix(0, run.CreatedAtNs).Format(time.RFC3339),
			run.SourceFile,
			run.PeakCount)
	}
	return nil
}

func runServe(g globalOptions, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	listen := fs.String("listen", ":8080", "listen address")
	bgPoly := fs.Int("bg-poly", 0, "polynomial background subtraction order for the current scan")
	if err := fs.Parse(args); err != nil {
		return err
	}
	set := setFlags(fs)

	var store *scandb.RunStore
	if g.archive != "" {
		db, err := scandb.Open(g.archive)
		if err != nil {
			return err
		}
		defer db.Close()
		store = scandb.NewRunStore(db)
	}

	// An input scan is optional for serve: without one, only the archive
	// is browsable.
	var current *xrd.Result
	if g.input != "" {
		cfg := g.baseConfig()
		if set["bg-poly"] {
			v := *bgPoly
			cfg.BgPoly = &v
		}
		scan, err := g.loadScan()
		if err != nil {
			return err
		}
		res, err := xrd.Analyze(scan, cfg)
		if err != nil {
			return err
		}
		for _, w := range res.Warnings {
			monitoring.Logf("warning: %v", w)
		}
		current = &res
	}
	if store == nil && current == nil {
		return fmt.Errorf("nothing to serve: provide -input, -archive, or both")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:    *listen,
		Handler: webserver.NewServer(store, current, g.input).ServeMux(),
	}

	errCh := make(chan error, 1)
	go func() {
		monitoring.Logf("listening on %s", *listen)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	monitoring.Logf("server stopped")
	return nil
}
