// crysanalyze is a CLI tool for rapid preliminary analysis of powder XRD
// data: background subtraction, peak detection, reports, plots, and a
// small web UI over an archive of past runs.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/crysdata/crysanalyze/internal/config"
	"github.com/crysdata/crysanalyze/internal/units"
	"github.com/crysdata/crysanalyze/internal/xrd"
)

const usageText = `Usage: crysanalyze [global flags] <command> [command flags]

Commands:
  peaks   Find and list peaks
  bgsub   Write background-subtracted scan data
  plot    Render a PNG plot of the scan
  runs    List or show archived analysis runs
  serve   Serve the archive and an interactive chart over HTTP

Global flags:
  -input        Path to the XRD data file (.xy, .dat)
  -wavelength   X-ray wavelength in Angstroms (e.g. 1.5406 for Cu Ka1)
  -anode        Anode preset (cu, co, cr, mo, fe) instead of -wavelength
  -output       Path for text output (default: stdout)
  -range        Restrict analysis to a 2-theta window, as "MIN,MAX"
  -config       JSON defaults file
  -archive      SQLite archive database path (enables run recording)
`

// globalOptions carries the flags shared by every command.
type globalOptions struct {
	input      string
	wavelength float64
	output     string
	archive    string
	rng        *xrd.AngleRange
	defaults   *config.Defaults
}

func main() {
	fs := flag.NewFlagSet("crysanalyze", flag.ExitOnError)
	fs.Usage = func() { fmt.Fprint(os.Stderr, usageText) }

	input := fs.String("input", "", "path to the XRD data file")
	wavelength := fs.Float64("wavelength", 0, "X-ray wavelength in Angstroms")
	anode := fs.String("anode", "", "anode preset (cu, co, cr, mo, fe)")
	output := fs.String("output", "", "path to save text-based results")
	rangeSpec := fs.String("range", "", `2-theta window as "MIN,MAX"`)
	configPath := fs.String("config", "", "JSON defaults file")
	archive := fs.String("archive", "", "SQLite archive database path")

	// Flags may appear before the command name only; everything after it
	// belongs to the command.
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	args := fs.Args()
	if len(args) == 0 {
		fs.Usage()
		os.Exit(2)
	}

	opts := globalOptions{
		input:   *input,
		output:  *output,
		archive: *archive,
	}

	if *configPath != "" {
		defaults, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		opts.defaults = defaults
	}

	opts.wavelength = *wavelength
	if *anode != "" {
		w, ok := units.WavelengthForAnode(strings.ToLower(*anode))
		if !ok {
			log.Fatalf("unknown anode %q (want cu, co, cr, mo, or fe)", *anode)
		}
		opts.wavelength = w
	}
	if opts.wavelength == 0 && opts.defaults != nil && opts.defaults.Wavelength != nil {
		opts.wavelength = *opts.defaults.Wavelength
	}
	if opts.archive == "" && opts.defaults != nil && opts.defaults.Archive != nil {
		opts.archive = *opts.defaults.Archive
	}

	if *rangeSpec != "" {
		r, err := parseRange(*rangeSpec)
		if err != nil {
			log.Fatalf("bad -range: %v", err)
		}
		opts.rng = r
	}

	command, commandArgs := args[0], args[1:]
	var err error
	switch command {
	case "peaks":
		err = runPeaks(opts, commandArgs)
	case "bgsub":
		err = runBgsub(opts, commandArgs)
	case "plot":
		err = runPlot(opts, commandArgs)
	case "runs":
		err = runRuns(opts, commandArgs)
	case "serve":
		err = runServe(opts, commandArgs)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", command)
		fs.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s: %v", command, err)
	}
}

// parseRange parses "MIN,MAX" into an angle window.
func parseRange(s string) (*xrd.AngleRange, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("expected two comma-separated values, got %q", s)
	}
	min, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid minimum %q: %w", parts[0], err)
	}
	max, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid maximum %q: %w", parts[1], err)
	}
	if min >= max {
		return nil, fmt.Errorf("minimum %g must be below maximum %g", min, max)
	}
	return &xrd.AngleRange{Min: min, Max: max}, nil
}
