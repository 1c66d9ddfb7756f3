// Package report renders peak analysis results for humans: the classic
// tab-separated text table and a richer markdown report.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/crysdata/crysanalyze/internal/units"
	"github.com/crysdata/crysanalyze/internal/xrd"
)

// Options control optional report content.
type Options struct {
	// SourceFile names the scan file for the report header; may be empty.
	SourceFile string
	// Wavelength, when positive, adds a d-spacing column (Angstroms).
	Wavelength float64
	// Config echoes the analysis parameters into the markdown report.
	Config xrd.AnalysisConfig
}

// WriteText writes the tab-separated peak table, one row per peak. This is
// the tool's historical output format.
func WriteText(w io.Writer, peaks []xrd.Peak, opts Options) error {
	if _, err := fmt.Fprintln(w, "Peak Analysis Results"); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	header := "2-theta\tIntensity"
	if opts.Config.Refine {
		header += "\tFWHM"
	}
	if opts.Wavelength > 0 {
		header += "\td-spacing"
	}
	if _, err := fmt.Fprintln(w, header); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	for _, p := range peaks {
		row := fmt.Sprintf("%.3f\t%.1f", p.Position, p.Intensity)
		if opts.Config.Refine {
			row += "\t" + formatFWHM(p.FWHM)
		}
		if opts.Wavelength > 0 {
			row += fmt.Sprintf("\t%.4f", units.DSpacing(p.Position, opts.Wavelength))
		}
		if _, err := fmt.Fprintln(w, row); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	return nil
}

// WriteMarkdown writes a markdown report: run parameters, then the peak
// table.
func WriteMarkdown(w io.Writer, peaks []xrd.Peak, opts Options) error {
	md := markdown.NewMarkdown(w)

	md.H1("Peak Analysis Results")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Parameter", "Value"},
		Rows:   configRows(opts),
	})
	md.PlainText("")

	md.H2(fmt.Sprintf("Peaks (%d)", len(peaks)))
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: peakHeader(opts),
		Rows:   peakRows(peaks, opts),
	})

	if err := md.Build(); err != nil {
		return fmt.Errorf("write markdown report: %w", err)
	}
	return nil
}

func configRows(opts Options) [][]string {
	rows := [][]string{}
	if opts.SourceFile != "" {
		rows = append(rows, []string{"Source", "`" + opts.SourceFile + "`"})
	}
	cfg := opts.Config
	if cfg.BgPoly != nil {
		rows = append(rows, []string{"Background order", strconv.Itoa(*cfg.BgPoly)})
	} else {
		rows = append(rows, []string{"Background order", "none"})
	}
	if cfg.MinHeight != nil {
		rows = append(rows, []string{"Min height", fmt.Sprintf("%g", *cfg.MinHeight)})
	} else {
		rows = append(rows, []string{"Min height", "10% of maximum"})
	}
	if cfg.MinDistanceDeg != nil {
		rows = append(rows, []string{"Min distance", fmt.Sprintf("%g°", *cfg.MinDistanceDeg)})
	} else {
		rows = append(rows, []string{"Min distance", fmt.Sprintf("%g°", xrd.DefaultMinDistanceDeg)})
	}
	if cfg.Range != nil {
		rows = append(rows, []string{"Range", fmt.Sprintf("%g° – %g°", cfg.Range.Min, cfg.Range.Max)})
	}
	rows = append(rows, []string{"Refinement", strconv.FormatBool(cfg.Refine)})
	if opts.Wavelength > 0 {
		rows = append(rows, []string{"Wavelength", fmt.Sprintf("%g Å", opts.Wavelength)})
	}
	return rows
}

func peakHeader(opts Options) []string {
	header := []string{"2θ (°)", "Intensity"}
	if opts.Config.Refine {
		header = append(header, "FWHM (°)")
	}
	if opts.Wavelength > 0 {
		header = append(header, "d (Å)")
	}
	return header
}

func peakRows(peaks []xrd.Peak, opts Options) [][]string {
	rows := make([][]string, 0, len(peaks))
	for _, p := range peaks {
		row := []string{
			fmt.Sprintf("%.3f", p.Position),
			fmt.Sprintf("%.1f", p.Intensity),
		}
		if opts.Config.Refine {
			row = append(row, formatFWHM(p.FWHM))
		}
		if opts.Wavelength > 0 {
			row = append(row, fmt.Sprintf("%.4f", units.DSpacing(p.Position, opts.Wavelength)))
		}
		rows = append(rows, row)
	}
	return rows
}

func formatFWHM(fwhm *float64) string {
	if fwhm == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.3f", *fwhm)
}
