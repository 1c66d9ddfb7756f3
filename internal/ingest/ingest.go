// Package ingest reads two-column (2-theta, intensity) scan files in the
// delimited text formats XRD instruments commonly export (.xy, .dat, .csv).
// It validates the structural contract the analysis core relies on: equal
// lengths, finite values, non-decreasing angles.
package ingest

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/crysdata/crysanalyze/internal/xrd"
)

// ReadScan loads a scan from a delimited text file.
func ReadScan(path string) (xrd.Scan, error) {
	f, err := os.Open(path)
	if err != nil {
		return xrd.Scan{}, fmt.Errorf("open scan file: %w", err)
	}
	defer f.Close()

	scan, err := ParseScan(f)
	if err != nil {
		return xrd.Scan{}, fmt.Errorf("%s: %w", path, err)
	}
	return scan, nil
}

// ParseScan parses two-column scan data from r. Blank lines and lines
// starting with '#', '%', '!' or '//' are ignored; columns may be separated
// by whitespace, commas, or semicolons. Every data row must hold exactly
// two finite numbers, and angles must be non-decreasing.
func ParseScan(r io.Reader) (xrd.Scan, error) {
	var scan xrd.Scan

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || isComment(line) {
			continue
		}

		fields := splitColumns(line)
		if len(fields) != 2 {
			return xrd.Scan{}, fmt.Errorf("line %d: expected 2 columns, got %d", lineNo, len(fields))
		}

		angle, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return xrd.Scan{}, fmt.Errorf("line %d: bad angle %q: %w", lineNo, fields[0], err)
		}
		intensity, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return xrd.Scan{}, fmt.Errorf("line %d: bad intensity %q: %w", lineNo, fields[1], err)
		}
		if math.IsNaN(angle) || math.IsInf(angle, 0) || math.IsNaN(intensity) || math.IsInf(intensity, 0) {
			return xrd.Scan{}, fmt.Errorf("line %d: non-finite value", lineNo)
		}
		if n := len(scan.TwoTheta); n > 0 && angle < scan.TwoTheta[n-1] {
			return xrd.Scan{}, fmt.Errorf("line %d: angle %g not monotonic (previous %g)",
				lineNo, angle, scan.TwoTheta[n-1])
		}

		scan.TwoTheta = append(scan.TwoTheta, angle)
		scan.Intensity = append(scan.Intensity, intensity)
	}
	if err := sc.Err(); err != nil {
		return xrd.Scan{}, fmt.Errorf("read scan data: %w", err)
	}

	if err := scan.Validate(); err != nil {
		return xrd.Scan{}, err
	}
	return scan, nil
}

func isComment(line string) bool {
	return strings.HasPrefix(line, "#") ||
		strings.HasPrefix(line, "%") ||
		strings.HasPrefix(line, "!") ||
		strings.HasPrefix(line, "//")
}

// splitColumns splits on any run of whitespace, commas, or semicolons.
func splitColumns(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ',' || r == ';'
	})
}

// WriteScan writes a scan as two-column whitespace-delimited text, the same
// shape ReadScan accepts. Used by the bgsub command to emit corrected data.
func WriteScan(w io.Writer, scan xrd.Scan) error {
	bw := bufio.NewWriter(w)
	for i := range scan.TwoTheta {
		if _, err := fmt.Fprintf(bw, "%.4f\t%.4f\n", scan.TwoTheta[i], scan.Intensity[i]); err != nil {
			return fmt.Errorf("write scan data: %w", err)
		}
	}
	return bw.Flush()
}
