// Package config loads optional analysis defaults from a JSON file. Fields
// omitted from the file stay nil, so partial configs are safe; CLI flags
// always win over file values.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/crysdata/crysanalyze/internal/xrd"
)

// Defaults mirrors the analysis knobs as optional JSON fields.
type Defaults struct {
	BgPoly     *int     `json:"bg_poly,omitempty"`
	MinHeight  *float64 `json:"min_height,omitempty"`
	MinDist    *float64 `json:"min_dist,omitempty"`
	Refine     *bool    `json:"refine,omitempty"`
	RangeMin   *float64 `json:"range_min,omitempty"`
	RangeMax   *float64 `json:"range_max,omitempty"`
	Wavelength *float64 `json:"wavelength,omitempty"`
	Archive    *string  `json:"archive,omitempty"`
}

// Load reads and validates a defaults file. The file must have a .json
// extension and stay under 1MB.
func Load(path string) (*Defaults, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var d Defaults
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &d, nil
}

// Validate checks field domains; nil fields are always valid.
func (d *Defaults) Validate() error {
	if d.BgPoly != nil && *d.BgPoly < 0 {
		return fmt.Errorf("bg_poly must be non-negative, got %d", *d.BgPoly)
	}
	if d.MinDist != nil && *d.MinDist <= 0 {
		return fmt.Errorf("min_dist must be positive, got %f", *d.MinDist)
	}
	if d.Wavelength != nil && *d.Wavelength <= 0 {
		return fmt.Errorf("wavelength must be positive, got %f", *d.Wavelength)
	}
	if d.RangeMin != nil && d.RangeMax != nil && *d.RangeMin >= *d.RangeMax {
		return fmt.Errorf("range_min %f must be below range_max %f", *d.RangeMin, *d.RangeMax)
	}
	if (d.RangeMin == nil) != (d.RangeMax == nil) {
		return fmt.Errorf("range_min and range_max must be set together")
	}
	return nil
}

// AnalysisConfig builds the base xrd.AnalysisConfig these defaults
// describe. Callers layer CLI flags on top of the result.
func (d *Defaults) AnalysisConfig() xrd.AnalysisConfig {
	cfg := xrd.AnalysisConfig{
		BgPoly:         d.BgPoly,
		MinHeight:      d.MinHeight,
		MinDistanceDeg: d.MinDist,
	}
	if d.Refine != nil {
		cfg.Refine = *d.Refine
	}
	if d.RangeMin != nil && d.RangeMax != nil {
		cfg.Range = &xrd.AngleRange{Min: *d.RangeMin, Max: *d.RangeMax}
	}
	return cfg
}
