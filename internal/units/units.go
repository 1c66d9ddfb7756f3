// Package units provides shared X-ray wavelength constants and the Bragg
// d-spacing conversion. Only presentation code uses these; the analysis
// core works purely in degrees and counts.
package units

import "math"

// Characteristic Ka1 wavelengths of common anode materials, in Angstroms.
const (
	CuKa1 = 1.54056
	CuKa2 = 1.54439
	CoKa1 = 1.78897
	CrKa1 = 2.28970
	MoKa1 = 0.70930
	FeKa1 = 1.93604
)

// anodePresets maps CLI-friendly anode names to Ka1 wavelengths.
var anodePresets = map[string]float64{
	"cu": CuKa1,
	"co": CoKa1,
	"cr": CrKa1,
	"mo": MoKa1,
	"fe": FeKa1,
}

// WavelengthForAnode returns the Ka1 wavelength for a named anode material,
// or false if the name is unknown.
func WavelengthForAnode(name string) (float64, bool) {
	w, ok := anodePresets[name]
	return w, ok
}

// DSpacing converts a peak position (2-theta, degrees) and wavelength
// (Angstroms) to the crystallographic plane spacing d = lambda/(2 sin
// theta), in Angstroms. Returns 0 for inputs outside the physical domain.
func DSpacing(twoThetaDeg, wavelength float64) float64 {
	if twoThetaDeg <= 0 || twoThetaDeg >= 360 || wavelength <= 0 {
		return 0
	}
	theta := twoThetaDeg / 2 * math.Pi / 180
	s := math.Sin(theta)
	if s <= 0 {
		return 0
	}
	return wavelength / (2 * s)
}
