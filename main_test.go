package main

import (
	"testing"

	"github.com/crysdata/crysanalyze/internal/config"
	"github.com/crysdata/crysanalyze/internal/xrd"
)

func TestParseRange(t *testing.T) {
	r, err := parseRange("20,60")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Min != 20 || r.Max != 60 {
		t.Fatalf("got [%g, %g], want [20, 60]", r.Min, r.Max)
	}

	// Whitespace around values is tolerated.
	if _, err := parseRange(" 10 , 40 "); err != nil {
		t.Fatalf("whitespace range rejected: %v", err)
	}

	for _, bad := range []string{"", "20", "20,60,90", "abc,60", "20,abc", "60,20"} {
		if _, err := parseRange(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestBaseConfig_Layering(t *testing.T) {
	order := 2
	refine := true
	g := globalOptions{
		rng: &xrd.AngleRange{Min: 15, Max: 45},
		defaults: &config.Defaults{
			BgPoly: &order,
			Refine: &refine,
		},
	}

	cfg := g.baseConfig()
	if cfg.BgPoly == nil || *cfg.BgPoly != 2 {
		t.Fatalf("file default bg_poly not applied: %+v", cfg)
	}
	if !cfg.Refine {
		t.Fatal("file default refine not applied")
	}
	// The command-line range wins over any file range.
	if cfg.Range == nil || cfg.Range.Min != 15 || cfg.Range.Max != 45 {
		t.Fatalf("range flag not applied: %+v", cfg.Range)
	}
}

func TestBaseConfig_Empty(t *testing.T) {
	cfg := globalOptions{}.baseConfig()
	if cfg.BgPoly != nil || cfg.MinHeight != nil || cfg.Range != nil || cfg.Refine {
		t.Fatalf("empty options should give a zero config: %+v", cfg)
	}
}
