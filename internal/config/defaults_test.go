package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/crysdata/crysanalyze/internal/xrd"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_PartialConfig(t *testing.T) {
	path := writeConfig(t, "defaults.json", `{"bg_poly": 3, "refine": true}`)

	d, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.BgPoly == nil || *d.BgPoly != 3 {
		t.Fatalf("bg_poly not loaded: %+v", d)
	}
	if d.MinHeight != nil {
		t.Fatalf("unset field should stay nil: %+v", d)
	}

	order := 3
	want := xrd.AnalysisConfig{BgPoly: &order, Refine: true}
	if diff := cmp.Diff(want, d.AnalysisConfig()); diff != "" {
		t.Fatalf("analysis config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_RangePair(t *testing.T) {
	path := writeConfig(t, "defaults.json", `{"range_min": 20, "range_max": 60}`)
	d, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg := d.AnalysisConfig()
	if cfg.Range == nil || cfg.Range.Min != 20 || cfg.Range.Max != 60 {
		t.Fatalf("range not applied: %+v", cfg.Range)
	}
}

func TestLoad_Rejections(t *testing.T) {
	cases := []struct {
		name    string
		file    string
		content string
	}{
		{"wrong extension", "defaults.yaml", `{}`},
		{"invalid json", "defaults.json", `{"bg_poly": }`},
		{"negative order", "defaults.json", `{"bg_poly": -1}`},
		{"bad distance", "defaults.json", `{"min_dist": 0}`},
		{"bad wavelength", "defaults.json", `{"wavelength": -1.5}`},
		{"inverted range", "defaults.json", `{"range_min": 60, "range_max": 20}`},
		{"half range", "defaults.json", `{"range_min": 20}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			path := writeConfig(t, c.file, c.content)
			if _, err := Load(path); err == nil {
				t.Fatalf("expected error for %s", c.name)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
