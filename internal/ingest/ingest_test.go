package ingest

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crysdata/crysanalyze/internal/xrd"
)

func TestParseScan_Whitespace(t *testing.T) {
	in := "10.0 100.5\n10.1\t 110.25\n10.2  95\n"
	scan, err := ParseScan(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []float64{10.0, 10.1, 10.2}, scan.TwoTheta)
	assert.Equal(t, []float64{100.5, 110.25, 95}, scan.Intensity)
}

func TestParseScan_CommentsAndBlanks(t *testing.T) {
	in := strings.Join([]string{
		"# instrument: test diffractometer",
		"% legacy comment style",
		"! spc-style comment",
		"// c-style comment",
		"",
		"10.0, 100",
		"10.5; 200",
		"",
	}, "\n")
	scan, err := ParseScan(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 2, scan.Len())
}

func TestParseScan_ColumnCount(t *testing.T) {
	_, err := ParseScan(strings.NewReader("10.0 100 3\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 2 columns")

	_, err = ParseScan(strings.NewReader("10.0\n"))
	require.Error(t, err)
}

func TestParseScan_BadNumbers(t *testing.T) {
	_, err := ParseScan(strings.NewReader("abc 100\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad angle")

	_, err = ParseScan(strings.NewReader("10.0 xyz\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad intensity")

	_, err = ParseScan(strings.NewReader("10.0 NaN\n10.1 5\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-finite")
}

func TestParseScan_NonMonotonicAngles(t *testing.T) {
	_, err := ParseScan(strings.NewReader("10.0 1\n10.2 2\n10.1 3\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not monotonic")
}

func TestParseScan_TooShort(t *testing.T) {
	_, err := ParseScan(strings.NewReader("10.0 1\n"))
	require.True(t, errors.Is(err, xrd.ErrEmptySeries), "got %v", err)

	_, err = ParseScan(strings.NewReader("# nothing but comments\n"))
	require.True(t, errors.Is(err, xrd.ErrEmptySeries), "got %v", err)
}

func TestWriteScan_RoundTrip(t *testing.T) {
	scan := xrd.Scan{
		TwoTheta:  []float64{10.0, 10.1, 10.2},
		Intensity: []float64{5.25, 105.5, 4.75},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteScan(&buf, scan))

	back, err := ParseScan(&buf)
	require.NoError(t, err)
	assert.Equal(t, scan.TwoTheta, back.TwoTheta)
	assert.Equal(t, scan.Intensity, back.Intensity)
}
