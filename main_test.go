package main

import (
	"bytes"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"georef/internal/project"
	"georef/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeProject stores the affine map x' = 10 + 2x + 0.5y, y' = 5 - 0.3x + 1.5y
// sampled on the corners of a square.
func writeProject(t *testing.T, method string) string {
	t.Helper()
	p := project.New("square")
	p.Method = method
	for i, s := range []geometry.Point2D{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}} {
		tgt := geometry.Point2D{X: 10 + 2*s.X + 0.5*s.Y, Y: 5 - 0.3*s.X + 1.5*s.Y}
		p.AddReference("c"+strconv.Itoa(i), s, tgt)
	}
	path := filepath.Join(t.TempDir(), "square.georef.json")
	require.NoError(t, p.Save(path))
	return path
}

func parseLine(t *testing.T, line string) (float64, float64) {
	t.Helper()
	f := strings.Fields(line)
	require.Len(t, f, 2, line)
	x, err := strconv.ParseFloat(f[0], 64)
	require.NoError(t, err)
	y, err := strconv.ParseFloat(f[1], 64)
	require.NoError(t, err)
	return x, y
}

func TestRunConvert(t *testing.T) {
	path := writeProject(t, "triangulation")
	in := strings.NewReader("5 5\n\n# comment\nnot a point\n50 50\n10,10\n")
	var out, errOut bytes.Buffer

	code := run([]string{"-project", path}, in, &out, &errOut)
	require.Equal(t, 0, code, errOut.String())

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 6)

	x, y := parseLine(t, lines[0])
	assert.InDelta(t, 22.5, x, 1e-9)
	assert.InDelta(t, 11, y, 1e-9)
	assert.Equal(t, "", lines[1])
	assert.Equal(t, "# comment", lines[2])
	assert.Equal(t, "nan nan", lines[3])
	assert.Equal(t, "nan nan", lines[4], "outside the triangulation")
	x, y = parseLine(t, lines[5])
	assert.InDelta(t, 35, x, 1e-9)
	assert.InDelta(t, 17, y, 1e-9)

	assert.Contains(t, errOut.String(), "failed=2")
}

func TestRunInverseOverride(t *testing.T) {
	path := writeProject(t, "triangulation")
	var out, errOut bytes.Buffer

	// affine extrapolates where the stored triangulation would not
	code := run([]string{"-project", path, "-method", "affine", "-inverse"},
		strings.NewReader("110 20\n"), &out, &errOut)
	require.Equal(t, 0, code, errOut.String())

	x, y := parseLine(t, strings.TrimSpace(out.String()))
	assert.InDelta(t, 45.238095, x, 1e-6)
	assert.InDelta(t, 19.047619, y, 1e-6)
	assert.Contains(t, errOut.String(), "method=affine")
}

func TestRunResiduals(t *testing.T) {
	path := writeProject(t, "affine")
	var out, errOut bytes.Buffer

	code := run([]string{"-project", path, "-residuals"}, strings.NewReader(""), &out, &errOut)
	require.Equal(t, 0, code, errOut.String())

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "0\tc0\t"))
	assert.True(t, strings.HasPrefix(lines[4], "rms\t"))

	rms, err := strconv.ParseFloat(strings.TrimPrefix(lines[4], "rms\t"), 64)
	require.NoError(t, err)
	assert.InDelta(t, 0, rms, 1e-9)
}

func TestRunErrors(t *testing.T) {
	var out, errOut bytes.Buffer
	assert.Equal(t, 2, run(nil, strings.NewReader(""), &out, &errOut))
	assert.Contains(t, errOut.String(), "Usage")

	errOut.Reset()
	missing := filepath.Join(t.TempDir(), "absent.json")
	assert.Equal(t, 1, run([]string{"-project", missing}, strings.NewReader(""), &out, &errOut))
	assert.Contains(t, errOut.String(), "cannot load project")

	errOut.Reset()
	path := writeProject(t, "polynomial3")
	assert.Equal(t, 1, run([]string{"-project", path}, strings.NewReader(""), &out, &errOut))
	assert.Contains(t, errOut.String(), "insufficient points")

	errOut.Reset()
	order := strconv.Itoa(math.MaxInt)
	assert.Equal(t, 1, run([]string{"-project", path, "-method", "polynomial", "-order", order}, strings.NewReader(""), &out, &errOut))
	assert.Contains(t, errOut.String(), "insufficient points")

	errOut.Reset()
	assert.Equal(t, 2, run([]string{"-project", path, "-scaling", "0", "-method", "bilinear"}, strings.NewReader(""), &out, &errOut))
	assert.Contains(t, errOut.String(), "bad settings")
	assert.Contains(t, errOut.String(), "transform.scaling must be a positive number, got 0")
	assert.Contains(t, errOut.String(), "bilinear")
}

func TestRunVersion(t *testing.T) {
	var out, errOut bytes.Buffer
	assert.Equal(t, 0, run([]string{"-version"}, strings.NewReader(""), &out, &errOut))
	assert.True(t, strings.HasPrefix(out.String(), "georef "))
}
