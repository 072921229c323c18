package raster

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"georef/internal/georef"
	"georef/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checker returns a 4x4 image whose pixel (x, y) has red x*60 and green y*60.
func checker() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 60), B: 10, A: 255})
		}
	}
	return img
}

// pixelToMap maps pixel coordinates to target X = 100 + 2x, Y = 200 - 2y.
func pixelToMap(p geometry.Point2D) geometry.Point2D {
	return geometry.Point2D{X: 100 + 2*p.X, Y: 200 - 2*p.Y}
}

func fitted(t *testing.T, method georef.Method, corners ...geometry.Point2D) *georef.Engine {
	t.Helper()
	e := georef.New()
	for _, c := range corners {
		e.AddReference(c, pixelToMap(c))
	}
	require.NoError(t, e.Evaluate(method, 0))
	return e
}

func TestNewGrid(t *testing.T) {
	g, err := NewGrid(geometry.Rect{X: 100, Y: 192, Width: 8, Height: 6}, 16)
	require.NoError(t, err)
	assert.Equal(t, 16, g.Width)
	assert.Equal(t, 12, g.Height)
	assert.Equal(t, 0.5, g.Cell)
	assert.Equal(t, geometry.Point2D{X: 100.25, Y: 197.75}, g.Center(0, 0))

	_, err = NewGrid(geometry.Rect{X: 0, Y: 0, Width: 8, Height: 6}, 0)
	assert.Error(t, err)
	_, err = NewGrid(geometry.Rect{X: 0, Y: 0, Width: 8, Height: 0}, 10)
	assert.Error(t, err)
}

func TestWarpAffine(t *testing.T) {
	src := checker()
	e := fitted(t, georef.Affine,
		geometry.Point2D{X: 0, Y: 0}, geometry.Point2D{X: 4, Y: 0},
		geometry.Point2D{X: 4, Y: 4}, geometry.Point2D{X: 0, Y: 4})

	g, err := NewGrid(e.Extent(true), 8)
	require.NoError(t, err)
	require.Equal(t, 8, g.Height)

	out, unmapped := Warp(src, e, g, 3)
	assert.Equal(t, 0, unmapped)
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			assert.Equal(t, src.RGBAAt(col/2, row/2), out.RGBAAt(col, row), "cell (%d, %d)", col, row)
		}
	}
}

func TestWarpOutsideCoverage(t *testing.T) {
	src := checker()
	e := fitted(t, georef.Triangulation,
		geometry.Point2D{X: 0, Y: 0}, geometry.Point2D{X: 4, Y: 0}, geometry.Point2D{X: 0, Y: 4})

	g, err := NewGrid(e.Extent(true), 8)
	require.NoError(t, err)

	out, unmapped := Warp(src, e, g, 0)
	// 28 cells lie strictly beyond the diagonal, 8 more touch it
	assert.GreaterOrEqual(t, unmapped, 28)
	assert.LessOrEqual(t, unmapped, 36)
	assert.Equal(t, src.RGBAAt(0, 0), out.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{}, out.RGBAAt(7, 7))
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	src := checker()

	for _, name := range []string{"out.tif", "out.png"} {
		path := filepath.Join(dir, name)
		require.NoError(t, Save(path, src), name)

		img, err := Load(path)
		require.NoError(t, err, name)
		assert.Equal(t, src.Bounds(), img.Bounds())
		r, g, b, a := img.At(3, 2).RGBA()
		assert.Equal(t, [4]uint32{180 * 0x101, 120 * 0x101, 10 * 0x101, 0xffff}, [4]uint32{r, g, b, a}, name)
	}

	assert.Error(t, Save(filepath.Join(dir, "out.bmp"), src))
	_, err := Load(filepath.Join(dir, "absent.png"))
	assert.Error(t, err)
}

func TestIsSupportedFormat(t *testing.T) {
	assert.True(t, IsSupportedFormat("scan.TIF"))
	assert.True(t, IsSupportedFormat("/a/b/map.jpeg"))
	assert.False(t, IsSupportedFormat("notes.txt"))
}

func TestGridGeoTransform(t *testing.T) {
	g, err := NewGrid(geometry.Rect{X: 100, Y: 192, Width: 8, Height: 6}, 16)
	require.NoError(t, err)

	tr := g.GeoTransform()
	assert.Equal(t, geometry.AffineTransform{A: 0.5, TX: 100, D: -0.5, TY: 198}, tr)
	assert.Equal(t, geometry.Point2D{X: 108, Y: 192}, tr.Apply(geometry.Point2D{X: 16, Y: 12}))
	assert.Equal(t, tr.Apply(geometry.Point2D{X: 3.5, Y: 7.5}), g.Center(3, 7))
}

func TestWorldFilePath(t *testing.T) {
	tests := []struct {
		image string
		want  string
	}{
		{"scan.tif", "scan.tfw"},
		{"out/map.png", "out/map.pgw"},
		{"photo.jpeg", "photo.jgw"},
		{"a.b/c.jpg", "a.b/c.jgw"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WorldFilePath(tt.image), tt.image)
	}
}

func TestWriteWorldFile(t *testing.T) {
	g, err := NewGrid(geometry.Rect{X: 100, Y: 192, Width: 8, Height: 6}, 16)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.tfw")
	require.NoError(t, WriteWorldFile(path, g.GeoTransform()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want := "0.5000000000\n0.0000000000\n0.0000000000\n-0.5000000000\n100.2500000000\n197.7500000000\n"
	assert.Equal(t, want, string(data))

	assert.Error(t, WriteWorldFile(filepath.Join(t.TempDir(), "missing", "out.tfw"), g.GeoTransform()))
}
