package raster

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"runtime"
	"sync"

	"georef/pkg/geometry"
)

// stripHeight is the number of output rows one worker renders at a time.
const stripHeight = 32

// Converter maps points between the source and target systems.
// *georef.Engine implements it.
type Converter interface {
	Convert(p geometry.Point2D, inverse bool) (geometry.Point2D, error)
}

// Grid is a north-up raster over a rectangle of target coordinates with
// square cells. Row 0 is the top (largest Y) edge.
type Grid struct {
	Extent geometry.Rect
	Width  int
	Height int
	Cell   float64
}

// NewGrid covers extent with width columns and as many rows as the aspect
// ratio needs.
func NewGrid(extent geometry.Rect, width int) (Grid, error) {
	if width <= 0 {
		return Grid{}, fmt.Errorf("grid width must be positive, got %d", width)
	}
	if !(extent.Width > 0) || !(extent.Height > 0) {
		return Grid{}, fmt.Errorf("grid extent %gx%g is empty", extent.Width, extent.Height)
	}

	cell := extent.Width / float64(width)
	height := int(math.Ceil(extent.Height/cell - 1e-9))
	if height < 1 {
		height = 1
	}
	return Grid{Extent: extent, Width: width, Height: height, Cell: cell}, nil
}

// GeoTransform maps pixel coordinates of g, where (0, 0) is the top-left
// corner of the top-left cell, to target coordinates.
func (g Grid) GeoTransform() geometry.AffineTransform {
	return geometry.Translation(g.Extent.XMin(), g.Extent.YMax()).Compose(geometry.Scale(g.Cell, -g.Cell))
}

// Center returns the target coordinate at the centre of cell (col, row).
func (g Grid) Center(col, row int) geometry.Point2D {
	return g.GeoTransform().Apply(geometry.Point2D{X: float64(col) + 0.5, Y: float64(row) + 0.5})
}

// Warp renders src onto g. Each output cell is mapped through the inverse
// transform into source pixel coordinates, where pixel (i, j) covers
// [i, i+1) x [j, j+1), and takes the colour of the pixel it lands in. Cells
// that cannot be converted or fall outside src stay transparent; their
// number is returned. workers <= 0 uses one worker per CPU.
func Warp(src image.Image, conv Converter, g Grid, workers int) (*image.RGBA, int) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	dst := image.NewRGBA(image.Rect(0, 0, g.Width, g.Height))
	bounds := src.Bounds()

	strips := (g.Height + stripHeight - 1) / stripHeight
	unmapped := make([]int, strips)

	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)

	for s := 0; s < strips; s++ {
		wg.Add(1)
		sem <- struct{}{}

		go func(s int) {
			defer wg.Done()
			defer func() { <-sem }()

			y2 := min((s+1)*stripHeight, g.Height)
			for row := s * stripHeight; row < y2; row++ {
				for col := 0; col < g.Width; col++ {
					p, err := conv.Convert(g.Center(col, row), true)
					if err != nil {
						unmapped[s]++
						continue
					}
					x := bounds.Min.X + int(math.Floor(p.X))
					y := bounds.Min.Y + int(math.Floor(p.Y))
					if !image.Pt(x, y).In(bounds) {
						unmapped[s]++
						continue
					}
					dst.Set(col, row, color.RGBAModel.Convert(src.At(x, y)))
				}
			}
		}(s)
	}
	wg.Wait()

	total := 0
	for _, n := range unmapped {
		total += n
	}
	return dst, total
}
