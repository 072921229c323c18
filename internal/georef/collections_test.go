package georef_test

import (
	"errors"
	"testing"

	"georef/internal/georef"
	"georef/pkg/geometry"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pointLayer(points []geometry.Point2D) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range points {
		fc.Append(geojson.NewFeature(orb.Point{p.X, p.Y}))
	}
	return fc
}

func TestSetReferenceFromCollections(t *testing.T) {
	e := georef.New()
	e.AddReference(geometry.Point2D{X: 1, Y: 1}, geometry.Point2D{X: 2, Y: 2})

	targets := make([]geometry.Point2D, 4)
	for i, p := range scattered[:4] {
		targets[i] = shear.Apply(p)
	}
	require.NoError(t, e.SetReferenceFromCollections(scattered[:4], targets))
	assert.Equal(t, 4, e.Count(), "bulk load replaces existing pairs")
	require.NoError(t, e.Evaluate(georef.Affine, 0))

	err := e.SetReferenceFromCollections(scattered[:3], targets)
	assert.True(t, errors.Is(err, georef.ErrInvalidInput))
	err = e.SetReferenceFromCollections(nil, nil)
	assert.True(t, errors.Is(err, georef.ErrInvalidInput))

	assert.True(t, e.IsReady(), "rejected loads leave the fit alone")
	assert.Equal(t, 4, e.Count())
}

func TestSetReferenceFromLayers(t *testing.T) {
	targets := make([]geometry.Point2D, len(scattered))
	for i, p := range scattered {
		targets[i] = warp(p)
	}

	e := georef.New()
	require.NoError(t, e.SetReferenceFromLayers(pointLayer(scattered), pointLayer(targets)))
	require.NoError(t, e.Evaluate(georef.Spline, 0))

	got, err := e.Convert(scattered[3], false)
	require.NoError(t, err)
	assertPoint(t, targets[3], got, 1e-6)

	err = e.SetReferenceFromLayers(pointLayer(scattered), pointLayer(targets[:5]))
	assert.True(t, errors.Is(err, georef.ErrInvalidInput))
	err = e.SetReferenceFromLayers(geojson.NewFeatureCollection(), pointLayer(targets))
	assert.True(t, errors.Is(err, georef.ErrInvalidInput))

	lines := pointLayer(scattered)
	lines.Features[2].Geometry = orb.LineString{{0, 0}, {1, 1}}
	err = e.SetReferenceFromLayers(lines, pointLayer(targets))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source feature 2 is not a point")
}

func TestSetReferenceFromFeatures(t *testing.T) {
	data := []byte(`{"type":"FeatureCollection","features":[
		{"type":"Feature","geometry":{"type":"Point","coordinates":[0,0]},"properties":{"east":10,"north":5}},
		{"type":"Feature","geometry":{"type":"Point","coordinates":[10,0]},"properties":{"east":30,"north":2}},
		{"type":"Feature","geometry":{"type":"Point","coordinates":[0,10]},"properties":{"east":15,"north":20}}
	]}`)
	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)

	e := georef.New()
	require.NoError(t, e.SetReferenceFromFeatures(fc, "east", "north"))
	require.Equal(t, 3, e.Count())
	r, err := e.Reference(1)
	require.NoError(t, err)
	assert.Equal(t, geometry.Point2D{X: 10, Y: 0}, r.Source)
	assert.Equal(t, geometry.Point2D{X: 30, Y: 2}, r.Target)

	require.NoError(t, e.Evaluate(georef.Affine, 0))
	got, err := e.Convert(geometry.Point2D{X: 5, Y: 5}, false)
	require.NoError(t, err)
	assertPoint(t, geometry.Point2D{X: 22.5, Y: 11}, got, 1e-9)

	err = e.SetReferenceFromFeatures(fc, "east", "elevation")
	require.Error(t, err)
	assert.True(t, errors.Is(err, georef.ErrInvalidInput))
	assert.Contains(t, err.Error(), `property "elevation"`)

	fc.Features[0].Properties["east"] = "ten"
	err = e.SetReferenceFromFeatures(fc, "east", "north")
	assert.True(t, errors.Is(err, georef.ErrInvalidInput))
}
