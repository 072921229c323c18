package georef

import (
	"georef/pkg/geometry"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// SetReferenceFromCollections replaces all references with pairs built from
// two point sequences of equal, non-zero length.
func (e *Engine) SetReferenceFromCollections(source, target []geometry.Point2D) error {
	if len(source) == 0 || len(target) == 0 {
		return newError(InvalidInput, "empty point collection (%d source, %d target)", len(source), len(target))
	}
	if len(source) != len(target) {
		return newError(InvalidInput, "point collections differ in length: %d vs %d", len(source), len(target))
	}

	pairs := make([]ReferencePair, len(source))
	for i := range source {
		pairs[i] = ReferencePair{Source: source[i], Target: target[i]}
	}
	e.setReferences(pairs)
	return nil
}

// SetReferenceFromLayers replaces all references with pairs matched by
// index from two collections of point features.
func (e *Engine) SetReferenceFromLayers(source, target *geojson.FeatureCollection) error {
	src, err := featurePoints(source, "source")
	if err != nil {
		return err
	}
	dst, err := featurePoints(target, "target")
	if err != nil {
		return err
	}
	return e.SetReferenceFromCollections(src, dst)
}

// SetReferenceFromFeatures replaces all references with pairs whose source
// is the feature's point geometry and whose target is read from two numeric
// properties.
func (e *Engine) SetReferenceFromFeatures(fc *geojson.FeatureCollection, xField, yField string) error {
	src, err := featurePoints(fc, "source")
	if err != nil {
		return err
	}

	dst := make([]geometry.Point2D, len(src))
	for i, f := range fc.Features {
		x, ok := numericProperty(f.Properties, xField)
		if !ok {
			return newError(InvalidInput, "feature %d: property %q is missing or not numeric", i, xField)
		}
		y, ok := numericProperty(f.Properties, yField)
		if !ok {
			return newError(InvalidInput, "feature %d: property %q is missing or not numeric", i, yField)
		}
		dst[i] = geometry.Point2D{X: x, Y: y}
	}
	return e.SetReferenceFromCollections(src, dst)
}

func featurePoints(fc *geojson.FeatureCollection, label string) ([]geometry.Point2D, error) {
	if fc == nil || len(fc.Features) == 0 {
		return nil, newError(InvalidInput, "%s collection is empty", label)
	}

	pts := make([]geometry.Point2D, len(fc.Features))
	for i, f := range fc.Features {
		p, ok := f.Geometry.(orb.Point)
		if !ok {
			return nil, newError(InvalidInput, "%s feature %d is not a point", label, i)
		}
		pts[i] = geometry.Point2D{X: p.X(), Y: p.Y()}
	}
	return pts, nil
}

func numericProperty(props geojson.Properties, key string) (float64, bool) {
	switch v := props[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
