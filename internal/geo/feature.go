package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ErrInvalidFeature is returned for features with missing or malformed coordinates.
var ErrInvalidFeature = errors.New("invalid feature")

// ErrFeatureNotFound is returned when no feature has the requested id.
var ErrFeatureNotFound = errors.New("feature not found")

// Feature is a point of interest rendered on the map.
type Feature struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Coordinates orb.Point `json:"coordinates"` // [lon, lat]
}

// Latitude returns the feature latitude.
func (f Feature) Latitude() float64 { return f.Coordinates.Lat() }

// Longitude returns the feature longitude.
func (f Feature) Longitude() float64 { return f.Coordinates.Lon() }

// Validate checks the feature has an id and finite, in-range coordinates.
func (f Feature) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidFeature)
	}
	lon, lat := f.Coordinates.Lon(), f.Coordinates.Lat()
	if math.IsNaN(lon) || math.IsNaN(lat) || math.IsInf(lon, 0) || math.IsInf(lat, 0) {
		return fmt.Errorf("%w: %s has non-finite coordinates", ErrInvalidFeature, f.ID)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: %s coordinates out of range (%f, %f)", ErrInvalidFeature, f.ID, lon, lat)
	}
	return nil
}

// ParseFeatureCollection reads Point features out of a GeoJSON
// FeatureCollection. The feature id comes from the GeoJSON id member or an
// "id" property; the display name from the "name" property. Non-point or
// invalid features are skipped and reported in the returned error list.
func ParseFeatureCollection(data []byte) ([]Feature, []error, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse feature collection: %w", err)
	}

	var (
		features []Feature
		skipped  []error
	)
	for i, gf := range fc.Features {
		pt, ok := gf.Geometry.(orb.Point)
		if !ok {
			skipped = append(skipped, fmt.Errorf("%w: feature %d is %T, not a point", ErrInvalidFeature, i, gf.Geometry))
			continue
		}
		id := ""
		if gf.ID != nil {
			id = fmt.Sprint(gf.ID)
		} else if v, ok := gf.Properties["id"]; ok && v != nil {
			id = fmt.Sprint(v)
		}
		f := Feature{
			ID:          id,
			Name:        gf.Properties.MustString("name", ""),
			Coordinates: pt,
		}
		if err := f.Validate(); err != nil {
			skipped = append(skipped, fmt.Errorf("feature %d: %w", i, err))
			continue
		}
		features = append(features, f)
	}
	return features, skipped, nil
}
