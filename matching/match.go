package matching

import (
	"math"

	"gomatch/gosm-matcher/geom"
)

// Match is the result of matching one coordinate to one road, or to nothing:
// Road is nil and Distance is +Inf when the point is unmatched.
type Match struct {
	Road       *Road
	Coordinate Coordinate
	Distance   float64
}

// Unmatched builds a no-match result for a coordinate.
func Unmatched(c Coordinate) Match {
	return Match{Road: nil, Coordinate: c, Distance: math.Inf(1)}
}

// WithCoordinate returns a copy of the match carrying a different coordinate,
// preserving the road and distance.
func (m Match) WithCoordinate(c Coordinate) Match {
	m.Coordinate = c
	return m
}

// MatchResult is the externally visible output of a matcher: one match per
// input coordinate in trace order, plus the final resolved road path.
type MatchResult struct {
	Matches []Match
	Path    []Road
}

// MatchPointProperties are the per-point feature properties in a rendered
// match result. RoadID and DistanceToRoad are absent for unmatched points.
type MatchPointProperties struct {
	CoordinateID   string   `json:"coordinate_id"`
	RoadID         string   `json:"road_id,omitempty"`
	DistanceToRoad *float64 `json:"distance_to_road,omitempty"`
}

// MatchPathProperties are the per-road feature properties of the matched path.
type MatchPathProperties struct {
	RoadID  string `json:"road_id"`
	Matched bool   `json:"matched"`
}

// ToGeoJSON renders the matches as point features (lon/lat) with the matched
// road id and distance as properties, followed by the path as LineString
// features.
func (r MatchResult) ToGeoJSON() geom.GeoJSONFeatureCollection {
	features := make([]geom.GeoJSONFeature, 0, len(r.Matches)+len(r.Path))

	for _, m := range r.Matches {
		c := m.Coordinate.ToLatLon()
		props := MatchPointProperties{CoordinateID: c.ID}
		if m.Road != nil {
			props.RoadID = m.Road.ID.String()
			d := m.Distance
			props.DistanceToRoad = &d
		}
		features = append(features, geom.GeoJSONFeature{
			Type:       "Feature",
			Properties: props,
			Geometry: geom.GeoJSONGeometry{
				Type:        "Point",
				Coordinates: [][]float64{{c.Point[0], c.Point[1]}},
			},
		})
	}

	for _, road := range r.Path {
		line := make([][]float64, 0, len(road.Geom))
		for _, p := range road.Geom {
			ll := geom.XYToLatLon(p)
			line = append(line, []float64{ll[0], ll[1]})
		}
		features = append(features, geom.GeoJSONFeature{
			Type:       "Feature",
			Properties: MatchPathProperties{RoadID: road.ID.String(), Matched: true},
			Geometry: geom.GeoJSONGeometry{
				Type:        "LineString",
				Coordinates: line,
			},
		})
	}

	return geom.GeoJSONFeatureCollection{Type: "FeatureCollection", Features: features}
}
