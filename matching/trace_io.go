package matching

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/paulmach/orb"

	"gomatch/gosm-matcher/geom"
)

// TraceFromGeoJSON extracts a lon/lat trace from a feature collection. Point
// and LineString features both contribute their positions in order.
func TraceFromGeoJSON(fc geom.GeoJSONFeatureCollection) (Trace, error) {
	var coords []Coordinate
	for _, feature := range fc.Features {
		for _, pos := range feature.Geometry.Coordinates {
			if len(pos) < 2 {
				continue
			}
			coords = append(coords, NewCoordinate(orb.Point{pos[0], pos[1]}, LatLonCRS))
		}
	}
	if len(coords) == 0 {
		return Trace{}, fmt.Errorf("no coordinates found in GeoJSON")
	}
	return NewTrace(coords)
}

// TraceFromCSV reads a lon/lat trace from CSV data with latitude and longitude
// columns (named via latColumn/lonColumn).
func TraceFromCSV(r io.Reader, latColumn, lonColumn string) (Trace, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return Trace{}, fmt.Errorf("reading csv trace: %w", err)
	}
	if len(records) < 2 {
		return Trace{}, fmt.Errorf("csv trace must have a header row and at least one point")
	}

	latIdx, lonIdx := -1, -1
	for i, name := range records[0] {
		switch name {
		case latColumn:
			latIdx = i
		case lonColumn:
			lonIdx = i
		}
	}
	if latIdx < 0 || lonIdx < 0 {
		return Trace{}, fmt.Errorf("could not find %q and %q columns in csv header", latColumn, lonColumn)
	}

	coords := make([]Coordinate, 0, len(records)-1)
	for _, rec := range records[1:] {
		lat, err := strconv.ParseFloat(rec[latIdx], 64)
		if err != nil {
			return Trace{}, fmt.Errorf("parsing latitude %q: %w", rec[latIdx], err)
		}
		lon, err := strconv.ParseFloat(rec[lonIdx], 64)
		if err != nil {
			return Trace{}, fmt.Errorf("parsing longitude %q: %w", rec[lonIdx], err)
		}
		coords = append(coords, CoordinateFromLatLon(lat, lon))
	}
	return NewTrace(coords)
}
