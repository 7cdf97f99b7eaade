package geom

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// EarthRadiusMeters is the WGS84 equatorial radius. Spherical mercator is
// defined on this radius, and the haversine helper shares it so edge lengths
// and projected geometry agree (about 0.1% longer than with the mean radius).
const EarthRadiusMeters = 6378137.0

// GreatCircleDistance calculates the distance between two lon/lat points in
// meters using the Haversine formula
func GreatCircleDistance(lon1, lat1, lon2, lat2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180.0 }

	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	lat1Rad := toRad(lat1)
	lat2Rad := toRad(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// LatLonToXY projects a lon/lat point onto the spherical-mercator plane.
// Distances between projected points are planar and roughly in meters
// (scaled by cos(lat)), which is the working convention for matching.
func LatLonToXY(p orb.Point) orb.Point {
	x := EarthRadiusMeters * p[0] * math.Pi / 180.0
	y := EarthRadiusMeters * math.Log(math.Tan(math.Pi/4.0+p[1]*math.Pi/360.0))
	return orb.Point{x, y}
}

// XYToLatLon is the inverse of LatLonToXY.
func XYToLatLon(p orb.Point) orb.Point {
	lon := p[0] / EarthRadiusMeters * 180.0 / math.Pi
	lat := (2.0*math.Atan(math.Exp(p[1]/EarthRadiusMeters)) - math.Pi/2.0) * 180.0 / math.Pi
	return orb.Point{lon, lat}
}

// PlanarDistance returns the Euclidean distance between two projected points.
func PlanarDistance(a, b orb.Point) float64 {
	return planar.Distance(a, b)
}

// PointToLineDistance returns the perpendicular distance from a projected
// point to a projected line geometry.
func PointToLineDistance(p orb.Point, line orb.LineString) float64 {
	if len(line) == 0 {
		return math.Inf(1)
	}
	return planar.DistanceFrom(line, p)
}

// ProjectLineString projects every vertex of a lon/lat line onto the
// spherical-mercator plane.
func ProjectLineString(line orb.LineString) orb.LineString {
	out := make(orb.LineString, len(line))
	for i, p := range line {
		out[i] = LatLonToXY(p)
	}
	return out
}
