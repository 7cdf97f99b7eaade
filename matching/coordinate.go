package matching

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"gomatch/gosm-matcher/geom"
)

// Coordinate is an immutable point with an identifier and a CRS tag.
type Coordinate struct {
	ID    string
	Point orb.Point
	CRS   CRS
}

// NewCoordinate creates a coordinate with a generated identifier.
func NewCoordinate(p orb.Point, crs CRS) Coordinate {
	return Coordinate{ID: uuid.NewString(), Point: p, CRS: crs}
}

// CoordinateFromLatLon creates a lon/lat coordinate with a generated identifier.
func CoordinateFromLatLon(lat, lon float64) Coordinate {
	return NewCoordinate(orb.Point{lon, lat}, LatLonCRS)
}

func (c Coordinate) String() string {
	return fmt.Sprintf("Coordinate(id=%s, x=%f, y=%f, crs=%s)", c.ID, c.Point[0], c.Point[1], c.CRS)
}

// ToXY projects the coordinate onto the working plane. Coordinates already in
// XYCRS are returned unchanged.
func (c Coordinate) ToXY() Coordinate {
	if c.CRS == XYCRS {
		return c
	}
	return Coordinate{ID: c.ID, Point: geom.LatLonToXY(c.Point), CRS: XYCRS}
}

// ToLatLon unprojects the coordinate back to lon/lat degrees.
func (c Coordinate) ToLatLon() Coordinate {
	if c.CRS == LatLonCRS {
		return c
	}
	return Coordinate{ID: c.ID, Point: geom.XYToLatLon(c.Point), CRS: LatLonCRS}
}

// DistanceTo returns the planar distance between two coordinates in the same CRS.
func (c Coordinate) DistanceTo(other Coordinate) (float64, error) {
	if c.CRS != other.CRS {
		return 0, fmt.Errorf("distance between %s and %s: %w", c.CRS, other.CRS, ErrCRSMismatch)
	}
	return geom.PlanarDistance(c.Point, other.Point), nil
}
