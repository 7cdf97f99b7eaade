package matching

import "fmt"

// CRS tags the coordinate reference system of a geometry. Two coordinates are
// only comparable when their CRS values match.
type CRS int

const (
	// LatLonCRS is WGS84 lon/lat in decimal degrees (EPSG:4326).
	LatLonCRS CRS = 4326
	// XYCRS is the spherical-mercator working plane (EPSG:3857). All matching
	// distances are planar distances in this system.
	XYCRS CRS = 3857
)

func (c CRS) String() string {
	return fmt.Sprintf("EPSG:%d", int(c))
}

// ErrCRSMismatch is wrapped by every error raised when geometries in
// different reference systems are combined or compared.
var ErrCRSMismatch = fmt.Errorf("coordinate reference systems do not match")
