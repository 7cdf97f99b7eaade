package matching

// Router is the road-network collaborator consumed by matchers. It is queried
// but never mutated during a match, so implementations must be safe for
// concurrent read access.
type Router interface {
	// NearestRoad returns the road closest to the coordinate. The coordinate
	// must be in the router's reference system or the call is rejected.
	NearestRoad(coord Coordinate) (Road, error)

	// ShortestPath returns an ordered edge path between two coordinates, or an
	// empty path when none exists (disconnected components are not an error).
	// An optional metadata key selects the routing weight; the default is the
	// distance weight.
	ShortestPath(origin, destination Coordinate, weight ...string) ([]Road, error)
}
