package lcss

import (
	"fmt"
	"testing"

	"github.com/paulmach/orb"

	"gomatch/gosm-matcher/matching"
)

// stubRouter drives the algorithm tests without a real road network.
type stubRouter struct {
	nearest  func(matching.Coordinate) (matching.Road, error)
	shortest func(origin, destination matching.Coordinate) ([]matching.Road, error)
}

func (s stubRouter) NearestRoad(coord matching.Coordinate) (matching.Road, error) {
	if s.nearest == nil {
		return matching.Road{}, fmt.Errorf("no nearest road")
	}
	return s.nearest(coord)
}

func (s stubRouter) ShortestPath(origin, destination matching.Coordinate, weight ...string) ([]matching.Road, error) {
	if s.shortest == nil {
		return nil, nil
	}
	return s.shortest(origin, destination)
}

// noPathRouter never finds a route.
var noPathRouter = stubRouter{
	shortest: func(_, _ matching.Coordinate) ([]matching.Road, error) {
		return []matching.Road{}, nil
	},
}

// constPathRouter always routes along the given roads.
func constPathRouter(path ...matching.Road) stubRouter {
	return stubRouter{
		shortest: func(_, _ matching.Coordinate) ([]matching.Road, error) {
			return path, nil
		},
	}
}

func xy(id string, x, y float64) matching.Coordinate {
	return matching.Coordinate{ID: id, Point: orb.Point{x, y}, CRS: matching.XYCRS}
}

func mkTrace(t *testing.T, coords ...matching.Coordinate) matching.Trace {
	t.Helper()
	trace, err := matching.NewTrace(coords)
	if err != nil {
		t.Fatalf("building trace: %v", err)
	}
	return trace
}

func mkRoad(start, end int64, pts ...orb.Point) matching.Road {
	return matching.Road{
		ID:   matching.RoadID{Start: start, End: end},
		Geom: orb.LineString(pts),
	}
}
