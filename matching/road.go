package matching

import (
	"fmt"

	"github.com/paulmach/orb"
)

// RoadID identifies a directed edge in the road network by the ordered triple
// (origin node, destination node, parallel-edge key).
type RoadID struct {
	Start int64
	End   int64
	Key   int
}

func (id RoadID) String() string {
	return fmt.Sprintf("%d,%d,%d", id.Start, id.End, id.Key)
}

// Road is an immutable directed edge with a line geometry and an open-ended
// metadata mapping (distance/time weights, highway class, ...).
type Road struct {
	ID       RoadID
	Geom     orb.LineString
	Metadata map[string]any
}

// WeightDistance is the metadata key for the distance routing weight.
const WeightDistance = "distance"

// Weight returns the named numeric metadata value, or 0 if absent.
func (r Road) Weight(key string) float64 {
	if r.Metadata == nil {
		return 0
	}
	switch v := r.Metadata[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

// SamePath reports whether two road sequences are identical by road identity.
func SamePath(a, b []Road) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}
