package lcss

import (
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"

	"gomatch/gosm-matcher/geom"
	"gomatch/gosm-matcher/matching"
)

// TrajectoryScheme is an ordered partition of a trace into segments. The
// concatenated traces of a scheme reconstruct the original reduced trace.
type TrajectoryScheme = []TrajectorySegment

// NewPath computes the initial candidate path for a trace: the shortest path
// between its first and last coordinate. An empty path means the endpoints are
// disconnected and the segment scores as unmatched. A router error is a
// contract violation (reference system mismatch, corrupt graph) and is
// propagated, not treated as a routing miss.
func NewPath(router matching.Router, trace matching.Trace) ([]matching.Road, error) {
	if trace.Len() < 1 {
		return nil, nil
	}
	coords := trace.Coords()
	path, err := router.ShortestPath(coords[0], coords[trace.Len()-1])
	if err != nil {
		return nil, fmt.Errorf("finding a candidate path: %w", err)
	}
	return path, nil
}

// SplitTrajectorySegment partitions a segment's trace at its cutting points,
// requests a fresh shortest path for every slice, and merges undersized
// results (fewer than 2 trace points or 1 path edge) into their neighbors.
// The original segment is returned unchanged when it is too short to split,
// has no cutting points, or the split produces no usable trace or path.
func SplitTrajectorySegment(router matching.Router, segment TrajectorySegment) ([]TrajectorySegment, error) {
	trace := segment.Trace
	cuttingPoints := segment.CuttingPoints

	if trace.Len() < 2 {
		// segment is too short to split
		return []TrajectorySegment{segment}, nil
	}
	if len(cuttingPoints) < 1 {
		// no points to cut
		return []TrajectorySegment{segment}, nil
	}

	shortSegment := func(ts TrajectorySegment) bool {
		return ts.Trace.Len() < 2 || len(ts.Path) < 1
	}

	bounds := make([]int, 0, len(cuttingPoints)+2)
	bounds = append(bounds, 0)
	for _, cp := range cuttingPoints {
		bounds = append(bounds, cp.TraceIndex)
	}
	bounds = append(bounds, trace.Len())

	newTraces := make([]matching.Trace, 0, len(bounds)-1)
	newPaths := make([][]matching.Road, 0, len(bounds)-1)
	for i := 0; i+1 < len(bounds); i++ {
		subTrace := trace.Slice(bounds[i], bounds[i+1])
		path, err := NewPath(router, subTrace)
		if err != nil {
			return nil, err
		}
		newTraces = append(newTraces, subTrace)
		newPaths = append(newPaths, path)
	}

	anyPath := false
	for _, p := range newPaths {
		if len(p) > 0 {
			anyPath = true
			break
		}
	}
	anyTrace := false
	for _, t := range newTraces {
		if t.Len() > 0 {
			anyTrace = true
			break
		}
	}
	if !anyPath || !anyTrace {
		// can't split
		return []TrajectorySegment{segment}, nil
	}

	segments := make([]TrajectorySegment, 0, len(newTraces))
	for i := range newTraces {
		segments = append(segments, NewTrajectorySegment(newTraces[i], newPaths[i]))
	}

	return Merge(segments, shortSegment), nil
}

// JoinSegment concatenates two segments. When the paths do not connect (the
// end junction of a's last road differs from the start junction of b's first
// road) a bridging shortest path is spliced in between. If the router finds
// no bridge the paths are concatenated as-is; scoring downstream reflects the
// gap instead of surfacing an error. The result carries no matches, score or
// cutting points.
func JoinSegment(router matching.Router, a, b TrajectorySegment) TrajectorySegment {
	newTrace := a.Trace.Concat(b.Trace)

	newPath := make([]matching.Road, 0, len(a.Path)+len(b.Path))
	newPath = append(newPath, a.Path...)
	newPath = append(newPath, b.Path...)

	if len(a.Path) > 0 && len(b.Path) > 0 {
		endRoad := a.Path[len(a.Path)-1]
		startRoad := b.Path[0]
		if endRoad.ID.End != startRoad.ID.Start && len(endRoad.Geom) > 0 && len(startRoad.Geom) > 0 {
			o := matching.NewCoordinate(endRoad.Geom[len(endRoad.Geom)-1], newTrace.CRS())
			d := matching.NewCoordinate(startRoad.Geom[0], newTrace.CRS())
			bridge, err := router.ShortestPath(o, d)
			if err != nil || len(bridge) == 0 {
				// disconnected components; keep the naive concatenation
				logrus.WithFields(logrus.Fields{
					"end_road":   endRoad.ID.String(),
					"start_road": startRoad.ID.String(),
				}).Debug("no bridge between joined segments; paths left disconnected")
			} else {
				newPath = newPath[:0]
				newPath = append(newPath, a.Path...)
				newPath = append(newPath, bridge...)
				newPath = append(newPath, b.Path...)
			}
		}
	}

	return NewTrajectorySegment(newTrace, newPath)
}

// SameTrajectoryScheme reports whether two schemes are identical: same
// length, pairwise identical paths by road identity and pairwise identical
// trace coordinate-id sequences. Scores are not compared.
func SameTrajectoryScheme(scheme1, scheme2 TrajectoryScheme) bool {
	if len(scheme1) != len(scheme2) {
		return false
	}
	for i := range scheme1 {
		if !matching.SamePath(scheme1[i].Path, scheme2[i].Path) {
			return false
		}
		a := scheme1[i].Trace.Coords()
		b := scheme2[i].Trace.Coords()
		if len(a) != len(b) {
			return false
		}
		for j := range a {
			if a[j].ID != b[j].ID {
				return false
			}
		}
	}
	return true
}

// stationaryEpsilon is the consecutive-point distance (working-plane units)
// below which the vehicle is considered not to have moved.
const stationaryEpsilon = 1e-3

// StationaryIndex is a cluster of trace positions judged to represent the
// vehicle standing still. The first position is the cluster's representative.
type StationaryIndex struct {
	Indices  []int
	CoordIDs []string
}

// FindStationaryPoints scans consecutive points and groups runs closer than
// stationaryEpsilon into clusters.
func FindStationaryPoints(trace matching.Trace) []StationaryIndex {
	coords := trace.Coords()
	var clusters []StationaryIndex
	var run []int

	flush := func() {
		if len(run) == 0 {
			return
		}
		ids := make([]string, len(run))
		for i, idx := range run {
			ids[i] = coords[idx].ID
		}
		clusters = append(clusters, StationaryIndex{Indices: run, CoordIDs: ids})
		run = nil
	}

	for i := 1; i < len(coords); i++ {
		d := geom.PlanarDistance(coords[i].Point, coords[i-1].Point)
		if d < stationaryEpsilon {
			if len(run) == 0 {
				run = append(run, i-1)
			}
			run = append(run, i)
		} else {
			flush()
		}
	}
	flush()

	return clusters
}

// DropStationaryPoints removes all but the first coordinate of each cluster.
func DropStationaryPoints(trace matching.Trace, stationary []StationaryIndex) matching.Trace {
	for _, si := range stationary {
		trace = trace.Drop(si.CoordIDs[1:]...)
	}
	return trace
}

// AddMatchesForStationaryPoints reinserts one match per removed coordinate,
// cloning the cluster representative's road and distance but keeping each
// removed point's own identifier, preserving original trace order. Clusters
// are restored in order so earlier insertions realign indices for later ones.
func AddMatchesForStationaryPoints(matches []matching.Match, stationary []StationaryIndex) []matching.Match {
	out := make([]matching.Match, len(matches))
	copy(out, matches)

	for _, si := range stationary {
		rep := out[si.Indices[0]]
		restored := make([]matching.Match, 0, len(si.CoordIDs)-1)
		for _, cid := range si.CoordIDs[1:] {
			c := matching.Coordinate{ID: cid, Point: rep.Coordinate.Point, CRS: rep.Coordinate.CRS}
			restored = append(restored, rep.WithCoordinate(c))
		}
		out = slices.Insert(out, si.Indices[1], restored...)
	}

	return out
}
