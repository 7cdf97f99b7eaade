package lcss

import (
	"errors"
	"math"
	"math/rand"

	"gomatch/gosm-matcher/geom"
	"gomatch/gosm-matcher/matching"
)

// ErrEmptyTrace is returned when a trace with zero points is scored.
var ErrEmptyTrace = errors.New("traces of 0 points can't be matched")

// CuttingPoint marks a trace-relative index where a segment may be split.
// Cutting at positions 0, 1, n-2 or n-1 of a segment is meaningless and such
// points are discarded before splitting.
type CuttingPoint struct {
	TraceIndex int
}

// TrajectorySegment pairs a trace slice with a candidate road path. Matches,
// score and cutting points are populated by ScoreAndMatch and
// ComputeCuttingPoints; a freshly built or concatenated segment carries none.
type TrajectorySegment struct {
	Trace matching.Trace
	Path  []matching.Road

	Matches       []matching.Match
	Score         float64
	CuttingPoints []CuttingPoint
}

// NewTrajectorySegment builds an unscored segment from a trace and a
// candidate path.
func NewTrajectorySegment(trace matching.Trace, path []matching.Road) TrajectorySegment {
	return TrajectorySegment{Trace: trace, Path: path}
}

// Concat concatenates traces and paths positionally. Matches, score and
// cutting points do not carry over; the result must be re-scored.
func (s TrajectorySegment) Concat(other TrajectorySegment) TrajectorySegment {
	path := make([]matching.Road, 0, len(s.Path)+len(other.Path))
	path = append(path, s.Path...)
	path = append(path, other.Path...)
	return TrajectorySegment{Trace: s.Trace.Concat(other.Trace), Path: path}
}

// ScoreAndMatch computes the similarity-weighted LCS score between the trace
// and the candidate path and matches every trace point to its nearest road on
// the path. Points whose nearest road is farther than maxDistance are left
// unmatched. The returned segment carries the matches and a score in [0, 1];
// trace and path are unchanged.
func (s TrajectorySegment) ScoreAndMatch(distanceEpsilon, maxDistance float64) (TrajectorySegment, error) {
	m := s.Trace.Len()
	n := len(s.Path)

	if m < 1 {
		return s, ErrEmptyTrace
	}

	coords := s.Trace.Coords()

	if n == 0 {
		// no candidate path; the segment might not be matchable. Score zero
		// and return a set of no-matches.
		matches := make([]matching.Match, 0, m)
		for _, c := range coords {
			matches = append(matches, matching.Unmatched(c))
		}
		out := s
		out.Matches = matches
		out.Score = 0
		return out, nil
	}

	C := make([][]float64, m+1)
	for i := range C {
		C[i] = make([]float64, n+1)
	}

	matches := make([]matching.Match, 0, m)

	for i := 1; i <= m; i++ {
		coord := coords[i-1]
		minDist := math.Inf(1)
		nearestIdx := -1

		for j := 1; j <= n; j++ {
			dt := geom.PointToLineDistance(coord.Point, s.Path[j-1].Geom)

			if dt < minDist {
				minDist = dt
				nearestIdx = j - 1
			}

			pointSimilarity := 0.0
			if dt < distanceEpsilon {
				pointSimilarity = 1 - dt/distanceEpsilon
			}

			best := C[i-1][j-1] + pointSimilarity
			if C[i][j-1] > best {
				best = C[i][j-1]
			}
			if C[i-1][j] > best {
				best = C[i-1][j]
			}
			C[i][j] = best
		}

		if minDist > maxDistance {
			matches = append(matches, matching.Unmatched(coord))
		} else {
			road := s.Path[nearestIdx]
			matches = append(matches, matching.Match{Road: &road, Coordinate: coord, Distance: minDist})
		}
	}

	out := s
	out.Matches = matches
	out.Score = C[m][n] / float64(min(m, n))
	return out, nil
}

// ComputeCuttingPoints picks the trace indices where the segment should be
// split for refinement: the worst-matched point plus any point whose match
// distance sits within cuttingThreshold of distanceEpsilon. Segments with no
// path or no matches fall back to geometric heuristics (two far points for a
// likely loop, the midpoint otherwise). Adjacent picks are compressed and
// unusable edge positions discarded. rng is only consulted when randomCuts is
// positive; nil falls back to the global source.
func (s TrajectorySegment) ComputeCuttingPoints(distanceEpsilon, cuttingThreshold float64, randomCuts int, rng *rand.Rand) TrajectorySegment {
	var cuttingPoints []CuttingPoint

	coords := s.Trace.Coords()

	noMatch := true
	for _, m := range s.Matches {
		if m.Road != nil {
			noMatch = false
			break
		}
	}

	if len(s.Path) == 0 || noMatch {
		// no path computed or no matches found. If the trace starts and ends
		// in the same location it is likely a loop: pick the points farthest
		// from the start and from the end. Otherwise cut at the midpoint.
		start := coords[0]
		end := coords[len(coords)-1]

		if geom.PlanarDistance(start.Point, end.Point) < distanceEpsilon {
			p1 := farthestFrom(start, coords)
			p2 := farthestFrom(end, coords)
			cuttingPoints = append(cuttingPoints, CuttingPoint{p1}, CuttingPoint{p2})
		} else {
			cuttingPoints = append(cuttingPoints, CuttingPoint{s.Trace.Len() / 2})
		}
	} else {
		worst := -1
		worstDist := math.Inf(-1)
		for i, m := range s.Matches {
			if m.Road != nil && m.Distance > worstDist {
				worstDist = m.Distance
				worst = i
			}
		}
		cuttingPoints = append(cuttingPoints, CuttingPoint{worst})

		// points close to the distance threshold are likely to flip as the
		// path changes
		for i, m := range s.Matches {
			if m.Road != nil && math.Abs(m.Distance-distanceEpsilon) < cuttingThreshold {
				cuttingPoints = append(cuttingPoints, CuttingPoint{i})
			}
		}
	}

	for k := 0; k < randomCuts; k++ {
		idx := 0
		if rng != nil {
			idx = rng.Intn(s.Trace.Len())
		} else {
			idx = rand.Intn(s.Trace.Len())
		}
		cuttingPoints = append(cuttingPoints, CuttingPoint{idx})
	}

	compressed := Compress(cuttingPoints)

	// cutting at the first or last two positions never yields a usable split
	n := s.Trace.Len()
	final := make([]CuttingPoint, 0, len(compressed))
	for _, cp := range compressed {
		switch cp.TraceIndex {
		case 0, 1, n - 2, n - 1:
			continue
		}
		final = append(final, cp)
	}

	out := s
	out.CuttingPoints = final
	return out
}

func farthestFrom(origin matching.Coordinate, coords []matching.Coordinate) int {
	best := 0
	bestDist := math.Inf(-1)
	for i, c := range coords {
		d := geom.PlanarDistance(origin.Point, c.Point)
		if d > bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}
