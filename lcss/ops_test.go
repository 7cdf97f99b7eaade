package lcss

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/paulmach/orb"

	"gomatch/gosm-matcher/matching"
)

func TestNewPathRoutesBetweenEndpoints(t *testing.T) {
	trace := mkTrace(t, xy("a", 0, 0), xy("b", 50, 0), xy("c", 100, 0))
	road := mkRoad(1, 2, orb.Point{0, 0}, orb.Point{100, 0})

	var gotOrigin, gotDest matching.Coordinate
	router := stubRouter{
		shortest: func(o, d matching.Coordinate) ([]matching.Road, error) {
			gotOrigin, gotDest = o, d
			return []matching.Road{road}, nil
		},
	}

	path, err := NewPath(router, trace)
	if err != nil {
		t.Fatalf("NewPath: %v", err)
	}
	if len(path) != 1 || path[0].ID != road.ID {
		t.Fatalf("path = %v, want single road %v", path, road.ID)
	}
	if gotOrigin.ID != "a" || gotDest.ID != "c" {
		t.Errorf("routed %q -> %q, want a -> c", gotOrigin.ID, gotDest.ID)
	}
}

func TestNewPathEmptyTrace(t *testing.T) {
	path, err := NewPath(noPathRouter, matching.Trace{})
	if err != nil {
		t.Fatalf("NewPath: %v", err)
	}
	if path != nil {
		t.Errorf("path for empty trace = %v, want nil", path)
	}
}

func TestNewPathPropagatesRouterError(t *testing.T) {
	trace := mkTrace(t, xy("a", 0, 0), xy("b", 50, 0))
	router := stubRouter{
		shortest: func(_, _ matching.Coordinate) ([]matching.Road, error) {
			return nil, fmt.Errorf("nearest road: %w", matching.ErrCRSMismatch)
		},
	}

	_, err := NewPath(router, trace)
	if !errors.Is(err, matching.ErrCRSMismatch) {
		t.Fatalf("err = %v, want ErrCRSMismatch", err)
	}
}

func TestSplitTrajectorySegmentPartitions(t *testing.T) {
	trace := mkTrace(t,
		xy("a", 0, 0), xy("b", 10, 0), xy("c", 20, 0),
		xy("d", 30, 0), xy("e", 40, 0), xy("f", 50, 0),
	)
	road := mkRoad(1, 2, orb.Point{0, 0}, orb.Point{50, 0})

	segment := NewTrajectorySegment(trace, []matching.Road{road})
	segment.CuttingPoints = []CuttingPoint{{TraceIndex: 3}}

	split, err := SplitTrajectorySegment(constPathRouter(road), segment)
	if err != nil {
		t.Fatalf("SplitTrajectorySegment: %v", err)
	}
	if len(split) != 2 {
		t.Fatalf("split into %d segments, want 2", len(split))
	}
	if split[0].Trace.Len() != 3 || split[1].Trace.Len() != 3 {
		t.Errorf("segment lengths = %d, %d, want 3, 3", split[0].Trace.Len(), split[1].Trace.Len())
	}

	var ids []string
	for _, s := range split {
		for _, c := range s.Trace.Coords() {
			ids = append(ids, c.ID)
		}
	}
	want := []string{"a", "b", "c", "d", "e", "f"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("coordinate order = %v, want %v", ids, want)
		}
	}
}

func TestSplitTrajectorySegmentNoCuttingPoints(t *testing.T) {
	trace := mkTrace(t, xy("a", 0, 0), xy("b", 10, 0), xy("c", 20, 0))
	road := mkRoad(1, 2, orb.Point{0, 0}, orb.Point{20, 0})
	segment := NewTrajectorySegment(trace, []matching.Road{road})

	split, err := SplitTrajectorySegment(constPathRouter(road), segment)
	if err != nil {
		t.Fatalf("SplitTrajectorySegment: %v", err)
	}
	if len(split) != 1 {
		t.Fatalf("split into %d segments, want the original back", len(split))
	}
	if split[0].Trace.Len() != 3 {
		t.Errorf("trace length = %d, want 3", split[0].Trace.Len())
	}
}

func TestSplitTrajectorySegmentUnroutableStaysWhole(t *testing.T) {
	trace := mkTrace(t,
		xy("a", 0, 0), xy("b", 10, 0), xy("c", 20, 0),
		xy("d", 30, 0), xy("e", 40, 0),
	)
	segment := NewTrajectorySegment(trace, nil)
	segment.CuttingPoints = []CuttingPoint{{TraceIndex: 2}}

	split, err := SplitTrajectorySegment(noPathRouter, segment)
	if err != nil {
		t.Fatalf("SplitTrajectorySegment: %v", err)
	}
	if len(split) != 1 || split[0].Trace.Len() != 5 {
		t.Fatalf("split = %d segments, want the original segment unchanged", len(split))
	}
}

func TestSplitTrajectorySegmentPropagatesRouterError(t *testing.T) {
	trace := mkTrace(t,
		xy("a", 0, 0), xy("b", 10, 0), xy("c", 20, 0),
		xy("d", 30, 0), xy("e", 40, 0),
	)
	segment := NewTrajectorySegment(trace, nil)
	segment.CuttingPoints = []CuttingPoint{{TraceIndex: 2}}

	router := stubRouter{
		shortest: func(_, _ matching.Coordinate) ([]matching.Road, error) {
			return nil, fmt.Errorf("nearest road: %w", matching.ErrCRSMismatch)
		},
	}

	_, err := SplitTrajectorySegment(router, segment)
	if !errors.Is(err, matching.ErrCRSMismatch) {
		t.Fatalf("err = %v, want ErrCRSMismatch", err)
	}
}

func TestSplitTrajectorySegmentMergesShortSlices(t *testing.T) {
	trace := mkTrace(t,
		xy("a", 0, 0), xy("b", 10, 0), xy("c", 20, 0),
		xy("d", 30, 0), xy("e", 40, 0), xy("f", 50, 0),
	)
	road := mkRoad(1, 2, orb.Point{0, 0}, orb.Point{50, 0})
	segment := NewTrajectorySegment(trace, []matching.Road{road})
	// adjacent cuts produce a single-point middle slice
	segment.CuttingPoints = []CuttingPoint{{TraceIndex: 2}, {TraceIndex: 3}}

	split, err := SplitTrajectorySegment(constPathRouter(road), segment)
	if err != nil {
		t.Fatalf("SplitTrajectorySegment: %v", err)
	}
	total := 0
	for _, s := range split {
		if s.Trace.Len() < 2 {
			t.Errorf("segment of %d points survived merging", s.Trace.Len())
		}
		if len(s.Path) < 1 {
			t.Errorf("segment without a path survived merging")
		}
		total += s.Trace.Len()
	}
	if total != 6 {
		t.Errorf("total points after split = %d, want 6", total)
	}
}

func TestJoinSegmentConnectedPaths(t *testing.T) {
	r1 := mkRoad(1, 2, orb.Point{0, 0}, orb.Point{50, 0})
	r2 := mkRoad(2, 3, orb.Point{50, 0}, orb.Point{100, 0})

	a := NewTrajectorySegment(mkTrace(t, xy("a", 0, 0), xy("b", 40, 0)), []matching.Road{r1})
	b := NewTrajectorySegment(mkTrace(t, xy("c", 60, 0), xy("d", 100, 0)), []matching.Road{r2})

	router := stubRouter{
		shortest: func(_, _ matching.Coordinate) ([]matching.Road, error) {
			t.Fatal("connected paths should not need a bridge")
			return nil, nil
		},
	}

	joined := JoinSegment(router, a, b)
	if joined.Trace.Len() != 4 {
		t.Errorf("joined trace length = %d, want 4", joined.Trace.Len())
	}
	if len(joined.Path) != 2 || joined.Path[0].ID != r1.ID || joined.Path[1].ID != r2.ID {
		t.Errorf("joined path = %v, want [%v %v]", joined.Path, r1.ID, r2.ID)
	}
	if joined.Matches != nil || joined.Score != 0 || joined.CuttingPoints != nil {
		t.Error("joined segment should carry no derived state")
	}
}

func TestJoinSegmentBridgesGap(t *testing.T) {
	r1 := mkRoad(1, 2, orb.Point{0, 0}, orb.Point{50, 0})
	r2 := mkRoad(3, 4, orb.Point{100, 0}, orb.Point{150, 0})
	bridge := mkRoad(2, 3, orb.Point{50, 0}, orb.Point{100, 0})

	a := NewTrajectorySegment(mkTrace(t, xy("a", 0, 0), xy("b", 40, 0)), []matching.Road{r1})
	b := NewTrajectorySegment(mkTrace(t, xy("c", 110, 0), xy("d", 150, 0)), []matching.Road{r2})

	joined := JoinSegment(constPathRouter(bridge), a, b)
	if len(joined.Path) != 3 {
		t.Fatalf("joined path has %d roads, want 3", len(joined.Path))
	}
	if joined.Path[1].ID != bridge.ID {
		t.Errorf("middle road = %v, want bridge %v", joined.Path[1].ID, bridge.ID)
	}
}

func TestJoinSegmentDisconnectedKeepsNaiveConcat(t *testing.T) {
	r1 := mkRoad(1, 2, orb.Point{0, 0}, orb.Point{50, 0})
	r2 := mkRoad(3, 4, orb.Point{100, 0}, orb.Point{150, 0})

	a := NewTrajectorySegment(mkTrace(t, xy("a", 0, 0), xy("b", 40, 0)), []matching.Road{r1})
	b := NewTrajectorySegment(mkTrace(t, xy("c", 110, 0), xy("d", 150, 0)), []matching.Road{r2})

	joined := JoinSegment(noPathRouter, a, b)
	if len(joined.Path) != 2 || joined.Path[0].ID != r1.ID || joined.Path[1].ID != r2.ID {
		t.Errorf("joined path = %v, want the two roads concatenated", joined.Path)
	}
	if joined.Trace.Len() != 4 {
		t.Errorf("joined trace length = %d, want 4", joined.Trace.Len())
	}
}

func TestSameTrajectoryScheme(t *testing.T) {
	road := mkRoad(1, 2, orb.Point{0, 0}, orb.Point{50, 0})
	other := mkRoad(2, 3, orb.Point{50, 0}, orb.Point{100, 0})

	seg := func(road matching.Road, ids ...string) TrajectorySegment {
		coords := make([]matching.Coordinate, len(ids))
		for i, id := range ids {
			coords[i] = xy(id, float64(i*10), 0)
		}
		return NewTrajectorySegment(mkTrace(t, coords...), []matching.Road{road})
	}

	s1 := TrajectoryScheme{seg(road, "a", "b"), seg(other, "c", "d")}
	s2 := TrajectoryScheme{seg(road, "a", "b"), seg(other, "c", "d")}
	if !SameTrajectoryScheme(s1, s2) {
		t.Error("identical schemes reported different")
	}
	if SameTrajectoryScheme(s1, s1[:1]) {
		t.Error("schemes of different length reported same")
	}
	if SameTrajectoryScheme(s1, TrajectoryScheme{seg(other, "a", "b"), seg(other, "c", "d")}) {
		t.Error("schemes with different paths reported same")
	}
	if SameTrajectoryScheme(s1, TrajectoryScheme{seg(road, "a", "x"), seg(other, "c", "d")}) {
		t.Error("schemes with different coordinates reported same")
	}
}

func TestFindStationaryPoints(t *testing.T) {
	trace := mkTrace(t,
		xy("a", 0, 0),
		xy("b", 0.0001, 0),
		xy("c", 0.0002, 0),
		xy("d", 50, 0),
		xy("e", 100, 0),
	)

	clusters := FindStationaryPoints(trace)
	if len(clusters) != 1 {
		t.Fatalf("found %d clusters, want 1", len(clusters))
	}
	c := clusters[0]
	if len(c.Indices) != 3 || c.Indices[0] != 0 || c.Indices[2] != 2 {
		t.Errorf("cluster indices = %v, want [0 1 2]", c.Indices)
	}
	if len(c.CoordIDs) != 3 || c.CoordIDs[0] != "a" || c.CoordIDs[2] != "c" {
		t.Errorf("cluster ids = %v, want [a b c]", c.CoordIDs)
	}
}

func TestFindStationaryPointsNoneOnMovingTrace(t *testing.T) {
	trace := mkTrace(t, xy("a", 0, 0), xy("b", 10, 0), xy("c", 20, 0))
	if clusters := FindStationaryPoints(trace); len(clusters) != 0 {
		t.Errorf("found %d clusters on a moving trace, want 0", len(clusters))
	}
}

func TestDropAndRestoreStationaryPoints(t *testing.T) {
	trace := mkTrace(t,
		xy("a", 0, 0),
		xy("b", 0.0001, 0),
		xy("c", 0.0002, 0),
		xy("d", 50, 0),
	)
	clusters := FindStationaryPoints(trace)

	reduced := DropStationaryPoints(trace, clusters)
	if reduced.Len() != 2 {
		t.Fatalf("reduced trace length = %d, want 2", reduced.Len())
	}
	if reduced.Coords()[0].ID != "a" || reduced.Coords()[1].ID != "d" {
		t.Fatalf("reduced trace kept %v, want [a d]", reduced.Coords())
	}

	road := mkRoad(1, 2, orb.Point{0, 0}, orb.Point{50, 0})
	matches := []matching.Match{
		{Road: &road, Coordinate: reduced.Coords()[0], Distance: 1.5},
		{Road: &road, Coordinate: reduced.Coords()[1], Distance: 2.5},
	}

	restored := AddMatchesForStationaryPoints(matches, clusters)
	if len(restored) != 4 {
		t.Fatalf("restored %d matches, want 4", len(restored))
	}
	wantIDs := []string{"a", "b", "c", "d"}
	for i, m := range restored {
		if m.Coordinate.ID != wantIDs[i] {
			t.Fatalf("restored order = %v at %d, want %v", m.Coordinate.ID, i, wantIDs)
		}
	}
	for _, i := range []int{1, 2} {
		if restored[i].Road != restored[0].Road {
			t.Errorf("restored match %d road differs from the cluster representative", i)
		}
		if restored[i].Distance != 1.5 {
			t.Errorf("restored match %d distance = %v, want 1.5", i, restored[i].Distance)
		}
	}
	if restored[3].Distance != 2.5 {
		t.Errorf("trailing match distance = %v, want 2.5", restored[3].Distance)
	}
}

func TestAddMatchesForStationaryPointsNoClusters(t *testing.T) {
	road := mkRoad(1, 2, orb.Point{0, 0}, orb.Point{50, 0})
	matches := []matching.Match{{Road: &road, Coordinate: xy("a", 0, 0), Distance: 0}}

	restored := AddMatchesForStationaryPoints(matches, nil)
	if len(restored) != 1 || restored[0].Coordinate.ID != "a" {
		t.Errorf("restored = %v, want the input unchanged", restored)
	}
	if math.IsInf(restored[0].Distance, 1) {
		t.Error("distance should be preserved")
	}
}
