package roadnet

import (
	"container/heap"
	"fmt"
	"math"

	"gomatch/gosm-matcher/geom"
	"gomatch/gosm-matcher/matching"
)

// Graph is an in-memory directed road network. Roads are indexed spatially for
// nearest-road lookups and by origin node for routing. A Graph is immutable
// once built and safe for concurrent reads.
type Graph struct {
	crs   matching.CRS
	roads map[matching.RoadID]matching.Road
	out   map[int64][]matching.RoadID
	index *geom.RTree[matching.RoadID]
	keys  map[[2]int64]int
}

// NewGraph creates an empty graph in the given reference system.
func NewGraph(crs matching.CRS) *Graph {
	return &Graph{
		crs:   crs,
		roads: make(map[matching.RoadID]matching.Road),
		out:   make(map[int64][]matching.RoadID),
		index: geom.NewRTree[matching.RoadID](),
		keys:  make(map[[2]int64]int),
	}
}

func (g *Graph) CRS() matching.CRS { return g.crs }

// AddRoad inserts a directed edge. Roads repeating an existing (start, end)
// pair must carry distinct keys; NextKey supplies the next free key.
func (g *Graph) AddRoad(road matching.Road) error {
	if _, ok := g.roads[road.ID]; ok {
		return fmt.Errorf("road %s already exists", road.ID)
	}
	g.roads[road.ID] = road
	g.out[road.ID.Start] = append(g.out[road.ID.Start], road.ID)
	g.index.InsertLine(road.ID, road.Geom)
	pair := [2]int64{road.ID.Start, road.ID.End}
	if road.ID.Key >= g.keys[pair] {
		g.keys[pair] = road.ID.Key + 1
	}
	return nil
}

// NextKey returns the next free parallel-edge key for a node pair.
func (g *Graph) NextKey(start, end int64) int {
	return g.keys[[2]int64{start, end}]
}

// RoadCount returns the number of directed edges in the graph.
func (g *Graph) RoadCount() int { return len(g.roads) }

// Roads returns all roads in the graph in unspecified order.
func (g *Graph) Roads() []matching.Road {
	out := make([]matching.Road, 0, len(g.roads))
	for _, r := range g.roads {
		out = append(out, r)
	}
	return out
}

// RoadByID looks up a road by its identifier.
func (g *Graph) RoadByID(id matching.RoadID) (matching.Road, bool) {
	r, ok := g.roads[id]
	return r, ok
}

// NearestRoad returns the road closest to the coordinate, searching the
// spatial index with an expanding window and falling back to a full scan.
func (g *Graph) NearestRoad(coord matching.Coordinate) (matching.Road, error) {
	if coord.CRS != g.crs {
		return matching.Road{}, fmt.Errorf("nearest road for %s coordinate on %s graph: %w",
			coord.CRS, g.crs, matching.ErrCRSMismatch)
	}
	if len(g.roads) == 0 {
		return matching.Road{}, fmt.Errorf("graph has no roads")
	}

	for radius := 200.0; radius <= 52000.0; radius *= 4 {
		ids := g.index.SearchNearPoint(coord.Point, radius)
		if len(ids) == 0 {
			continue
		}
		if best, ok := g.closest(coord, ids); ok {
			return best, nil
		}
	}

	// point is far from every indexed bbox; brute force
	all := make([]matching.RoadID, 0, len(g.roads))
	for id := range g.roads {
		all = append(all, id)
	}
	best, _ := g.closest(coord, all)
	return best, nil
}

func (g *Graph) closest(coord matching.Coordinate, ids []matching.RoadID) (matching.Road, bool) {
	minDist := math.Inf(1)
	var best matching.Road
	found := false
	for _, id := range ids {
		road := g.roads[id]
		d := geom.PointToLineDistance(coord.Point, road.Geom)
		if d < minDist {
			minDist = d
			best = road
			found = true
		}
	}
	return best, found
}

// ShortestPath routes between the roads nearest to the two coordinates and
// returns the ordered edge path. An empty path means the coordinates lie in
// disconnected components; this is not an error.
func (g *Graph) ShortestPath(origin, destination matching.Coordinate, weight ...string) ([]matching.Road, error) {
	weightKey := matching.WeightDistance
	if len(weight) > 0 && weight[0] != "" {
		weightKey = weight[0]
	}

	oRoad, err := g.NearestRoad(origin)
	if err != nil {
		return nil, err
	}
	dRoad, err := g.NearestRoad(destination)
	if err != nil {
		return nil, err
	}

	if oRoad.ID == dRoad.ID {
		return []matching.Road{oRoad}, nil
	}

	mid, ok := g.dijkstra(oRoad.ID.End, dRoad.ID.Start, weightKey)
	if !ok {
		return []matching.Road{}, nil
	}

	path := make([]matching.Road, 0, len(mid)+2)
	path = append(path, oRoad)
	path = append(path, mid...)
	path = append(path, dRoad)
	return path, nil
}

func (g *Graph) roadCost(id matching.RoadID, weightKey string) float64 {
	road := g.roads[id]
	if w := road.Weight(weightKey); w > 0 {
		return w
	}
	// no weight metadata; fall back to planar geometry length
	total := 0.0
	for i := 0; i+1 < len(road.Geom); i++ {
		total += geom.PlanarDistance(road.Geom[i], road.Geom[i+1])
	}
	return total
}

type nodeItem struct {
	node int64
	dist float64
}

type nodeQueue []nodeItem

func (q nodeQueue) Len() int           { return len(q) }
func (q nodeQueue) Less(i, j int) bool { return q[i].dist < q[j].dist }
func (q nodeQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *nodeQueue) Push(x any)        { *q = append(*q, x.(nodeItem)) }

func (q *nodeQueue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	*q = old[:n-1]
	return it
}

// dijkstra finds the cheapest edge path from source to target node. The
// second return value is false when the target is unreachable.
func (g *Graph) dijkstra(source, target int64, weightKey string) ([]matching.Road, bool) {
	if source == target {
		return []matching.Road{}, true
	}

	dist := map[int64]float64{source: 0}
	prev := map[int64]matching.RoadID{}
	done := map[int64]bool{}

	q := &nodeQueue{{node: source, dist: 0}}
	heap.Init(q)

	for q.Len() > 0 {
		it := heap.Pop(q).(nodeItem)
		if done[it.node] {
			continue
		}
		done[it.node] = true
		if it.node == target {
			break
		}
		for _, edgeID := range g.out[it.node] {
			next := edgeID.End
			if done[next] {
				continue
			}
			nd := it.dist + g.roadCost(edgeID, weightKey)
			if cur, ok := dist[next]; !ok || nd < cur {
				dist[next] = nd
				prev[next] = edgeID
				heap.Push(q, nodeItem{node: next, dist: nd})
			}
		}
	}

	if !done[target] {
		return nil, false
	}

	var edges []matching.Road
	for at := target; at != source; {
		edgeID := prev[at]
		edges = append(edges, g.roads[edgeID])
		at = edgeID.Start
	}
	for i, j := 0, len(edges)-1; i < j; i, j = i+1, j-1 {
		edges[i], edges[j] = edges[j], edges[i]
	}
	return edges, true
}
