package roadnet

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/paulmach/orb"
	"github.com/qedus/osmpbf"
	"github.com/sirupsen/logrus"

	"gomatch/gosm-matcher/geom"
	"gomatch/gosm-matcher/matching"
)

var drivableHighways = map[string]struct{}{
	"motorway":       {},
	"motorway_link":  {},
	"trunk":          {},
	"trunk_link":     {},
	"primary":        {},
	"primary_link":   {},
	"secondary":      {},
	"secondary_link": {},
	"tertiary":       {},
	"tertiary_link":  {},
	"residential":    {},
	"service":        {},
	"living_street":  {},
}

type pbfNode struct {
	lon float64
	lat float64
}

type pbfWay struct {
	nodes   []int64
	highway string
	oneway  bool
}

// LoadPBF imports an OSM extract into a road graph. Ways are filtered to
// drivable highway classes, broken into edges at intersection nodes, projected
// onto the working plane and inserted as directed roads in both travel
// directions (one direction for oneway ways). Each road carries its haversine
// length under the distance weight key.
func LoadPBF(filePath string, log *logrus.Logger) (*Graph, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening pbf file: %w", err)
	}
	defer f.Close()

	d := osmpbf.NewDecoder(f)

	// use more memory from the start, it is faster
	d.SetBufferSize(osmpbf.MaxBlobSize)

	// start decoding with several goroutines, it is faster
	if err := d.Start(runtime.GOMAXPROCS(-1)); err != nil {
		return nil, fmt.Errorf("starting pbf decoder: %w", err)
	}

	nodes := make(map[int64]pbfNode)
	var ways []pbfWay

	for {
		v, err := d.Decode()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("decoding pbf: %w", err)
		}
		switch v := v.(type) {
		case *osmpbf.Node:
			nodes[v.ID] = pbfNode{lon: v.Lon, lat: v.Lat}
		case *osmpbf.Way:
			if _, ok := drivableHighways[v.Tags["highway"]]; !ok {
				continue
			}
			w := pbfWay{
				nodes:   append([]int64(nil), v.NodeIDs...),
				highway: v.Tags["highway"],
				oneway:  v.Tags["oneway"] == "yes",
			}
			ways = append(ways, w)
		case *osmpbf.Relation:
			// relations are ignored
		}
	}

	// nodes shared by more than one way are intersections; way endpoints also
	// terminate edges
	nodeWayCount := make(map[int64]int)
	for _, way := range ways {
		for _, nid := range way.nodes {
			nodeWayCount[nid]++
		}
	}
	isBoundary := func(way pbfWay, i int) bool {
		return i == 0 || i == len(way.nodes)-1 || nodeWayCount[way.nodes[i]] > 1
	}

	graph := NewGraph(matching.XYCRS)
	edgeCount := 0

	for _, way := range ways {
		segStart := 0
		for i := 1; i < len(way.nodes); i++ {
			if !isBoundary(way, i) {
				continue
			}
			segment := way.nodes[segStart : i+1]
			if addWaySegment(graph, nodes, segment, way) {
				edgeCount++
			}
			segStart = i
		}
	}

	log.WithFields(logrus.Fields{
		"ways":  len(ways),
		"roads": graph.RoadCount(),
		"edges": edgeCount,
	}).Info("loaded road network from pbf")

	return graph, nil
}

func addWaySegment(graph *Graph, nodes map[int64]pbfNode, segment []int64, way pbfWay) bool {
	if len(segment) < 2 {
		return false
	}

	line := make(orb.LineString, 0, len(segment))
	length := 0.0
	for i, nid := range segment {
		n, ok := nodes[nid]
		if !ok {
			return false
		}
		if i > 0 {
			p := nodes[segment[i-1]]
			length += geom.GreatCircleDistance(p.lon, p.lat, n.lon, n.lat)
		}
		line = append(line, geom.LatLonToXY(orb.Point{n.lon, n.lat}))
	}

	start, end := segment[0], segment[len(segment)-1]
	addDirected(graph, start, end, line, length, way.highway)
	if !way.oneway {
		reversed := make(orb.LineString, len(line))
		for i, p := range line {
			reversed[len(line)-1-i] = p
		}
		addDirected(graph, end, start, reversed, length, way.highway)
	}
	return true
}

func addDirected(graph *Graph, start, end int64, line orb.LineString, length float64, highway string) {
	road := matching.Road{
		ID:   matching.RoadID{Start: start, End: end, Key: graph.NextKey(start, end)},
		Geom: line,
		Metadata: map[string]any{
			matching.WeightDistance: length,
			"highway":               highway,
		},
	}
	// key assignment makes duplicates impossible
	_ = graph.AddRoad(road)
}
