package matching

import (
	"fmt"

	"gomatch/gosm-matcher/geom"
)

// Trace is an ordered, duplicate-free sequence of coordinates sharing one CRS.
// Order is semantically meaningful: it is the temporal sequence of the
// trajectory. A Trace owns its coordinate slice; slicing and concatenation
// return fresh copies.
type Trace struct {
	crs    CRS
	coords []Coordinate
}

// NewTrace builds a trace from coordinates. All coordinates must share one CRS
// and identifiers must be unique.
func NewTrace(coords []Coordinate) (Trace, error) {
	if len(coords) == 0 {
		return Trace{crs: XYCRS}, nil
	}
	crs := coords[0].CRS
	seen := make(map[string]struct{}, len(coords))
	for _, c := range coords {
		if c.CRS != crs {
			return Trace{}, fmt.Errorf("trace mixes %s and %s: %w", crs, c.CRS, ErrCRSMismatch)
		}
		if _, ok := seen[c.ID]; ok {
			return Trace{}, fmt.Errorf("trace cannot have duplicate coordinate ids but found %q", c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	out := make([]Coordinate, len(coords))
	copy(out, coords)
	return Trace{crs: crs, coords: out}, nil
}

func (t Trace) Len() int { return len(t.coords) }
func (t Trace) CRS() CRS { return t.crs }

// Coords returns the coordinates in trace order. The returned slice is the
// trace's own storage and must not be mutated by the caller.
func (t Trace) Coords() []Coordinate { return t.coords }

// Slice returns the sub-trace covering positions [i, j).
func (t Trace) Slice(i, j int) Trace {
	if i < 0 {
		i = 0
	}
	if j > len(t.coords) {
		j = len(t.coords)
	}
	if i >= j {
		return Trace{crs: t.crs}
	}
	out := make([]Coordinate, j-i)
	copy(out, t.coords[i:j])
	return Trace{crs: t.crs, coords: out}
}

// Concat appends the other trace, preserving order. Concatenating traces in
// different reference systems is a programming error.
func (t Trace) Concat(other Trace) Trace {
	if t.Len() == 0 {
		return other
	}
	if other.Len() == 0 {
		return t
	}
	if t.crs != other.crs {
		panic(fmt.Sprintf("cannot concatenate traces with different crs: %s vs %s", t.crs, other.crs))
	}
	out := make([]Coordinate, 0, len(t.coords)+len(other.coords))
	out = append(out, t.coords...)
	out = append(out, other.coords...)
	return Trace{crs: t.crs, coords: out}
}

// Drop removes coordinates by identifier.
func (t Trace) Drop(ids ...string) Trace {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	out := make([]Coordinate, 0, len(t.coords))
	for _, c := range t.coords {
		if _, ok := drop[c.ID]; !ok {
			out = append(out, c)
		}
	}
	return Trace{crs: t.crs, coords: out}
}

// ToXY projects every coordinate onto the working plane.
func (t Trace) ToXY() Trace {
	if t.crs == XYCRS {
		return t
	}
	out := make([]Coordinate, len(t.coords))
	for i, c := range t.coords {
		out[i] = c.ToXY()
	}
	return Trace{crs: XYCRS, coords: out}
}

// Downsample selects n evenly-spaced points along the trace.
func (t Trace) Downsample(n int) Trace {
	if n <= 0 || t.Len() == 0 {
		return Trace{crs: t.crs}
	}
	if n >= t.Len() {
		return t.Slice(0, t.Len())
	}
	out := make([]Coordinate, 0, n)
	if n == 1 {
		out = append(out, t.coords[0])
	} else {
		step := float64(t.Len()-1) / float64(n-1)
		for i := 0; i < n; i++ {
			out = append(out, t.coords[int(float64(i)*step+0.5)])
		}
	}
	return Trace{crs: t.crs, coords: out}
}

// SplitLargeTrace chops a trace into chunks of roughly idealSize points. A
// trailing chunk of 10 points or fewer is folded into the previous chunk.
func SplitLargeTrace(t Trace, idealSize int) ([]Trace, error) {
	if idealSize <= 0 {
		return nil, fmt.Errorf("idealSize must be greater than 0")
	}
	if t.Len() <= idealSize {
		return []Trace{t}, nil
	}
	var chunks []Trace
	for i := 0; i < t.Len(); i += idealSize {
		end := i + idealSize
		if end > t.Len() {
			end = t.Len()
		}
		chunks = append(chunks, t.Slice(i, end))
	}
	if len(chunks) > 1 && chunks[len(chunks)-1].Len() <= 10 {
		last := chunks[len(chunks)-1]
		chunks = chunks[:len(chunks)-1]
		chunks[len(chunks)-1] = chunks[len(chunks)-1].Concat(last)
	}
	return chunks, nil
}

// RemoveBadStartFromTrace trims leading points separated from their successor
// by more than distanceThreshold, a sign of GPS fix-up artifacts at the start
// of a recording.
func RemoveBadStartFromTrace(t Trace, distanceThreshold float64) Trace {
	coords := t.coords
	for i := 0; i+1 < len(coords); i++ {
		if coords[i].Point == coords[i+1].Point {
			continue
		}
		d := geom.PlanarDistance(coords[i].Point, coords[i+1].Point)
		if d > distanceThreshold {
			return t.Slice(i+1, t.Len())
		}
		return t
	}
	return t
}
