package matcher

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/quadtree"
	"github.com/ttpr0/go-hybrid-routing/geo"
	"github.com/ttpr0/go-hybrid-routing/graph"
	. "github.com/ttpr0/go-hybrid-routing/util"
)

// max candidates taken from the quadtree per probe
const CANDIDATES = 32

type edgePointer struct {
	loc  orb.Point
	edge int32
}

func (self edgePointer) Point() orb.Point {
	return self.loc
}

// EdgeIndex finds the edge closest to a point. Edge geometries are projected
// into a local metric plane and densified into sample points held in a
// quadtree; candidates are ranked by exact point to line distance.
type EdgeIndex struct {
	proj      geo.LocalProjection
	tree      *quadtree.Quadtree
	lines     Array[orb.LineString]
	midpoints Array[orb.Point]
	spacing   float64
}

// spacing is the maximal distance in meters between indexed sample points.
func NewEdgeIndex(topology *graph.Topology, spacing float64) *EdgeIndex {
	edges := topology.Edges()
	geoms := make([]geo.CoordArray, 0, edges.Length())
	for _, edge := range edges {
		geoms = append(geoms, edge.Geometry)
	}
	proj := geo.ProjectionFor(geoms...)

	lines := NewArray[orb.LineString](edges.Length())
	midpoints := NewArray[orb.Point](edges.Length())
	bound := orb.Bound{}
	first := true
	for i, edge := range edges {
		line := proj.LineToPlanar(edge.Geometry)
		lines[i] = line
		if len(line) == 0 {
			continue
		}
		midpoints[i] = midpoint(line)
		if first {
			bound = line.Bound()
			first = false
		} else {
			bound = bound.Union(line.Bound())
		}
	}

	tree := quadtree.New(bound.Pad(spacing + 1))
	for i, line := range lines {
		for _, p := range geo.Densify(line, spacing) {
			tree.Add(edgePointer{loc: p, edge: int32(i)})
		}
	}
	return &EdgeIndex{
		proj:      proj,
		tree:      tree,
		lines:     lines,
		midpoints: midpoints,
		spacing:   spacing,
	}
}

func (self *EdgeIndex) Projection() geo.LocalProjection {
	return self.proj
}

// Closest edge to the planar point within max_distance meters. Ties go to the
// lower edge id.
func (self *EdgeIndex) Nearest(p orb.Point, max_distance float64) (int32, float64, bool) {
	// the closest sample of a matching edge lies at most half a spacing
	// further away than the edge itself
	radius := max_distance + self.spacing/2
	candidates := self.tree.KNearest(nil, p, CANDIDATES, radius)
	best := graph.NO_NODE
	best_dist := 0.0
	seen := NewDict[int32, bool](len(candidates))
	for _, c := range candidates {
		edge := c.(edgePointer).edge
		if seen[edge] {
			continue
		}
		seen[edge] = true
		dist := planar.DistanceFrom(self.lines[edge], p)
		if dist > max_distance {
			continue
		}
		if best == graph.NO_NODE || dist < best_dist || (dist == best_dist && edge < best) {
			best = edge
			best_dist = dist
		}
	}
	return best, best_dist, best != graph.NO_NODE
}

// Edges whose midpoint lies within max_distance meters of the planar line,
// in ascending id order.
func (self *EdgeIndex) AlongLine(line orb.LineString, max_distance float64) []int32 {
	if len(line) == 0 {
		return nil
	}
	// a sample lies within half a spacing of the midpoint and a probe within
	// half a spacing of the line point closest to that sample
	radius := max_distance + self.spacing
	seen := NewDict[int32, bool](16)
	found := make([]int32, 0, 16)
	var buf []orb.Pointer
	for _, probe := range geo.Densify(line, self.spacing) {
		bound := orb.Bound{
			Min: orb.Point{probe[0] - radius, probe[1] - radius},
			Max: orb.Point{probe[0] + radius, probe[1] + radius},
		}
		buf = self.tree.InBound(buf[:0], bound)
		for _, c := range buf {
			edge := c.(edgePointer).edge
			if seen[edge] {
				continue
			}
			seen[edge] = true
			if distanceToLine(line, self.midpoints[edge]) <= max_distance {
				found = append(found, edge)
			}
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i] < found[j] })
	return found
}

func distanceToLine(line orb.LineString, p orb.Point) float64 {
	if len(line) == 1 {
		return planar.Distance(line[0], p)
	}
	return planar.DistanceFrom(line, p)
}

// Point halfway along the line.
func midpoint(line orb.LineString) orb.Point {
	total := planar.Length(line)
	if len(line) == 1 || total == 0 {
		return line[0]
	}
	half := total / 2
	walked := 0.0
	for i := 1; i < len(line); i++ {
		a := line[i-1]
		b := line[i]
		length := planar.Distance(a, b)
		if walked+length >= half && length > 0 {
			t := (half - walked) / length
			return orb.Point{a[0] + t*(b[0]-a[0]), a[1] + t*(b[1]-a[1])}
		}
		walked += length
	}
	return line[len(line)-1]
}
