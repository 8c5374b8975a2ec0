package graph

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/ttpr0/go-hybrid-routing/geo"
	. "github.com/ttpr0/go-hybrid-routing/util"
)

//*******************************************
// snapping pass
//*******************************************

type cellKey struct {
	x int64
	y int64
}

// Groups edge endpoints that lie within tolerance meters of each other into
// shared nodes. Returns the node table together with a copy of the edges whose
// NodeA/NodeB and Length fields are re-derived from their geometry.
//
// Edges are processed in id order (source endpoint before target endpoint),
// which makes the result deterministic for a given input.
func SnapEndpoints(edges Array[Edge], tolerance float64) (Array[Node], Array[Edge], error) {
	if !(tolerance > 0) {
		return nil, nil, ErrInvalidTolerance
	}
	endpoints := NewList[geo.CoordArray](1)
	for _, edge := range edges {
		if len(edge.Geometry) == 0 {
			continue
		}
		endpoints.Add(geo.CoordArray{edge.Geometry[0], edge.Geometry[len(edge.Geometry)-1]})
	}
	proj := geo.ProjectionFor(endpoints...)

	nodes := NewList[Node](edges.Length())
	planar := NewList[orb.Point](edges.Length())
	grid := NewDict[cellKey, List[int32]](edges.Length())

	snap := func(c geo.Coord) int32 {
		p := proj.ToPlanar(c)
		cx := int64(math.Floor(p[0] / tolerance))
		cy := int64(math.Floor(p[1] / tolerance))
		best := NO_NODE
		best_dist := tolerance
		for dx := int64(-1); dx <= 1; dx++ {
			for dy := int64(-1); dy <= 1; dy++ {
				for _, node := range grid[cellKey{cx + dx, cy + dy}] {
					other := planar[node]
					dist := math.Hypot(other[0]-p[0], other[1]-p[1])
					if dist <= best_dist {
						best = node
						best_dist = dist
					}
				}
			}
		}
		if best != NO_NODE {
			return best
		}
		id := int32(nodes.Length())
		nodes.Add(Node{Loc: c})
		planar.Add(p)
		key := cellKey{cx, cy}
		cell := grid[key]
		cell.Add(id)
		grid[key] = cell
		return id
	}

	snapped := NewArray[Edge](edges.Length())
	for i, edge := range edges {
		if len(edge.Geometry) < 2 {
			edge.NodeA = NO_NODE
			edge.NodeB = NO_NODE
			edge.Length = 0
			snapped[i] = edge
			continue
		}
		edge.NodeA = snap(edge.Geometry[0])
		edge.NodeB = snap(edge.Geometry[len(edge.Geometry)-1])
		edge.Length = geo.Length(edge.Geometry)
		snapped[i] = edge
	}
	return Array[Node](nodes), snapped, nil
}
