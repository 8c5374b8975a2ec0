package graph

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/quadtree"
	"github.com/ttpr0/go-hybrid-routing/geo"
	. "github.com/ttpr0/go-hybrid-routing/util"
)

//*******************************************
// graph index
//*******************************************

type nodePointer struct {
	loc orb.Point
	id  int32
}

func (self nodePointer) Point() orb.Point {
	return self.loc
}

// NodeIndex answers nearest-node queries with a quadtree.
type NodeIndex struct {
	tree  *quadtree.Quadtree
	count int
}

// Indexes all nodes accepted by include.
func NewNodeIndex(nodes Array[Node], include func(int32) bool) *NodeIndex {
	bound := orb.Bound{}
	first := true
	for i, node := range nodes {
		if !include(int32(i)) {
			continue
		}
		if first {
			bound = node.Loc.Bound()
			first = false
		} else {
			bound = bound.Extend(node.Loc)
		}
	}
	tree := quadtree.New(bound.Pad(0.01))
	count := 0
	for i, node := range nodes {
		if !include(int32(i)) {
			continue
		}
		if err := tree.Add(nodePointer{loc: node.Loc, id: int32(i)}); err == nil {
			count += 1
		}
	}
	return &NodeIndex{
		tree:  tree,
		count: count,
	}
}

// The quadtree ranks candidates by planar degrees, the closest of a few
// candidates is then picked by geodesic distance.
func (self *NodeIndex) GetClosestNode(point geo.Coord) (int32, bool) {
	if self.count == 0 {
		return NO_NODE, false
	}
	candidates := self.tree.KNearest(nil, point, 4)
	best := NO_NODE
	best_dist := 0.0
	for _, c := range candidates {
		ptr := c.(nodePointer)
		dist := geo.Distance(point, ptr.loc)
		if best == NO_NODE || dist < best_dist {
			best = ptr.id
			best_dist = dist
		}
	}
	return best, best != NO_NODE
}

func (self *NodeIndex) Count() int {
	return self.count
}
