package routing

import (
	"math"

	"github.com/ttpr0/go-hybrid-routing/graph"
	. "github.com/ttpr0/go-hybrid-routing/util"
)

type IShortestPath interface {
	CalcShortestPath() bool
	GetShortestPath() Path
}

//*******************************************
// dijkstra
//*******************************************

type flag struct {
	dist     float64
	prev     graph.EdgeRef
	visited  bool
	has_prev bool
}

type pqItem struct {
	node int32
	dist float64
}

// Dijkstra runs a one-to-one search over the undirected in-area network. Edge
// orientation only selects the cost direction, one-way restrictions are not
// modelled.
type Dijkstra struct {
	topology  *graph.Topology
	weighting IWeighting
	start     int32
	end       int32
	flags     Array[flag]
}

func NewDijkstra(topology *graph.Topology, weighting IWeighting, start, end int32) *Dijkstra {
	flags := NewArray[flag](topology.NodeCount())
	for i := range flags {
		flags[i].dist = math.Inf(1)
	}
	return &Dijkstra{
		topology:  topology,
		weighting: weighting,
		start:     start,
		end:       end,
		flags:     flags,
	}
}

func (self *Dijkstra) CalcShortestPath() bool {
	heap := NewPriorityQueue[pqItem, float64](100)
	self.flags[self.start].dist = 0
	heap.Enqueue(pqItem{self.start, 0}, 0)

	for {
		curr, ok := heap.Dequeue()
		if !ok {
			return false
		}
		curr_flag := &self.flags[curr.node]
		if curr_flag.visited || curr_flag.dist < curr.dist {
			continue
		}
		curr_flag.visited = true
		if curr.node == self.end {
			return true
		}
		self.topology.ForAdjacentEdges(curr.node, func(ref graph.EdgeRef) {
			if !self.topology.IsInArea(ref.EdgeID) {
				return
			}
			other_flag := &self.flags[ref.OtherID]
			if other_flag.visited {
				return
			}
			new_dist := curr_flag.dist + self.weighting.GetEdgeWeight(ref)
			if new_dist < other_flag.dist {
				other_flag.dist = new_dist
				other_flag.prev = ref
				other_flag.has_prev = true
				heap.Enqueue(pqItem{ref.OtherID, new_dist}, new_dist)
			}
		})
	}
}

// Path from start to end in travel order. Only valid after CalcShortestPath
// returned true.
func (self *Dijkstra) GetShortestPath() Path {
	refs := NewList[graph.EdgeRef](10)
	curr := self.end
	for curr != self.start {
		curr_flag := self.flags[curr]
		if !curr_flag.has_prev {
			break
		}
		refs.Add(curr_flag.prev)
		edge := self.topology.GetEdge(curr_flag.prev.EdgeID)
		if curr_flag.prev.Forward {
			curr = edge.NodeA
		} else {
			curr = edge.NodeB
		}
	}
	for i, j := 0, refs.Length()-1; i < j; i, j = i+1, j-1 {
		refs[i], refs[j] = refs[j], refs[i]
	}
	return NewPath(self.topology, self.start, refs)
}
