package graph

import (
	"github.com/paulmach/orb"
	"github.com/ttpr0/go-hybrid-routing/geo"
	. "github.com/ttpr0/go-hybrid-routing/util"
)

//*******************************************
// topology
//*******************************************

// Topology is the immutable node/edge structure of the road network. It is
// replaced as a whole when the healer re-snaps the graph.
type Topology struct {
	nodes     Array[Node]
	edges     Array[Edge]
	adjacency Array[List[int32]]
	in_area   Array[bool]
	tolerance float64
	index     *NodeIndex
}

func NewTopology(nodes Array[Node], edges Array[Edge], tolerance float64, area orb.Bound) *Topology {
	adjacency := NewArray[List[int32]](nodes.Length())
	in_area := NewArray[bool](edges.Length())
	node_in_area := NewArray[bool](nodes.Length())
	for i, edge := range edges {
		in_area[i] = geo.LineWithin(area, edge.Geometry)
		if !edge.IsAssigned() {
			continue
		}
		adjacency[edge.NodeA].Add(int32(i))
		if edge.NodeB != edge.NodeA {
			adjacency[edge.NodeB].Add(int32(i))
		}
		if in_area[i] {
			node_in_area[edge.NodeA] = true
			node_in_area[edge.NodeB] = true
		}
	}
	index := NewNodeIndex(nodes, func(node int32) bool {
		return node_in_area[node]
	})
	return &Topology{
		nodes:     nodes,
		edges:     edges,
		adjacency: adjacency,
		in_area:   in_area,
		tolerance: tolerance,
		index:     index,
	}
}

func (self *Topology) NodeCount() int {
	return self.nodes.Length()
}
func (self *Topology) EdgeCount() int {
	return self.edges.Length()
}
func (self *Topology) GetNode(node int32) Node {
	return self.nodes[node]
}
func (self *Topology) GetEdge(edge int32) Edge {
	return self.edges[edge]
}
func (self *Topology) GetNodeGeom(node int32) geo.Coord {
	return self.nodes[node].Loc
}
func (self *Topology) Tolerance() float64 {
	return self.tolerance
}

// True if the edge geometry lies inside the service area.
func (self *Topology) IsInArea(edge int32) bool {
	return self.in_area[edge]
}

func (self *Topology) Edges() Array[Edge] {
	return self.edges
}
func (self *Topology) Nodes() Array[Node] {
	return self.nodes
}

// Iterates all edges touching the node regardless of their orientation.
func (self *Topology) ForAdjacentEdges(node int32, callback func(EdgeRef)) {
	for _, edge_id := range self.adjacency[node] {
		edge := self.edges[edge_id]
		if edge.NodeA == node {
			callback(EdgeRef{EdgeID: edge_id, OtherID: edge.NodeB, Forward: true})
		}
		if edge.NodeB == node && edge.NodeA != edge.NodeB {
			callback(EdgeRef{EdgeID: edge_id, OtherID: edge.NodeA, Forward: false})
		}
	}
}

// Closest node that belongs to the service area network.
func (self *Topology) GetClosestNode(point geo.Coord) (int32, bool) {
	return self.index.GetClosestNode(point)
}
