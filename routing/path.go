package routing

import (
	"github.com/ttpr0/go-hybrid-routing/geo"
	"github.com/ttpr0/go-hybrid-routing/graph"
	. "github.com/ttpr0/go-hybrid-routing/util"
)

// Path is an ordered sequence of traversed edges.
type Path struct {
	topology *graph.Topology
	start    int32
	edges    List[graph.EdgeRef]
}

func NewPath(topology *graph.Topology, start int32, edges List[graph.EdgeRef]) Path {
	return Path{
		topology: topology,
		start:    start,
		edges:    edges,
	}
}

func (self Path) Edges() List[graph.EdgeRef] {
	return self.edges
}

// Stitched geometry in travel order without consecutive duplicate vertices.
func (self Path) GetGeometry() geo.CoordArray {
	coords := make(geo.CoordArray, 0, self.edges.Length()*2+1)
	if self.edges.Length() == 0 {
		return append(coords, self.topology.GetNodeGeom(self.start))
	}
	for _, ref := range self.edges {
		line := self.topology.GetEdge(ref.EdgeID).Geometry
		for i := range line {
			c := line[i]
			if !ref.Forward {
				c = line[len(line)-1-i]
			}
			if len(coords) > 0 && coords[len(coords)-1] == c {
				continue
			}
			coords = append(coords, c)
		}
	}
	return coords
}

// Total length in meters.
func (self Path) GetDistance() float64 {
	dist := 0.0
	for _, ref := range self.edges {
		dist += self.topology.GetEdge(ref.EdgeID).Length
	}
	return dist
}

// Total travel time in seconds for the given cost snapshot.
func (self Path) GetDuration(costs *graph.Costs) float64 {
	duration := 0.0
	for _, ref := range self.edges {
		duration += TimeCost(costs, ref)
	}
	return duration
}
