package routing

import (
	"github.com/ttpr0/go-hybrid-routing/graph"
)

//*******************************************
// weighting interface
//*******************************************

// IWeighting gives the cost of traversing an edge in the direction of ref.
type IWeighting interface {
	GetEdgeWeight(ref graph.EdgeRef) float64
}

func NewWeighting(mode CostMode, topology *graph.Topology, costs *graph.Costs) IWeighting {
	if mode == SHORTEST {
		return &ShortestWeighting{topology: topology}
	}
	return &FastestWeighting{costs: costs}
}

// Edge length in meters, identical in both directions.
type ShortestWeighting struct {
	topology *graph.Topology
}

func (self *ShortestWeighting) GetEdgeWeight(ref graph.EdgeRef) float64 {
	return self.topology.GetEdge(ref.EdgeID).Length
}

// Live time cost in seconds for the direction of travel.
type FastestWeighting struct {
	costs *graph.Costs
}

func (self *FastestWeighting) GetEdgeWeight(ref graph.EdgeRef) float64 {
	return TimeCost(self.costs, ref)
}

func TimeCost(costs *graph.Costs, ref graph.EdgeRef) float64 {
	if ref.Forward {
		return costs.GetForwardCost(ref.EdgeID)
	}
	return costs.GetBackwardCost(ref.EdgeID)
}
