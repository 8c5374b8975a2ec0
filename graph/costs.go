package graph

import (
	"github.com/ttpr0/go-hybrid-routing/attr"
	. "github.com/ttpr0/go-hybrid-routing/util"
)

// smallest time cost (seconds) an edge can have
const MIN_COST = 1e-3

// Travel time in seconds for length meters at speed km/h.
func TimeCost(length float64, speed float64) float64 {
	if !(speed >= attr.FLOOR_SPEED) {
		speed = attr.FLOOR_SPEED
	}
	cost := length / (speed / 3.6)
	if !(cost >= MIN_COST) {
		cost = MIN_COST
	}
	return cost
}

//*******************************************
// live cost snapshot
//*******************************************

// Costs is an immutable snapshot of the live edge attributes. Writers build a
// new snapshot and swap it in as a whole.
type Costs struct {
	current_speed Array[float64]
	forward       Array[float64]
	backward      Array[float64]
}

func NewCosts(edges Array[Edge]) *Costs {
	speeds := NewArray[float64](edges.Length())
	for i, edge := range edges {
		speeds[i] = edge.Maxspeed
	}
	return BuildCosts(edges, speeds)
}

// Derives forward and backward time costs from the given current speeds.
func BuildCosts(edges Array[Edge], speeds Array[float64]) *Costs {
	costs := &Costs{
		current_speed: speeds,
		forward:       NewArray[float64](edges.Length()),
		backward:      NewArray[float64](edges.Length()),
	}
	for i, edge := range edges {
		cost := TimeCost(edge.Length, speeds[i])
		costs.forward[i] = cost
		costs.backward[i] = cost
	}
	return costs
}

// Restores a persisted snapshot.
func LoadCosts(speeds, forward, backward Array[float64]) *Costs {
	return &Costs{
		current_speed: speeds,
		forward:       forward,
		backward:      backward,
	}
}

func (self *Costs) GetCurrentSpeed(edge int32) float64 {
	return self.current_speed[edge]
}
func (self *Costs) GetForwardCost(edge int32) float64 {
	return self.forward[edge]
}
func (self *Costs) GetBackwardCost(edge int32) float64 {
	return self.backward[edge]
}
func (self *Costs) Length() int {
	return self.current_speed.Length()
}

func (self *Costs) copySpeeds() Array[float64] {
	speeds := NewArray[float64](self.current_speed.Length())
	copy(speeds, self.current_speed)
	return speeds
}
