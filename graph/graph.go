package graph

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/paulmach/orb"
	. "github.com/ttpr0/go-hybrid-routing/util"
)

//*******************************************
// graph
//*******************************************

// Graph is the shared routing graph. Readers take a consistent snapshot of
// the topology and the live costs; writers replace those snapshots atomically
// and are serialized against each other.
type Graph struct {
	topology atomic.Pointer[Topology]
	costs    atomic.Pointer[Costs]
	area     orb.Bound

	seg_mu   sync.RWMutex
	segments Dict[int32, int64]

	write_mu sync.Mutex
}

func NewGraph(topology *Topology, costs *Costs, segments Dict[int32, int64], area orb.Bound) *Graph {
	if segments == nil {
		segments = NewDict[int32, int64](10)
	}
	g := &Graph{
		area:     area,
		segments: segments,
	}
	g.topology.Store(topology)
	g.costs.Store(costs)
	return g
}

// Assembles a graph from its stored tables.
func FromTables(nodes Array[Node], edges Array[Edge], costs *Costs, mappings []Mapping, tolerance float64, area orb.Bound) *Graph {
	segments := NewDict[int32, int64](len(mappings))
	for _, m := range mappings {
		segments[m.EdgeID] = m.SegmentID
	}
	if costs == nil {
		costs = NewCosts(edges)
	}
	return NewGraph(NewTopology(nodes, edges, tolerance, area), costs, segments, area)
}

func (self *Graph) Topology() *Topology {
	return self.topology.Load()
}
func (self *Graph) Costs() *Costs {
	return self.costs.Load()
}
func (self *Graph) Area() orb.Bound {
	return self.area
}
func (self *Graph) NodeCount() int {
	return self.Topology().NodeCount()
}
func (self *Graph) EdgeCount() int {
	return self.Topology().EdgeCount()
}

//*******************************************
// segment mapping
//*******************************************

func (self *Graph) GetSegment(edge int32) (int64, bool) {
	self.seg_mu.RLock()
	defer self.seg_mu.RUnlock()
	seg, ok := self.segments[edge]
	return seg, ok
}

func (self *Graph) IsMapped(edge int32) bool {
	_, ok := self.GetSegment(edge)
	return ok
}

// Records the mapping unless the edge is already mapped. Returns true if the
// mapping was added.
func (self *Graph) SetMapping(edge int32, segment int64) bool {
	self.seg_mu.Lock()
	defer self.seg_mu.Unlock()
	if self.segments.ContainsKey(edge) {
		return false
	}
	self.segments[edge] = segment
	return true
}

func (self *Graph) MappedCount() int {
	self.seg_mu.RLock()
	defer self.seg_mu.RUnlock()
	return self.segments.Length()
}

// All mappings ordered by edge id.
func (self *Graph) Mappings() []Mapping {
	self.seg_mu.RLock()
	mappings := make([]Mapping, 0, self.segments.Length())
	for edge, seg := range self.segments {
		mappings = append(mappings, Mapping{EdgeID: edge, SegmentID: seg})
	}
	self.seg_mu.RUnlock()
	sort.Slice(mappings, func(i, j int) bool {
		return mappings[i].EdgeID < mappings[j].EdgeID
	})
	return mappings
}

//*******************************************
// live updates
//*******************************************

type SpeedReport struct {
	// number of edges whose speed was changed
	Updated int
	// mean current speed over all mapped edges after the update
	AvgSpeed float64
}

// Sets the current speed of every edge mapped to a sampled segment and
// recomputes its costs. The new costs become visible to readers as one
// snapshot.
func (self *Graph) ApplySpeeds(samples []SpeedSample) SpeedReport {
	self.write_mu.Lock()
	defer self.write_mu.Unlock()

	by_segment := NewDict[int64, float64](len(samples))
	for _, s := range samples {
		by_segment[s.SegmentID] = s.Speed
	}

	topology := self.Topology()
	old := self.Costs()
	speeds := old.copySpeeds()

	report := SpeedReport{}
	total := 0.0
	count := 0
	self.seg_mu.RLock()
	for edge, seg := range self.segments {
		if speed, ok := by_segment[seg]; ok {
			speeds[edge] = speed
			report.Updated += 1
		}
		total += speeds[edge]
		count += 1
	}
	self.seg_mu.RUnlock()
	if count > 0 {
		report.AvgSpeed = total / float64(count)
	}

	self.costs.Store(BuildCosts(topology.Edges(), speeds))
	return report
}

// Swaps in a new topology. Edge ids are stable across topologies, so current
// speeds carry over and costs are recomputed from the new edge lengths.
func (self *Graph) ReplaceTopology(topology *Topology) {
	self.write_mu.Lock()
	defer self.write_mu.Unlock()

	speeds := self.Costs().copySpeeds()
	self.costs.Store(BuildCosts(topology.Edges(), speeds))
	self.topology.Store(topology)
}
