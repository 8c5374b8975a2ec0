package graph

import (
	"context"
	"sort"

	"github.com/ttpr0/go-hybrid-routing/metrics"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/singleflight"
)

// Persists a healed topology.
type TopologyWriter interface {
	WriteTopology(ctx context.Context, graph *Graph) error
}

type HealerOptions struct {
	// snap tolerances in meters, tried in ascending order
	Tolerances []float64
	// minimal nodes per edge ratio
	MinNodeRatio float64
	// minimal share of nodes inside the largest component
	MinComponentShare float64
}

func DefaultHealerOptions() HealerOptions {
	return HealerOptions{
		Tolerances:        []float64{1, 10, 100},
		MinNodeRatio:      0.05,
		MinComponentShare: 0.5,
	}
}

type Health struct {
	Nodes          int     `json:"nodes"`
	Edges          int     `json:"edges"`
	Unassigned     int     `json:"unassigned"`
	Anomalies      int     `json:"anomalies"`
	NodeRatio      float64 `json:"node_ratio"`
	ComponentShare float64 `json:"component_share"`
	Healthy        bool    `json:"healthy"`
}

type HealReport struct {
	Before    Health  `json:"before"`
	After     Health  `json:"after"`
	Tolerance float64 `json:"tolerance"`
	Steps     int     `json:"steps"`
	Changed   bool    `json:"changed"`
}

//*******************************************
// healer
//*******************************************

// Healer detects a degenerate topology and rebuilds it by re-snapping edge
// endpoints with escalating tolerances. Concurrent Heal calls share one run.
type Healer struct {
	graph   *Graph
	writer  TopologyWriter
	options HealerOptions
	metrics *metrics.Metrics
	group   singleflight.Group
}

// writer and m may be nil.
func NewHealer(graph *Graph, writer TopologyWriter, options HealerOptions, m *metrics.Metrics) *Healer {
	tolerances := append([]float64{}, options.Tolerances...)
	sort.Float64s(tolerances)
	options.Tolerances = tolerances
	return &Healer{
		graph:   graph,
		writer:  writer,
		options: options,
		metrics: m,
	}
}

func (self *Healer) Health() Health {
	return CheckHealth(self.graph, self.options)
}

func CheckHealth(graph *Graph, options HealerOptions) Health {
	topology := graph.Topology()
	integrity := CheckIntegrity(graph)
	health := Health{
		Nodes:      topology.NodeCount(),
		Edges:      topology.EdgeCount(),
		Unassigned: integrity.Unassigned,
		Anomalies:  integrity.Anomalies() - integrity.Unassigned,
	}
	if health.Edges == 0 {
		health.Healthy = true
		return health
	}
	health.NodeRatio = float64(health.Nodes) / float64(health.Edges)
	health.ComponentShare = LargestComponentShare(topology)
	health.Healthy = health.Nodes > 0 &&
		health.Unassigned == 0 &&
		health.Anomalies == 0 &&
		health.NodeRatio >= options.MinNodeRatio &&
		health.ComponentShare >= options.MinComponentShare
	return health
}

// Heals the graph if it is unhealthy. Running Heal on a healthy graph changes
// nothing.
func (self *Healer) Heal(ctx context.Context) (HealReport, error) {
	v, err, _ := self.group.Do("heal", func() (any, error) {
		return self.heal(ctx)
	})
	if v == nil {
		return HealReport{}, err
	}
	return v.(HealReport), err
}

func (self *Healer) heal(ctx context.Context) (HealReport, error) {
	before := self.Health()
	report := HealReport{
		Before:    before,
		After:     before,
		Tolerance: self.graph.Topology().Tolerance(),
	}
	if before.Healthy {
		return report, nil
	}
	slog.Warn("graph unhealthy, healing",
		"nodes", before.Nodes,
		"edges", before.Edges,
		"unassigned", before.Unassigned,
		"anomalies", before.Anomalies,
		"component_share", before.ComponentShare,
	)

	for _, tolerance := range self.candidateTolerances(before) {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		topology := self.graph.Topology()
		nodes, edges, err := SnapEndpoints(topology.Edges(), tolerance)
		if err != nil {
			return report, err
		}
		self.graph.ReplaceTopology(NewTopology(nodes, edges, tolerance, self.graph.Area()))
		report.Steps += 1
		report.Changed = true
		report.Tolerance = tolerance
		report.After = self.Health()
		slog.Info("healing step",
			"tolerance", tolerance,
			"nodes", report.After.Nodes,
			"component_share", report.After.ComponentShare,
			"healthy", report.After.Healthy,
		)
		if report.After.Healthy {
			break
		}
	}

	if report.Changed && self.writer != nil {
		if err := self.writer.WriteTopology(ctx, self.graph); err != nil {
			return report, err
		}
	}
	if !report.After.Healthy {
		slog.Warn("graph still unhealthy after healing", "tolerance", report.Tolerance)
	}
	self.metrics.ObserveHeal(report.Changed)
	return report, nil
}

// Tolerances above the current one. A graph without nodes or with unassigned
// edges is re-snapped starting at the current tolerance. If no larger
// tolerance is left the current one is reused, which re-derives lengths and
// costs without changing the node structure.
func (self *Healer) candidateTolerances(health Health) []float64 {
	current := self.graph.Topology().Tolerance()
	rebuild := health.Nodes == 0 || health.Unassigned > 0
	candidates := make([]float64, 0, len(self.options.Tolerances))
	for _, tolerance := range self.options.Tolerances {
		if tolerance > current || (rebuild && tolerance == current) {
			candidates = append(candidates, tolerance)
		}
	}
	if len(candidates) == 0 && current > 0 {
		candidates = append(candidates, current)
	}
	return candidates
}
