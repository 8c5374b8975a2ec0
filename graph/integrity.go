package graph

import (
	"math"

	"golang.org/x/exp/slog"
)

type IntegrityReport struct {
	Unassigned  int
	BadCosts    int
	BadLengths  int
	MissingCost int
}

func (self IntegrityReport) Anomalies() int {
	return self.Unassigned + self.BadCosts + self.BadLengths + self.MissingCost
}

// Checks the invariants of every edge: both endpoints assigned, length >= 0
// and strictly positive finite costs. Anomalies are logged.
func CheckIntegrity(graph *Graph) IntegrityReport {
	topology := graph.Topology()
	costs := graph.Costs()
	report := IntegrityReport{}
	if costs.Length() != topology.EdgeCount() {
		report.MissingCost = topology.EdgeCount()
	}
	for i, edge := range topology.Edges() {
		if !edge.IsAssigned() {
			report.Unassigned += 1
		}
		if math.IsNaN(edge.Length) || edge.Length < 0 {
			report.BadLengths += 1
		}
		if report.MissingCost > 0 {
			continue
		}
		fwd := costs.GetForwardCost(int32(i))
		bwd := costs.GetBackwardCost(int32(i))
		if !isPositive(fwd) || !isPositive(bwd) {
			report.BadCosts += 1
		}
	}
	if report.Anomalies() > 0 {
		slog.Warn("graph integrity anomalies",
			"unassigned", report.Unassigned,
			"bad_costs", report.BadCosts,
			"bad_lengths", report.BadLengths,
			"missing_costs", report.MissingCost,
		)
	}
	return report
}

func isPositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
