package matcher

import (
	"context"

	"github.com/ttpr0/go-hybrid-routing/geo"
	"github.com/ttpr0/go-hybrid-routing/graph"
	"github.com/ttpr0/go-hybrid-routing/metrics"
	. "github.com/ttpr0/go-hybrid-routing/util"
	"golang.org/x/exp/slog"
)

// Persists new segment mappings.
type MappingWriter interface {
	InsertMappings(ctx context.Context, mappings []graph.Mapping) (int, error)
}

type MatchReport struct {
	References  int     `json:"references"`
	Probes      int     `json:"probes"`
	NewMappings int     `json:"new_mappings"`
	Matched     int     `json:"matched"`
	TotalEdges  int     `json:"total_edges"`
	Ratio       float64 `json:"ratio"`
}

//*******************************************
// matcher
//*******************************************

// Matcher links graph edges to live-traffic segments. An edge keeps the first
// segment it was linked to.
type Matcher struct {
	graph        *graph.Graph
	writer       MappingWriter
	max_distance float64
	metrics      *metrics.Metrics
}

// writer and m may be nil.
func NewMatcher(g *graph.Graph, writer MappingWriter, max_distance float64, m *metrics.Metrics) *Matcher {
	return &Matcher{
		graph:        g,
		writer:       writer,
		max_distance: max_distance,
		metrics:      m,
	}
}

// Links every unmapped edge running along a reference to its segment. An edge
// runs along a reference if its midpoint lies within the match distance of the
// reference line, or if it is the edge closest to one of the probe points
// placed along the reference. Edges that are already mapped are left alone and
// references are processed in ascending segment id, so repeated runs add
// nothing.
func (self *Matcher) Match(ctx context.Context, refs []Reference) (MatchReport, error) {
	report := MatchReport{
		References: len(refs),
		TotalEdges: self.graph.EdgeCount(),
	}
	index := NewEdgeIndex(self.graph.Topology(), self.max_distance/2)
	proj := index.Projection()

	pending := NewList[graph.Mapping](100)
	claimed := NewDict[int32, bool](100)
	claim := func(edge int32, segment int64) {
		if claimed[edge] || self.graph.IsMapped(edge) {
			return
		}
		claimed[edge] = true
		pending.Add(graph.Mapping{EdgeID: edge, SegmentID: segment})
	}
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		line := proj.LineToPlanar(ref.Coords)
		for _, edge := range index.AlongLine(line, self.max_distance) {
			claim(edge, ref.SegmentID)
		}
		for _, probe := range geo.Densify(line, self.max_distance) {
			report.Probes += 1
			if edge, _, ok := index.Nearest(probe, self.max_distance); ok {
				claim(edge, ref.SegmentID)
			}
		}
	}

	if self.writer != nil && pending.Length() > 0 {
		if _, err := self.writer.InsertMappings(ctx, pending); err != nil {
			return report, err
		}
	}
	for _, m := range pending {
		if self.graph.SetMapping(m.EdgeID, m.SegmentID) {
			report.NewMappings += 1
		}
	}

	report.Matched = self.graph.MappedCount()
	if report.TotalEdges > 0 {
		report.Ratio = float64(report.Matched) / float64(report.TotalEdges)
	}
	self.metrics.ObserveMatch(report.Matched, report.Ratio)
	slog.Info("reference matching finished",
		"references", report.References,
		"new", report.NewMappings,
		"matched", report.Matched,
		"edges", report.TotalEdges,
		"ratio", report.Ratio,
	)
	return report, nil
}
