package graph

import (
	"github.com/paulmach/orb"
	"github.com/ttpr0/go-hybrid-routing/attr"
	"github.com/ttpr0/go-hybrid-routing/geo"
	. "github.com/ttpr0/go-hybrid-routing/util"
	"golang.org/x/exp/slog"
)

type IEdgeDecoder interface {
	IsValidHighway(tags Dict[string, string]) bool
	DecodeEdge(tags Dict[string, string]) attr.EdgeAttribs
}

type BuildOptions struct {
	// endpoint snap tolerance in meters
	Tolerance float64
	// service area bound
	Area orb.Bound
}

type BuildReport struct {
	Ways    int
	Skipped int
	Edges   int
	Nodes   int
}

//*******************************************
// build graph
//*******************************************

// Splits every drivable road into one edge per consecutive coordinate pair and
// snaps the edge endpoints into nodes.
func BuildGraph(roads []RoadGeometry, decoder IEdgeDecoder, options BuildOptions) (*Graph, BuildReport, error) {
	report := BuildReport{}
	if !(options.Tolerance > 0) {
		return nil, report, ErrInvalidTolerance
	}

	edges := NewList[Edge](len(roads) * 4)
	for _, road := range roads {
		report.Ways += 1
		if !decoder.IsValidHighway(road.Tags) {
			report.Skipped += 1
			continue
		}
		coords := validCoords(road.Coords)
		if len(coords) < 2 {
			report.Skipped += 1
			continue
		}
		attribs := decoder.DecodeEdge(road.Tags)
		for i := 0; i < len(coords)-1; i++ {
			edges.Add(Edge{
				NodeA:    NO_NODE,
				NodeB:    NO_NODE,
				WayID:    road.WayID,
				Type:     attribs.Type,
				Geometry: geo.CoordArray{coords[i], coords[i+1]},
				Maxspeed: attribs.Maxspeed,
			})
		}
	}
	if edges.Length() == 0 {
		return nil, report, ErrEmptyGraph
	}

	nodes, snapped, err := SnapEndpoints(Array[Edge](edges), options.Tolerance)
	if err != nil {
		return nil, report, err
	}
	report.Edges = snapped.Length()
	report.Nodes = nodes.Length()

	topology := NewTopology(nodes, snapped, options.Tolerance, options.Area)
	graph := NewGraph(topology, NewCosts(snapped), nil, options.Area)
	slog.Info("graph build finished",
		"ways", report.Ways,
		"skipped", report.Skipped,
		"edges", report.Edges,
		"nodes", report.Nodes,
	)
	return graph, report, nil
}

// Drops invalid and consecutive duplicate coordinates.
func validCoords(coords geo.CoordArray) geo.CoordArray {
	valid := make(geo.CoordArray, 0, len(coords))
	for _, c := range coords {
		if !geo.IsValidCoord(c) {
			continue
		}
		if len(valid) > 0 && valid[len(valid)-1] == c {
			continue
		}
		valid = append(valid, c)
	}
	return valid
}
