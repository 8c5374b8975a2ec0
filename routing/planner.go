package routing

import (
	"context"
	"errors"
	"fmt"

	"github.com/ttpr0/go-hybrid-routing/geo"
	"github.com/ttpr0/go-hybrid-routing/graph"
	"github.com/ttpr0/go-hybrid-routing/metrics"
	"golang.org/x/exp/slog"
)

var (
	ErrNoRoute           = errors.New("no route between the given coordinates")
	ErrOutsideArea       = errors.New("coordinates outside the service area")
	ErrInvalidCoordinate = errors.New("invalid coordinate")
)

type RouteResult struct {
	Coordinates geo.CoordArray `json:"coordinates"`
	Polyline    string         `json:"polyline"`
	Distance    float64        `json:"distance"`
	Duration    float64        `json:"duration"`
	Mode        CostMode       `json:"mode"`
	Provenance  Provenance     `json:"provenance"`
}

//*******************************************
// hybrid planner
//*******************************************

// Planner answers route requests on the local graph when both endpoints are
// inside the service area and delegates to the remote router otherwise or
// when the local graph has no connection.
type Planner struct {
	graph   *graph.Graph
	remote  RemoteRouter
	metrics *metrics.Metrics
}

// remote and m may be nil.
func NewPlanner(g *graph.Graph, remote RemoteRouter, m *metrics.Metrics) *Planner {
	return &Planner{
		graph:   g,
		remote:  remote,
		metrics: m,
	}
}

func (self *Planner) Plan(ctx context.Context, origin, destination geo.Coord, mode CostMode) (RouteResult, error) {
	if !geo.IsValidCoord(origin) || !geo.IsValidCoord(destination) {
		return RouteResult{}, ErrInvalidCoordinate
	}

	var local_err error
	if self.InArea(origin) && self.InArea(destination) {
		result, err := self.PlanLocal(origin, destination, mode)
		if err == nil {
			self.metrics.ObserveRoute(result.Provenance.String(), mode.String())
			return result, nil
		}
		local_err = err
	} else {
		local_err = ErrOutsideArea
	}

	reason := "no_route"
	if errors.Is(local_err, ErrOutsideArea) {
		reason = "outside_area"
	}
	if self.remote == nil {
		return RouteResult{}, local_err
	}
	self.metrics.ObserveFallback(reason)
	slog.Info("routing via remote provider", "reason", reason)

	route, err := self.remote.Route(ctx, origin, destination)
	if err != nil {
		return RouteResult{}, fmt.Errorf("remote fallback (%s): %w", reason, err)
	}
	result := RouteResult{
		Coordinates: route.Coordinates,
		Polyline:    geo.EncodePolyline(route.Coordinates),
		Distance:    route.Distance,
		Duration:    route.Duration,
		Mode:        mode,
		Provenance:  REMOTE,
	}
	self.metrics.ObserveRoute(result.Provenance.String(), mode.String())
	return result, nil
}

func (self *Planner) InArea(c geo.Coord) bool {
	return self.graph.Area().Contains(c)
}

// Routes on the local graph only. Returns ErrNoRoute if the snapped endpoints
// are not connected.
func (self *Planner) PlanLocal(origin, destination geo.Coord, mode CostMode) (RouteResult, error) {
	if !self.InArea(origin) || !self.InArea(destination) {
		return RouteResult{}, ErrOutsideArea
	}
	topology := self.graph.Topology()
	costs := self.graph.Costs()

	start, ok := topology.GetClosestNode(origin)
	if !ok {
		return RouteResult{}, ErrNoRoute
	}
	end, ok := topology.GetClosestNode(destination)
	if !ok {
		return RouteResult{}, ErrNoRoute
	}

	var alg IShortestPath = NewDijkstra(topology, NewWeighting(mode, topology, costs), start, end)
	if !alg.CalcShortestPath() {
		return RouteResult{}, ErrNoRoute
	}
	path := alg.GetShortestPath()
	coords := path.GetGeometry()
	return RouteResult{
		Coordinates: coords,
		Polyline:    geo.EncodePolyline(coords),
		Distance:    path.GetDistance(),
		Duration:    path.GetDuration(costs),
		Mode:        mode,
		Provenance:  LOCAL,
	}, nil
}
