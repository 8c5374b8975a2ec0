package main

import (
	"github.com/paulmach/orb/geojson"
	"github.com/ttpr0/go-hybrid-routing/corridor"
	"github.com/ttpr0/go-hybrid-routing/graph"
	"github.com/ttpr0/go-hybrid-routing/matcher"
	"github.com/ttpr0/go-hybrid-routing/routing"
	"github.com/ttpr0/go-hybrid-routing/traffic"
)

type ErrorResponse struct {
	Request string `json:"request"`
	Error   any    `json:"error"`
}

func NewErrorResponse(request string, error any) ErrorResponse {
	return ErrorResponse{
		Request: request,
		Error:   error,
	}
}

type RouteSummary struct {
	Distance   float64            `json:"distance"`
	Duration   float64            `json:"duration"`
	Mode       routing.CostMode   `json:"mode"`
	Provenance routing.Provenance `json:"provenance"`
}

type RouteResponse struct {
	Route    *geojson.Feature `json:"route"`
	Polyline string           `json:"polyline"`
	Summary  RouteSummary     `json:"summary"`
}

func NewRouteResponse(result routing.RouteResult) RouteResponse {
	return RouteResponse{
		Route:    routeFeature(result),
		Polyline: result.Polyline,
		Summary: RouteSummary{
			Distance:   result.Distance,
			Duration:   result.Duration,
			Mode:       result.Mode,
			Provenance: result.Provenance,
		},
	}
}

type SampleResponse struct {
	Samples []corridor.Sample `json:"samples"`
	Count   int               `json:"count"`
}

type CorridorResponse struct {
	Matches []corridor.Match `json:"matches"`
	Count   int              `json:"count"`
}

type HealthResponse struct {
	Graph  graph.Health `json:"graph"`
	Mapped int          `json:"mapped"`
}

type HealResponse struct {
	Report graph.HealReport `json:"report"`
}

type MatchResponse struct {
	Report matcher.MatchReport `json:"report"`
}

type CycleResponse struct {
	Report traffic.CycleReport `json:"report"`
}
