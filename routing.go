package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/ttpr0/go-hybrid-routing/corridor"
	"github.com/ttpr0/go-hybrid-routing/geo"
	"github.com/ttpr0/go-hybrid-routing/matcher"
	"github.com/ttpr0/go-hybrid-routing/routing"
	"golang.org/x/exp/slog"
)

func NotFound[T any](value T) Result {
	return Result{
		result: value,
		status: http.StatusNotFound,
	}
}

// Registers the api endpoints of the manager.
func (self *RoutingManager) MapRoutes(app *Registry) error {
	return errors.Join(
		MapPost(app, "/v1/route", self.HandleRoute),
		MapPost(app, "/v1/sample", self.HandleSample),
		MapPost(app, "/v1/corridor", self.HandleCorridor),
		MapPost(app, "/v1/heal", self.HandleHeal),
		MapPost(app, "/v1/match", self.HandleMatch),
		MapPost(app, "/v1/update", self.HandleUpdate),
		MapGet(app, "/v1/health", self.HandleHealth),
	)
}

func (self *RoutingManager) HandleRoute(ctx context.Context, req RouteRequest) Result {
	start, err := ParseCoord(req.Start)
	if err != nil {
		return BadRequest("invalid start: " + err.Error())
	}
	end, err := ParseCoord(req.End)
	if err != nil {
		return BadRequest("invalid end: " + err.Error())
	}
	mode, err := routing.CostModeFromString(req.Mode)
	if err != nil {
		return BadRequest(err.Error())
	}
	result, err := self.planner.Plan(ctx, start, end, mode)
	switch {
	case err == nil:
		return OK(NewRouteResponse(result))
	case errors.Is(err, routing.ErrInvalidCoordinate):
		return BadRequest(err.Error())
	case errors.Is(err, routing.ErrNoRoute), errors.Is(err, routing.ErrOutsideArea):
		return NotFound(err.Error())
	case errors.Is(err, routing.ErrAllProvidersFailed), errors.Is(err, routing.ErrRemoteNoRoute):
		return Unavailable(err.Error())
	}
	slog.Error("failed to plan route", "error", err)
	return InternalError(err.Error())
}

func (self *RoutingManager) HandleSample(ctx context.Context, req SampleRequest) Result {
	line, err := req.Line()
	if err != nil {
		return BadRequest(err.Error())
	}
	interval := req.Interval
	if interval == 0 {
		interval = self.config.Corridor.SampleInterval
	}
	samples, err := corridor.SampleRoute(line, interval, self.config.Corridor.TailGap)
	if err != nil {
		return BadRequest(err.Error())
	}
	return OK(SampleResponse{Samples: samples, Count: len(samples)})
}

func (self *RoutingManager) HandleCorridor(ctx context.Context, req CorridorRequest) Result {
	line, err := req.Line()
	if err != nil {
		return BadRequest(err.Error())
	}
	tiers := self.config.Corridor.Tiers()
	if req.OnRoute != 0 {
		tiers.OnRoute = req.OnRoute
	}
	if req.Detour != 0 {
		tiers.Detour = req.Detour
	}
	matches, err := corridor.FilterByCorridor(req.Points, line, tiers)
	if err != nil {
		return BadRequest(err.Error())
	}
	return OK(CorridorResponse{Matches: matches, Count: len(matches)})
}

func (self *RoutingManager) HandleHealth(ctx context.Context, req HealthRequest) Result {
	return OK(HealthResponse{
		Graph:  self.healer.Health(),
		Mapped: self.graph.MappedCount(),
	})
}

func (self *RoutingManager) HandleHeal(ctx context.Context, req HealRequest) Result {
	report, err := self.healer.Heal(ctx)
	if err != nil {
		slog.Error("failed to heal graph", "error", err)
		return InternalError(err.Error())
	}
	return OK(HealResponse{Report: report})
}

func (self *RoutingManager) HandleMatch(ctx context.Context, req MatchRequest) Result {
	var report matcher.MatchReport
	var err error
	if len(req.References) == 0 || string(req.References) == "null" {
		if self.config.Source.References == "" {
			return BadRequest("no references given and none configured")
		}
		report, err = self.MatchReferences(ctx, "")
	} else {
		refs, perr := matcher.ParseReferences(req.References)
		if perr != nil {
			return BadRequest(perr.Error())
		}
		report, err = self.matcher.Match(ctx, refs)
	}
	if err != nil {
		slog.Error("failed to match references", "error", err)
		return InternalError(err.Error())
	}
	return OK(MatchResponse{Report: report})
}

func (self *RoutingManager) HandleUpdate(ctx context.Context, req UpdateRequest) Result {
	if self.updater == nil {
		return Unavailable("no traffic feed configured")
	}
	report, err := self.updater.RunCycle(ctx)
	if err != nil {
		return Unavailable(err.Error())
	}
	return OK(CycleResponse{Report: report})
}

// Plans a route and filters the points along it.
func (self *RoutingManager) PointsAlongRoute(ctx context.Context, points []corridor.Point, start, end geo.Coord, mode routing.CostMode) (routing.RouteResult, []corridor.Match, error) {
	result, err := self.planner.Plan(ctx, start, end, mode)
	if err != nil {
		return result, nil, err
	}
	matches, err := corridor.FilterByCorridor(points, result.Coordinates, self.config.Corridor.Tiers())
	return result, matches, err
}
