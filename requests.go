package main

import (
	"encoding/json"
	"fmt"

	"github.com/ttpr0/go-hybrid-routing/corridor"
	"github.com/ttpr0/go-hybrid-routing/geo"
)

type RouteRequest struct {
	// [lon, lat]
	Start []float64 `json:"start"`
	// [lon, lat]
	End []float64 `json:"end"`
	// "fastest" (default) or "shortest"
	Mode string `json:"mode"`
}

// Route geometry given either as coordinate list or encoded polyline.
type GeometryParams struct {
	Coordinates [][]float64 `json:"coordinates"`
	Polyline    string      `json:"polyline"`
}

func (self GeometryParams) Line() (geo.CoordArray, error) {
	if self.Polyline != "" {
		return geo.DecodePolyline(self.Polyline)
	}
	if len(self.Coordinates) == 0 {
		return nil, fmt.Errorf("route geometry is missing")
	}
	line := make(geo.CoordArray, 0, len(self.Coordinates))
	for _, c := range self.Coordinates {
		coord, err := ParseCoord(c)
		if err != nil {
			return nil, err
		}
		line = append(line, coord)
	}
	return line, nil
}

type SampleRequest struct {
	GeometryParams
	// meters between samples, falls back to the configured interval
	Interval float64 `json:"interval"`
}

type CorridorRequest struct {
	GeometryParams
	Points []corridor.Point `json:"points"`
	// optional overrides of the configured tiers
	OnRoute float64 `json:"on_route"`
	Detour  float64 `json:"detour"`
}

// References in the provider's segment dump format. The configured
// references file is matched when empty.
type MatchRequest struct {
	References json.RawMessage `json:"references"`
}

type UpdateRequest struct{}

type HealthRequest struct{}

type HealRequest struct{}
