package main

import (
	"fmt"

	"github.com/paulmach/orb/geojson"
	"github.com/ttpr0/go-hybrid-routing/geo"
	"github.com/ttpr0/go-hybrid-routing/routing"
)

// Parses a [lon, lat] pair.
func ParseCoord(c []float64) (geo.Coord, error) {
	if len(c) != 2 {
		return geo.Coord{}, fmt.Errorf("coordinate needs two values, got %d", len(c))
	}
	coord := geo.Coord{c[0], c[1]}
	if !geo.IsValidCoord(coord) {
		return geo.Coord{}, fmt.Errorf("coordinate %v is out of range", c)
	}
	return coord, nil
}

func routeFeature(result routing.RouteResult) *geojson.Feature {
	return geo.NewLineFeature(result.Coordinates, map[string]any{
		"distance":   result.Distance,
		"duration":   result.Duration,
		"mode":       result.Mode.String(),
		"provenance": result.Provenance.String(),
	})
}
