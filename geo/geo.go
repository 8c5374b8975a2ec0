// Package geo holds the coordinate types shared by all packages together with
// the distance, projection and encoding helpers built on paulmach/orb.
package geo

import (
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

//*******************************************
// coordinate types
//*******************************************

// Coord is a [lon, lat] pair in WGS84 degrees.
type Coord = orb.Point

type CoordArray = orb.LineString

func IsValidCoord(c Coord) bool {
	lon, lat := c[0], c[1]
	if math.IsNaN(lon) || math.IsNaN(lat) || math.IsInf(lon, 0) || math.IsInf(lat, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

//*******************************************
// geodesic distances
//*******************************************

// Haversine distance in meters.
func Distance(a, b Coord) float64 {
	return orbgeo.DistanceHaversine(a, b)
}

// Haversine length of the line in meters.
func Length(line CoordArray) float64 {
	return orbgeo.LengthHaversine(line)
}

//*******************************************
// service area
//*******************************************

func NewBound(min_lon, min_lat, max_lon, max_lat float64) orb.Bound {
	return orb.Bound{
		Min: orb.Point{min_lon, min_lat},
		Max: orb.Point{max_lon, max_lat},
	}
}

// True if every vertex of the line lies within the bound.
func LineWithin(bound orb.Bound, line CoordArray) bool {
	if len(line) == 0 {
		return false
	}
	for _, c := range line {
		if !bound.Contains(c) {
			return false
		}
	}
	return true
}
