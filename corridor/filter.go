package corridor

import (
	"errors"
	"fmt"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/ttpr0/go-hybrid-routing/geo"
	"golang.org/x/exp/slog"
)

var ErrInvalidTiers = errors.New("corridor tiers must satisfy 0 <= on-route <= detour")

// Tier thresholds in meters.
type Tiers struct {
	OnRoute float64 `yaml:"on-route"`
	Detour  float64 `yaml:"detour"`
}

func DefaultTiers() Tiers {
	return Tiers{
		OnRoute: 500,
		Detour:  3000,
	}
}

func (self Tiers) Validate() error {
	if self.OnRoute < 0 || self.OnRoute > self.Detour {
		return ErrInvalidTiers
	}
	return nil
}

// Classify returns the tier for a distance or false if it is beyond the
// detour threshold.
func (self Tiers) Classify(distance float64) (Tier, bool) {
	if distance <= self.OnRoute {
		return ON_ROUTE, true
	}
	if distance <= self.Detour {
		return DETOUR, true
	}
	return 0, false
}

// Point of interest. Missing coordinates are kept as nil.
type Point struct {
	Name  string         `json:"name" csv:"name"`
	Lat   *float64       `json:"lat" csv:"lat"`
	Lon   *float64       `json:"lon" csv:"lon"`
	Props map[string]any `json:"props,omitempty"`
}

func (self Point) Coord() (geo.Coord, bool) {
	if self.Lat == nil || self.Lon == nil {
		return geo.Coord{}, false
	}
	c := geo.Coord{*self.Lon, *self.Lat}
	return c, geo.IsValidCoord(c)
}

type Match struct {
	Point    Point   `json:"point"`
	Distance float64 `json:"distance"`
	Tier     Tier    `json:"tier"`
	Label    string  `json:"label"`
}

//*******************************************
// corridor filter
//*******************************************

// Keeps the points within the detour threshold of the route, annotated with
// distance and tier and ordered by ascending distance. Points without a valid
// coordinate are skipped.
func FilterByCorridor(points []Point, coords geo.CoordArray, tiers Tiers) ([]Match, error) {
	if len(coords) == 0 {
		return nil, ErrEmptyRoute
	}
	if err := tiers.Validate(); err != nil {
		return nil, err
	}
	proj := geo.ProjectionFor(coords)
	line := proj.LineToPlanar(coords)

	matches := make([]Match, 0, len(points))
	skipped := 0
	for _, point := range points {
		c, ok := point.Coord()
		if !ok {
			skipped += 1
			continue
		}
		distance := distanceToLine(line, proj.ToPlanar(c))
		tier, ok := tiers.Classify(distance)
		if !ok {
			continue
		}
		matches = append(matches, Match{
			Point:    point,
			Distance: distance,
			Tier:     tier,
			Label:    FormatDistance(distance, tier),
		})
	}
	if skipped > 0 {
		slog.Warn("skipped points without valid coordinates", "skipped", skipped)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	return matches, nil
}

func distanceToLine(line orb.LineString, p orb.Point) float64 {
	if len(line) == 1 {
		return planar.Distance(line[0], p)
	}
	return planar.DistanceFrom(line, p)
}

// Human readable distance: whole meters on the route, kilometers with one
// decimal for detours.
func FormatDistance(distance float64, tier Tier) string {
	if tier == ON_ROUTE {
		return fmt.Sprintf("%d m", int(distance))
	}
	return fmt.Sprintf("%.1f km", distance/1000)
}
