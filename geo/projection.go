package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// LocalProjection maps WGS84 coordinates onto a plane whose units are meters
// around a reference latitude. Web-mercator is rescaled by cos(ref_lat), which
// removes the mercator stretch at the reference latitude.
type LocalProjection struct {
	scale float64
}

func NewLocalProjection(ref_lat float64) LocalProjection {
	scale := math.Cos(ref_lat * math.Pi / 180)
	if scale < 1e-6 {
		scale = 1e-6
	}
	return LocalProjection{scale: scale}
}

// Projection centered on the mean latitude of the given coordinates.
func ProjectionFor(coords ...CoordArray) LocalProjection {
	sum := 0.0
	count := 0
	for _, line := range coords {
		for _, c := range line {
			sum += c[1]
			count += 1
		}
	}
	if count == 0 {
		return NewLocalProjection(0)
	}
	return NewLocalProjection(sum / float64(count))
}

func (self LocalProjection) ToPlanar(c Coord) orb.Point {
	m := project.WGS84.ToMercator(c)
	return orb.Point{m[0] * self.scale, m[1] * self.scale}
}

func (self LocalProjection) ToGeo(p orb.Point) Coord {
	return project.Mercator.ToWGS84(orb.Point{p[0] / self.scale, p[1] / self.scale})
}

func (self LocalProjection) LineToPlanar(line CoordArray) orb.LineString {
	planar := make(orb.LineString, len(line))
	for i, c := range line {
		planar[i] = self.ToPlanar(c)
	}
	return planar
}

// Points along a planar line with at most spacing units between neighbours.
// Every vertex is included.
func Densify(line orb.LineString, spacing float64) []orb.Point {
	if len(line) == 0 {
		return nil
	}
	points := make([]orb.Point, 0, len(line))
	points = append(points, line[0])
	for i := 1; i < len(line); i++ {
		a := line[i-1]
		b := line[i]
		steps := 1
		if spacing > 0 {
			steps = int(math.Ceil(math.Hypot(b[0]-a[0], b[1]-a[1]) / spacing))
			if steps < 1 {
				steps = 1
			}
		}
		for s := 1; s <= steps; s++ {
			t := float64(s) / float64(steps)
			points = append(points, orb.Point{a[0] + t*(b[0]-a[0]), a[1] + t*(b[1]-a[1])})
		}
	}
	return points
}
