package corridor

import (
	"errors"
	"math"

	"github.com/paulmach/orb"
	"github.com/ttpr0/go-hybrid-routing/geo"
)

var (
	ErrEmptyRoute      = errors.New("route geometry is empty")
	ErrInvalidInterval = errors.New("sample interval must be positive")
)

type Sample struct {
	Coord geo.Coord `json:"coord"`
	// cumulative distance from the route start in meters
	Distance float64 `json:"distance"`
}

// Walks the route in steps of interval meters and emits a sample at the start
// and after every step. The endpoint is appended when it lies more than
// tail_gap meters beyond the last regular sample.
func SampleRoute(coords geo.CoordArray, interval float64, tail_gap float64) ([]Sample, error) {
	if len(coords) == 0 {
		return nil, ErrEmptyRoute
	}
	if !(interval > 0) {
		return nil, ErrInvalidInterval
	}
	proj := geo.ProjectionFor(coords)
	line := proj.LineToPlanar(coords)

	samples := make([]Sample, 0, 16)
	samples = append(samples, Sample{Coord: coords[0], Distance: 0})
	next := interval
	total := 0.0
	for i := 1; i < len(line); i++ {
		a := line[i-1]
		b := line[i]
		length := math.Hypot(b[0]-a[0], b[1]-a[1])
		if length == 0 {
			continue
		}
		for next <= total+length {
			t := (next - total) / length
			p := orb.Point{a[0] + t*(b[0]-a[0]), a[1] + t*(b[1]-a[1])}
			samples = append(samples, Sample{Coord: proj.ToGeo(p), Distance: next})
			next += interval
		}
		total += length
	}

	last := samples[len(samples)-1]
	if total-last.Distance > tail_gap {
		samples = append(samples, Sample{Coord: coords[len(coords)-1], Distance: total})
	}
	return samples, nil
}
