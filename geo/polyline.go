package geo

import (
	"errors"
	"fmt"

	"github.com/twpayne/go-polyline"
)

// Precision of the encoded polyline format in degrees.
const POLYLINE_PRECISION = 1e-5

var ErrInvalidPolyline = errors.New("invalid encoded polyline")

// Encodes the line using the encoded polyline algorithm (5 decimal places).
func EncodePolyline(line CoordArray) string {
	coords := make([][]float64, len(line))
	for i, c := range line {
		coords[i] = []float64{c[1], c[0]}
	}
	return string(polyline.EncodeCoords(coords))
}

func DecodePolyline(encoded string) (CoordArray, error) {
	if encoded == "" {
		return nil, ErrInvalidPolyline
	}
	coords, rest, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPolyline, err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrInvalidPolyline, len(rest))
	}
	line := make(CoordArray, len(coords))
	for i, c := range coords {
		line[i] = Coord{c[1], c[0]}
	}
	return line, nil
}
