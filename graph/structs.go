package graph

import (
	"errors"

	"github.com/ttpr0/go-hybrid-routing/attr"
	"github.com/ttpr0/go-hybrid-routing/geo"
	. "github.com/ttpr0/go-hybrid-routing/util"
)

var (
	ErrEmptyGraph       = errors.New("graph contains no edges")
	ErrInvalidTolerance = errors.New("snap tolerance must be positive")
)

// marks an unassigned edge endpoint
const NO_NODE int32 = -1

//*******************************************
// graph structs
//*******************************************

type Node struct {
	Loc geo.Coord
}

// Edge is a single road segment. Its geometry always runs from NodeA (source)
// to NodeB (target).
type Edge struct {
	NodeA    int32
	NodeB    int32
	WayID    int64
	Type     attr.RoadType
	Geometry geo.CoordArray
	// geodesic length in meters
	Length float64
	// static speed limit in km/h
	Maxspeed float64
}

func (self Edge) IsAssigned() bool {
	return self.NodeA != NO_NODE && self.NodeB != NO_NODE
}

type EdgeRef struct {
	EdgeID  int32
	OtherID int32
	// true if the edge is traversed from NodeA to NodeB
	Forward bool
}

//*******************************************
// input and update structs
//*******************************************

// Raw road polyline with its OSM tags.
type RoadGeometry struct {
	WayID  int64
	Coords geo.CoordArray
	Tags   Dict[string, string]
}

// Live speed observation for an external segment.
type SpeedSample struct {
	SegmentID int64
	Speed     float64
}

// Link between an internal edge and an external traffic segment.
type Mapping struct {
	EdgeID    int32
	SegmentID int64
}
