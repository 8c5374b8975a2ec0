package parser

import (
	"github.com/ttpr0/go-hybrid-routing/attr"
	. "github.com/ttpr0/go-hybrid-routing/util"
)

type DrivingDecoder struct {
}

var driving_types = Dict[string, bool]{"motorway": true, "motorway_link": true, "trunk": true, "trunk_link": true,
	"primary": true, "primary_link": true, "secondary": true, "secondary_link": true, "tertiary": true, "tertiary_link": true,
	"residential": true, "living_street": true, "service": true, "track": true, "unclassified": true, "road": true}

// pedestrian-only and non-road highway values
var excluded_types = Dict[string, bool]{"footway": true, "pedestrian": true, "steps": true, "corridor": true,
	"path": true, "cycleway": true, "bridleway": true, "elevator": true, "platform": true}

func (self *DrivingDecoder) IsValidHighway(tags Dict[string, string]) bool {
	if !tags.ContainsKey("highway") {
		return false
	}
	typ := tags.Get("highway")
	if excluded_types.ContainsKey(typ) {
		return false
	}
	if !driving_types.ContainsKey(typ) {
		return false
	}
	if access := tags.Get("motor_vehicle"); access == "no" {
		return false
	}
	return true
}
func (self *DrivingDecoder) DecodeEdge(tags Dict[string, string]) attr.EdgeAttribs {
	maxspeed := tags.Get("maxspeed")
	str_type := tags.Get("highway")
	track_type := tags.Get("tracktype")
	surface := tags.Get("surface")
	e := attr.EdgeAttribs{}
	e.Type = attr.RoadTypeFromString(str_type)
	e.Maxspeed = _GetTravelSpeed(e.Type, maxspeed, track_type, surface)
	return e
}
