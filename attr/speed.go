package attr

import (
	"math"
	"strconv"
	"strings"
)

// Lowest speed (km/h) ever assigned to an edge. Live samples at or below zero
// are replaced by it so congested edges stay traversable.
const FLOOR_SPEED = 3.0

const MPH_TO_KMH = 1.609344

// Default speed by road class in km/h. Values decrease with road importance.
func DefaultSpeed(typ RoadType) float64 {
	switch typ {
	case MOTORWAY:
		return 110
	case TRUNK:
		return 90
	case MOTORWAY_LINK, TRUNK_LINK:
		return 60
	case PRIMARY:
		return 70
	case PRIMARY_LINK:
		return 50
	case SECONDARY:
		return 60
	case SECONDARY_LINK:
		return 45
	case TERTIARY:
		return 50
	case TERTIARY_LINK:
		return 40
	case UNCLASSIFIED, RESIDENTIAL:
		return 30
	case ROAD:
		return 25
	case SERVICE:
		return 20
	case TRACK:
		return 15
	case LIVING_STREET:
		return 10
	}
	return 20
}

// Parses an OSM maxspeed value ("50", "30 mph", "walk", "none").
//
// Returns false if the value is empty or cannot be interpreted.
func ParseMaxspeed(maxspeed string) (float64, bool) {
	maxspeed = strings.TrimSpace(maxspeed)
	switch maxspeed {
	case "":
		return 0, false
	case "walk":
		return 10, true
	case "none":
		return 130, true
	}
	factor := 1.0
	if strings.HasSuffix(maxspeed, "mph") {
		factor = MPH_TO_KMH
		maxspeed = strings.TrimSpace(strings.TrimSuffix(maxspeed, "mph"))
	} else if strings.HasSuffix(maxspeed, "km/h") {
		maxspeed = strings.TrimSpace(strings.TrimSuffix(maxspeed, "km/h"))
	}
	value, err := strconv.ParseFloat(maxspeed, 64)
	if err != nil || !(value > 0) || math.IsInf(value, 0) {
		return 0, false
	}
	return value * factor, true
}

// Travel speed in km/h derived from an explicit limit or the road class.
func TravelSpeed(typ RoadType, maxspeed string) float64 {
	if speed, ok := ParseMaxspeed(maxspeed); ok {
		if speed < FLOOR_SPEED {
			return FLOOR_SPEED
		}
		return speed
	}
	return DefaultSpeed(typ)
}
