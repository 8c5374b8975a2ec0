package parser

import (
	"github.com/ttpr0/go-hybrid-routing/attr"
)

//*******************************************
// utility methods
//*******************************************

func _GetTravelSpeed(streettype attr.RoadType, maxspeed string, tracktype string, surface string) float64 {
	speed := attr.TravelSpeed(streettype, maxspeed)
	if _, ok := attr.ParseMaxspeed(maxspeed); !ok && streettype == attr.TRACK {
		speed = _GetTrackSpeed(tracktype)
	}
	if limit, ok := _GetSurfaceLimit(surface); ok && speed > limit {
		speed = limit
	}
	return speed
}

func _GetTrackSpeed(tracktype string) float64 {
	switch tracktype {
	case "grade1":
		return 40
	case "grade2":
		return 30
	case "grade3":
		return 20
	case "grade4":
		return 15
	case "grade5":
		return 10
	}
	return attr.DefaultSpeed(attr.TRACK)
}

func _GetSurfaceLimit(surface string) (float64, bool) {
	switch surface {
	case "cement", "compacted":
		return 80, true
	case "fine_gravel":
		return 60, true
	case "paving_stones", "metal", "bricks":
		return 40, true
	case "grass", "wood", "sett", "grass_paver", "gravel", "unpaved", "ground", "dirt", "pebblestone", "tartan":
		return 30, true
	case "cobblestone", "clay":
		return 20, true
	case "earth", "stone", "rocky", "sand":
		return 15, true
	case "mud":
		return 10, true
	}
	return 0, false
}
