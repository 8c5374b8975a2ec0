package attr

//*******************************************
// edge attributes
//*******************************************

type EdgeAttribs struct {
	Type RoadType
	// speed limit in km/h
	Maxspeed float64
}
