package attr

import (
	"encoding/json"
	"fmt"
	"strings"
)

//*******************************************
// road types
//*******************************************

// Drivable OSM highway classes. The zero value marks a non-drivable way.
type RoadType int8

const (
	MOTORWAY RoadType = iota + 1
	MOTORWAY_LINK
	TRUNK
	TRUNK_LINK
	PRIMARY
	PRIMARY_LINK
	SECONDARY
	SECONDARY_LINK
	TERTIARY
	TERTIARY_LINK
	RESIDENTIAL
	LIVING_STREET
	UNCLASSIFIED
	ROAD
	TRACK
	SERVICE
)

// indexed by RoadType
var road_type_names = [...]string{
	"", "motorway", "motorway_link", "trunk", "trunk_link", "primary", "primary_link",
	"secondary", "secondary_link", "tertiary", "tertiary_link", "residential",
	"living_street", "unclassified", "road", "track", "service",
}

var road_type_values = func() map[string]RoadType {
	values := make(map[string]RoadType, len(road_type_names))
	for i, name := range road_type_names[1:] {
		values[name] = RoadType(i + 1)
	}
	return values
}()

func (self RoadType) String() string {
	if self <= 0 || int(self) >= len(road_type_names) {
		return ""
	}
	return road_type_names[self]
}

// Returns 0 for highway values that are not part of the drivable network.
func RoadTypeFromString(typ string) RoadType {
	return road_type_values[strings.TrimSpace(typ)]
}

func (self RoadType) MarshalJSON() ([]byte, error) {
	return json.Marshal(self.String())
}

func (self *RoadType) UnmarshalJSON(data []byte) error {
	var typ string
	if err := json.Unmarshal(data, &typ); err != nil {
		return err
	}
	return self.parse(typ)
}

func (self *RoadType) parse(typ string) error {
	road_type := RoadTypeFromString(typ)
	if road_type == 0 {
		return fmt.Errorf("invalid road type %q", typ)
	}
	*self = road_type
	return nil
}
