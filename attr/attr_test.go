package attr

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSpeedIsMonotonic(t *testing.T) {
	order := []RoadType{MOTORWAY, TRUNK, PRIMARY, SECONDARY, TERTIARY, RESIDENTIAL, SERVICE, TRACK, LIVING_STREET}
	for i := 1; i < len(order); i++ {
		assert.GreaterOrEqual(t, DefaultSpeed(order[i-1]), DefaultSpeed(order[i]), "%v vs %v", order[i-1], order[i])
	}
	assert.Equal(t, 110.0, DefaultSpeed(MOTORWAY))
	assert.Equal(t, 70.0, DefaultSpeed(PRIMARY))
	assert.Equal(t, 30.0, DefaultSpeed(RESIDENTIAL))
	assert.Equal(t, 20.0, DefaultSpeed(SERVICE))
}

func TestTravelSpeed(t *testing.T) {
	tests := []struct {
		typ      RoadType
		maxspeed string
		want     float64
	}{
		{RESIDENTIAL, "", 30},
		{PRIMARY, "50", 50},
		{PRIMARY, "30 mph", 30 * MPH_TO_KMH},
		{PRIMARY, "walk", 10},
		{MOTORWAY, "none", 130},
		{SECONDARY, "signals", 60},
		{SECONDARY, "-5", 60},
		{SERVICE, "1", FLOOR_SPEED},
		{PRIMARY, "NaN", 70},
		{PRIMARY, "nan mph", 70},
		{PRIMARY, "inf", 70},
		{PRIMARY, "-Infinity", 70},
		{PRIMARY, "1e400", 70},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, TravelSpeed(tt.typ, tt.maxspeed), 1e-9, "%v %q", tt.typ, tt.maxspeed)
	}
}

func TestRoadTypeRoundTrip(t *testing.T) {
	for typ := MOTORWAY; typ <= SERVICE; typ++ {
		assert.Equal(t, typ, RoadTypeFromString(typ.String()))
	}
	assert.Equal(t, RoadType(0), RoadTypeFromString("footway"))
}

func TestRoadTypeJSON(t *testing.T) {
	data, err := json.Marshal(TRUNK_LINK)
	require.NoError(t, err)
	assert.Equal(t, `"trunk_link"`, string(data))

	var typ RoadType
	require.NoError(t, json.Unmarshal([]byte(`"service"`), &typ))
	assert.Equal(t, SERVICE, typ)
	assert.Error(t, json.Unmarshal([]byte(`"footway"`), &typ))
	assert.Equal(t, "", RoadType(42).String())
}
