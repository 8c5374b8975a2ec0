package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

func NewLineFeature(line CoordArray, props map[string]any) *geojson.Feature {
	feature := geojson.NewFeature(orb.LineString(line))
	for k, v := range props {
		feature.Properties[k] = v
	}
	return feature
}
