package matcher

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ttpr0/go-hybrid-routing/geo"
	"github.com/ttpr0/go-hybrid-routing/graph"
	"github.com/ttpr0/go-hybrid-routing/parser"
	"github.com/ttpr0/go-hybrid-routing/store"
	. "github.com/ttpr0/go-hybrid-routing/util"
)

var testArea = geo.NewBound(36.15, 41.20, 36.45, 41.45)

func buildTestGraph(t *testing.T) *graph.Graph {
	t.Helper()
	tags := Dict[string, string]{"highway": "residential"}
	roads := []graph.RoadGeometry{
		{WayID: 1, Coords: geo.CoordArray{{36.300, 41.3}, {36.301, 41.3}}, Tags: tags},
		{WayID: 2, Coords: geo.CoordArray{{36.30106, 41.3}, {36.302, 41.3}}, Tags: tags},
		{WayID: 3, Coords: geo.CoordArray{{36.30206, 41.3}, {36.303, 41.3}}, Tags: tags},
	}
	g, _, err := graph.BuildGraph(roads, &parser.DrivingDecoder{}, graph.BuildOptions{Tolerance: 10, Area: testArea})
	require.NoError(t, err)
	return g
}

func TestLoadReferencesSkipsMalformed(t *testing.T) {
	refs, err := LoadReferences("testdata/references.json")
	require.NoError(t, err)
	require.Len(t, refs, 3)

	assert.Equal(t, int64(100), refs[0].SegmentID)
	assert.Equal(t, int64(200), refs[1].SegmentID)
	assert.Equal(t, int64(300), refs[2].SegmentID)
	// [lat, lon] pairs become [lon, lat] coordinates
	assert.Equal(t, geo.Coord{36.3002, 41.300045}, refs[1].Coords[0])
}

func TestParseReferencesErrors(t *testing.T) {
	_, err := ParseReferences([]byte(`{"S": 1}`))
	assert.Error(t, err)

	_, err = ParseReferences([]byte(`[{"S": 1, "G": "[]"}]`))
	assert.ErrorIs(t, err, ErrNoReferences)
}

func TestMatchLinksNearestEdges(t *testing.T) {
	g := buildTestGraph(t)
	refs, err := LoadReferences("testdata/references.json")
	require.NoError(t, err)

	report, err := NewMatcher(g, nil, 20, nil).Match(context.Background(), refs)
	require.NoError(t, err)

	assert.Equal(t, 3, report.References)
	assert.Equal(t, 2, report.NewMappings)
	assert.Equal(t, 3, report.TotalEdges)
	assert.InDelta(t, 2.0/3, report.Ratio, 1e-9)
	assert.Equal(t, []graph.Mapping{{EdgeID: 0, SegmentID: 200}, {EdgeID: 2, SegmentID: 300}}, g.Mappings())
}

func TestMatchIsIdempotent(t *testing.T) {
	ctx := context.Background()
	refs, err := LoadReferences("testdata/references.json")
	require.NoError(t, err)

	once := buildTestGraph(t)
	_, err = NewMatcher(once, nil, 20, nil).Match(ctx, refs)
	require.NoError(t, err)

	twice := buildTestGraph(t)
	m := NewMatcher(twice, nil, 20, nil)
	_, err = m.Match(ctx, refs)
	require.NoError(t, err)
	report, err := m.Match(ctx, refs)
	require.NoError(t, err)

	assert.Equal(t, 0, report.NewMappings)
	assert.Equal(t, once.Mappings(), twice.Mappings())
}

func TestMatchKeepsExistingMappings(t *testing.T) {
	g := buildTestGraph(t)
	g.SetMapping(0, 999)
	refs, err := LoadReferences("testdata/references.json")
	require.NoError(t, err)

	report, err := NewMatcher(g, nil, 20, nil).Match(context.Background(), refs)
	require.NoError(t, err)

	assert.Equal(t, 1, report.NewMappings)
	seg, _ := g.GetSegment(0)
	assert.Equal(t, int64(999), seg)
}

func TestMatchPersistsMappings(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	defer s.Close()

	g := buildTestGraph(t)
	require.NoError(t, s.SaveGraph(ctx, g))
	refs, err := LoadReferences("testdata/references.json")
	require.NoError(t, err)

	_, err = NewMatcher(g, s, 20, nil).Match(ctx, refs)
	require.NoError(t, err)

	stored, err := s.LoadMappings(ctx)
	require.NoError(t, err)
	assert.Equal(t, g.Mappings(), stored)
}

func TestEdgeIndexNearest(t *testing.T) {
	g := buildTestGraph(t)
	index := NewEdgeIndex(g.Topology(), 10)
	proj := index.Projection()

	edge, dist, ok := index.Nearest(proj.ToPlanar(geo.Coord{36.3025, 41.30005}), 20)
	require.True(t, ok)
	assert.Equal(t, int32(2), edge)
	assert.InDelta(t, 5.5, dist, 0.5)

	_, _, ok = index.Nearest(proj.ToPlanar(geo.Coord{36.3025, 41.301}), 20)
	assert.False(t, ok)
}

func TestMatchLinksEveryEdgeAlongReference(t *testing.T) {
	tags := Dict[string, string]{"highway": "primary"}
	// 21 nodes about 5 m apart and a parallel road 40 m to the north
	way := make(geo.CoordArray, 0, 21)
	parallel := make(geo.CoordArray, 0, 21)
	for i := 0; i < 21; i++ {
		way = append(way, geo.Coord{36.300 + float64(i)*0.00006, 41.3})
		parallel = append(parallel, geo.Coord{36.300 + float64(i)*0.00006, 41.30036})
	}
	roads := []graph.RoadGeometry{
		{WayID: 1, Coords: way, Tags: tags},
		{WayID: 2, Coords: parallel, Tags: tags},
	}
	g, _, err := graph.BuildGraph(roads, &parser.DrivingDecoder{}, graph.BuildOptions{Tolerance: 1, Area: testArea})
	require.NoError(t, err)
	require.Equal(t, 40, g.EdgeCount())

	refs, err := ParseReferences([]byte(`[{"S": 42, "G": "[[41.3, 36.3], [41.3, 36.3012]]"}]`))
	require.NoError(t, err)
	report, err := NewMatcher(g, nil, 20, nil).Match(context.Background(), refs)
	require.NoError(t, err)

	assert.Equal(t, 20, report.NewMappings)
	for edge := int32(0); edge < 20; edge++ {
		seg, ok := g.GetSegment(edge)
		assert.True(t, ok, "edge %d", edge)
		assert.Equal(t, int64(42), seg, "edge %d", edge)
	}
	for edge := int32(20); edge < 40; edge++ {
		assert.False(t, g.IsMapped(edge), "edge %d", edge)
	}

	speeds := g.ApplySpeeds([]graph.SpeedSample{{SegmentID: 42, Speed: 5}})
	assert.Equal(t, 20, speeds.Updated)
	for edge := int32(0); edge < 20; edge++ {
		assert.Equal(t, 5.0, g.Costs().GetCurrentSpeed(edge), "edge %d", edge)
	}
}
