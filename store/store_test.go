package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ttpr0/go-hybrid-routing/geo"
	"github.com/ttpr0/go-hybrid-routing/graph"
	"github.com/ttpr0/go-hybrid-routing/parser"
	. "github.com/ttpr0/go-hybrid-routing/util"
)

var testArea = geo.NewBound(36.15, 41.20, 36.45, 41.45)

func buildTestGraph(t *testing.T, tolerance float64) *graph.Graph {
	t.Helper()
	tags := Dict[string, string]{"highway": "residential"}
	roads := []graph.RoadGeometry{
		{WayID: 1, Coords: geo.CoordArray{{36.300, 41.3}, {36.301, 41.3}}, Tags: tags},
		{WayID: 2, Coords: geo.CoordArray{{36.30106, 41.3}, {36.302, 41.3}}, Tags: tags},
		{WayID: 3, Coords: geo.CoordArray{{36.30206, 41.3}, {36.303, 41.3}}, Tags: tags},
	}
	g, _, err := graph.BuildGraph(roads, &parser.DrivingDecoder{}, graph.BuildOptions{Tolerance: tolerance, Area: testArea})
	require.NoError(t, err)
	return g
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndLoadGraph(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	g := buildTestGraph(t, 10)
	g.SetMapping(1, 500)

	require.NoError(t, s.SaveGraph(ctx, g))
	loaded, err := s.LoadGraph(ctx, testArea)
	require.NoError(t, err)

	assert.Equal(t, g.NodeCount(), loaded.NodeCount())
	assert.Equal(t, g.EdgeCount(), loaded.EdgeCount())
	assert.Equal(t, 10.0, loaded.Topology().Tolerance())
	for i := int32(0); i < int32(g.EdgeCount()); i++ {
		want := g.Topology().GetEdge(i)
		got := loaded.Topology().GetEdge(i)
		assert.Equal(t, want.NodeA, got.NodeA)
		assert.Equal(t, want.NodeB, got.NodeB)
		assert.Equal(t, want.Geometry, got.Geometry)
		assert.InDelta(t, want.Length, got.Length, 1e-9)
		assert.InDelta(t, g.Costs().GetForwardCost(i), loaded.Costs().GetForwardCost(i), 1e-9)
	}
	seg, ok := loaded.GetSegment(1)
	assert.True(t, ok)
	assert.Equal(t, int64(500), seg)
}

func TestLoadEmptyStore(t *testing.T) {
	s := openTestStore(t)
	_, err := s.LoadGraph(context.Background(), testArea)
	assert.ErrorIs(t, err, ErrNoGraph)
}

func TestInsertMappingsIsWriteOnce(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.SaveGraph(ctx, buildTestGraph(t, 10)))

	added, err := s.InsertMappings(ctx, []graph.Mapping{{EdgeID: 0, SegmentID: 7}, {EdgeID: 1, SegmentID: 8}})
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	added, err = s.InsertMappings(ctx, []graph.Mapping{{EdgeID: 0, SegmentID: 9}, {EdgeID: 2, SegmentID: 8}})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	mappings, err := s.LoadMappings(ctx)
	require.NoError(t, err)
	assert.Equal(t, []graph.Mapping{{EdgeID: 0, SegmentID: 7}, {EdgeID: 1, SegmentID: 8}, {EdgeID: 2, SegmentID: 8}}, mappings)
}

func TestApplySpeedsUpdatesMappedEdges(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	g := buildTestGraph(t, 10)
	require.NoError(t, s.SaveGraph(ctx, g))
	_, err := s.InsertMappings(ctx, []graph.Mapping{{EdgeID: 0, SegmentID: 7}, {EdgeID: 1, SegmentID: 7}})
	require.NoError(t, err)

	updated, err := s.ApplySpeeds(ctx, []graph.SpeedSample{{SegmentID: 7, Speed: 15}, {SegmentID: 99, Speed: 60}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)

	loaded, err := s.LoadGraph(ctx, testArea)
	require.NoError(t, err)
	costs := loaded.Costs()
	length := loaded.Topology().GetEdge(0).Length
	assert.Equal(t, 15.0, costs.GetCurrentSpeed(0))
	assert.InDelta(t, graph.TimeCost(length, 15), costs.GetForwardCost(0), 1e-9)
	assert.InDelta(t, graph.TimeCost(length, 15), costs.GetBackwardCost(0), 1e-9)
	assert.Equal(t, 30.0, costs.GetCurrentSpeed(2))

	// a second cycle reuses the temp table
	updated, err = s.ApplySpeeds(ctx, []graph.SpeedSample{{SegmentID: 7, Speed: 20}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)
}

func TestWriteTopologyAfterHeal(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	g := buildTestGraph(t, 1)
	require.NoError(t, s.SaveGraph(ctx, g))

	healer := graph.NewHealer(g, s, graph.DefaultHealerOptions(), nil)
	report, err := healer.Heal(ctx)
	require.NoError(t, err)
	require.True(t, report.Changed)

	loaded, err := s.LoadGraph(ctx, testArea)
	require.NoError(t, err)
	assert.Equal(t, 4, loaded.NodeCount())
	assert.Equal(t, report.Tolerance, loaded.Topology().Tolerance())
	assert.Equal(t, g.Topology().GetEdge(1).NodeA, loaded.Topology().GetEdge(1).NodeA)
}

func TestSaveGraphWithUnparsableMaxspeed(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	roads := []graph.RoadGeometry{
		{WayID: 1, Coords: geo.CoordArray{{36.300, 41.3}, {36.301, 41.3}}, Tags: Dict[string, string]{"highway": "residential", "maxspeed": "NaN"}},
		{WayID: 2, Coords: geo.CoordArray{{36.301, 41.3}, {36.302, 41.3}}, Tags: Dict[string, string]{"highway": "primary", "maxspeed": "inf"}},
	}
	g, _, err := graph.BuildGraph(roads, &parser.DrivingDecoder{}, graph.BuildOptions{Tolerance: 1, Area: testArea})
	require.NoError(t, err)

	require.NoError(t, s.SaveGraph(ctx, g))
	loaded, err := s.LoadGraph(ctx, testArea)
	require.NoError(t, err)
	assert.Equal(t, 30.0, loaded.Topology().GetEdge(0).Maxspeed)
	assert.Equal(t, 70.0, loaded.Topology().GetEdge(1).Maxspeed)
	assert.Equal(t, 70.0, loaded.Costs().GetCurrentSpeed(1))
}

func TestApplySpeedsBelowFloorMatchesMemoryCost(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	g := buildTestGraph(t, 10)
	require.NoError(t, s.SaveGraph(ctx, g))
	_, err := s.InsertMappings(ctx, []graph.Mapping{{EdgeID: 0, SegmentID: 7}})
	require.NoError(t, err)
	g.SetMapping(0, 7)

	samples := []graph.SpeedSample{{SegmentID: 7, Speed: 1.5}}
	_, err = s.ApplySpeeds(ctx, samples)
	require.NoError(t, err)
	g.ApplySpeeds(samples)

	loaded, err := s.LoadGraph(ctx, testArea)
	require.NoError(t, err)
	assert.Equal(t, 1.5, loaded.Costs().GetCurrentSpeed(0))
	assert.InDelta(t, g.Costs().GetForwardCost(0), loaded.Costs().GetForwardCost(0), 1e-9)
	length := loaded.Topology().GetEdge(0).Length
	assert.InDelta(t, graph.TimeCost(length, 1.5), loaded.Costs().GetForwardCost(0), 1e-9)
}
