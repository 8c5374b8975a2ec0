package routing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ttpr0/go-hybrid-routing/attr"
	"github.com/ttpr0/go-hybrid-routing/geo"
	"github.com/ttpr0/go-hybrid-routing/graph"
	. "github.com/ttpr0/go-hybrid-routing/util"
)

var testArea = geo.NewBound(36.15, 41.20, 36.45, 41.45)

type countingRouter struct {
	calls atomic.Int32
	err   error
}

func (self *countingRouter) Route(ctx context.Context, origin, destination geo.Coord) (RemoteRoute, error) {
	self.calls.Add(1)
	if self.err != nil {
		return RemoteRoute{}, self.err
	}
	return RemoteRoute{
		Coordinates: geo.CoordArray{origin, destination},
		Distance:    1234,
		Duration:    99,
	}, nil
}

func edge(a, b int32, nodes Array[graph.Node], length float64, speed float64) graph.Edge {
	return graph.Edge{
		NodeA:    a,
		NodeB:    b,
		Type:     attr.RESIDENTIAL,
		Geometry: geo.CoordArray{nodes[a].Loc, nodes[b].Loc},
		Length:   length,
		Maxspeed: speed,
	}
}

// origin -> A -> B -> destination, 1000 m each at 30 km/h
func chainGraph() *graph.Graph {
	nodes := Array[graph.Node]{
		{Loc: geo.Coord{36.30, 41.30}},
		{Loc: geo.Coord{36.31, 41.30}},
		{Loc: geo.Coord{36.32, 41.30}},
		{Loc: geo.Coord{36.33, 41.30}},
	}
	edges := Array[graph.Edge]{
		edge(0, 1, nodes, 1000, 30),
		// stored against the travel direction
		edge(2, 1, nodes, 1000, 30),
		edge(2, 3, nodes, 1000, 30),
	}
	return graph.FromTables(nodes, edges, nil, nil, 1, testArea)
}

func TestPlanEndToEnd(t *testing.T) {
	remote := &countingRouter{}
	planner := NewPlanner(chainGraph(), remote, nil)

	result, err := planner.Plan(context.Background(), geo.Coord{36.30, 41.30}, geo.Coord{36.33, 41.30}, FASTEST)
	require.NoError(t, err)

	assert.Equal(t, LOCAL, result.Provenance)
	assert.Equal(t, FASTEST, result.Mode)
	assert.InDelta(t, 3000.0, result.Distance, 1e-9)
	assert.InDelta(t, 360.0, result.Duration, 1e-9)
	assert.Equal(t, geo.CoordArray{{36.30, 41.30}, {36.31, 41.30}, {36.32, 41.30}, {36.33, 41.30}}, result.Coordinates)
	assert.Equal(t, int32(0), remote.calls.Load())

	decoded, err := geo.DecodePolyline(result.Polyline)
	require.NoError(t, err)
	assert.Len(t, decoded, 4)
}

func TestPlanReverseDirection(t *testing.T) {
	planner := NewPlanner(chainGraph(), nil, nil)
	result, err := planner.Plan(context.Background(), geo.Coord{36.33, 41.30}, geo.Coord{36.30, 41.30}, SHORTEST)
	require.NoError(t, err)

	assert.InDelta(t, 3000.0, result.Distance, 1e-9)
	assert.Equal(t, geo.Coord{36.33, 41.30}, result.Coordinates[0])
	assert.Equal(t, geo.Coord{36.30, 41.30}, result.Coordinates[len(result.Coordinates)-1])
}

func TestPlanOutsideAreaUsesRemote(t *testing.T) {
	remote := &countingRouter{}
	planner := NewPlanner(chainGraph(), remote, nil)

	result, err := planner.Plan(context.Background(), geo.Coord{36.30, 41.30}, geo.Coord{28.97, 41.01}, FASTEST)
	require.NoError(t, err)
	assert.Equal(t, REMOTE, result.Provenance)
	assert.Equal(t, 1234.0, result.Distance)
	assert.Equal(t, int32(1), remote.calls.Load())

	_, err = NewPlanner(chainGraph(), nil, nil).Plan(context.Background(), geo.Coord{36.30, 41.30}, geo.Coord{28.97, 41.01}, FASTEST)
	assert.ErrorIs(t, err, ErrOutsideArea)
}

func TestPlanNoRouteFallsBack(t *testing.T) {
	nodes := Array[graph.Node]{
		{Loc: geo.Coord{36.30, 41.30}},
		{Loc: geo.Coord{36.31, 41.30}},
		{Loc: geo.Coord{36.40, 41.40}},
		{Loc: geo.Coord{36.41, 41.40}},
	}
	edges := Array[graph.Edge]{
		edge(0, 1, nodes, 1000, 30),
		edge(2, 3, nodes, 1000, 30),
	}
	g := graph.FromTables(nodes, edges, nil, nil, 1, testArea)

	_, err := NewPlanner(g, nil, nil).PlanLocal(geo.Coord{36.30, 41.30}, geo.Coord{36.41, 41.40}, FASTEST)
	assert.ErrorIs(t, err, ErrNoRoute)

	remote := &countingRouter{}
	result, err := NewPlanner(g, remote, nil).Plan(context.Background(), geo.Coord{36.30, 41.30}, geo.Coord{36.41, 41.40}, FASTEST)
	require.NoError(t, err)
	assert.Equal(t, REMOTE, result.Provenance)
	assert.Equal(t, int32(1), remote.calls.Load())

	remote.err = errors.New("boom")
	_, err = NewPlanner(g, remote, nil).Plan(context.Background(), geo.Coord{36.30, 41.30}, geo.Coord{36.41, 41.40}, FASTEST)
	assert.Error(t, err)
}

func TestPlanRejectsInvalidCoordinates(t *testing.T) {
	_, err := NewPlanner(chainGraph(), nil, nil).Plan(context.Background(), geo.Coord{200, 41.30}, geo.Coord{36.30, 41.30}, FASTEST)
	assert.ErrorIs(t, err, ErrInvalidCoordinate)
}

func TestCostModesPickDifferentPaths(t *testing.T) {
	nodes := Array[graph.Node]{
		{Loc: geo.Coord{36.30, 41.30}},
		{Loc: geo.Coord{36.31, 41.30}},
		{Loc: geo.Coord{36.305, 41.305}},
	}
	edges := Array[graph.Edge]{
		edge(0, 1, nodes, 1000, 30),
		edge(0, 2, nodes, 800, 30),
		edge(2, 1, nodes, 800, 30),
	}
	g := graph.FromTables(nodes, edges, nil, []graph.Mapping{{EdgeID: 0, SegmentID: 1}}, 1, testArea)
	g.ApplySpeeds([]graph.SpeedSample{{SegmentID: 1, Speed: 5}})
	planner := NewPlanner(g, nil, nil)

	shortest, err := planner.PlanLocal(geo.Coord{36.30, 41.30}, geo.Coord{36.31, 41.30}, SHORTEST)
	require.NoError(t, err)
	assert.InDelta(t, 1000.0, shortest.Distance, 1e-9)
	assert.InDelta(t, 720.0, shortest.Duration, 1e-9)

	fastest, err := planner.PlanLocal(geo.Coord{36.30, 41.30}, geo.Coord{36.31, 41.30}, FASTEST)
	require.NoError(t, err)
	assert.InDelta(t, 1600.0, fastest.Distance, 1e-9)
	assert.InDelta(t, 192.0, fastest.Duration, 1e-9)
}

func TestPlanSameNode(t *testing.T) {
	result, err := NewPlanner(chainGraph(), nil, nil).PlanLocal(geo.Coord{36.30, 41.30}, geo.Coord{36.3001, 41.30}, FASTEST)
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Distance)
	assert.Equal(t, geo.CoordArray{{36.30, 41.30}}, result.Coordinates)
}

func TestCostModeFromString(t *testing.T) {
	mode, err := CostModeFromString("Shortest")
	require.NoError(t, err)
	assert.Equal(t, SHORTEST, mode)

	mode, err = CostModeFromString("")
	require.NoError(t, err)
	assert.Equal(t, FASTEST, mode)

	_, err = CostModeFromString("scenic")
	assert.ErrorIs(t, err, ErrUnknownCostMode)
}

func osrmServer(t *testing.T, delay time.Duration, status int) *httptest.Server {
	line := geo.EncodePolyline(geo.CoordArray{{36.30, 41.30}, {36.33, 41.30}})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		assert.Contains(t, r.URL.Path, "/route/v1/driving/")
		assert.Equal(t, "polyline", r.URL.Query().Get("geometries"))
		fmt.Fprintf(w, `{"code": "Ok", "routes": [{"distance": 2500.5, "duration": 300.2, "geometry": %q}]}`, line)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestOSRMRouter(t *testing.T) {
	server := osrmServer(t, 0, http.StatusOK)
	route, err := NewOSRMRouter(server.URL, time.Second).Route(context.Background(), geo.Coord{36.30, 41.30}, geo.Coord{36.33, 41.30})
	require.NoError(t, err)
	assert.Equal(t, 2500.5, route.Distance)
	assert.Equal(t, 300.2, route.Duration)
	assert.Len(t, route.Coordinates, 2)
}

func TestProviderChain(t *testing.T) {
	failing := osrmServer(t, 0, http.StatusInternalServerError)
	slow := osrmServer(t, time.Second, http.StatusOK)
	healthy := osrmServer(t, 0, http.StatusOK)

	chain := NewProviderChain(
		Provider{Name: "failing", Router: NewOSRMRouter(failing.URL, time.Second), Timeout: time.Second},
		Provider{Name: "slow", Router: NewOSRMRouter(slow.URL, 5*time.Second), Timeout: 50 * time.Millisecond},
		Provider{Name: "healthy", Router: NewOSRMRouter(healthy.URL, time.Second), Timeout: time.Second},
	)
	route, err := chain.Route(context.Background(), geo.Coord{36.30, 41.30}, geo.Coord{36.33, 41.30})
	require.NoError(t, err)
	assert.Equal(t, 2500.5, route.Distance)

	chain = NewProviderChain(
		Provider{Name: "failing", Router: NewOSRMRouter(failing.URL, time.Second), Timeout: time.Second},
	)
	_, err = chain.Route(context.Background(), geo.Coord{36.30, 41.30}, geo.Coord{36.33, 41.30})
	assert.ErrorIs(t, err, ErrAllProvidersFailed)

	_, err = NewProviderChain().Route(context.Background(), geo.Coord{36.30, 41.30}, geo.Coord{36.33, 41.30})
	assert.ErrorIs(t, err, ErrAllProvidersFailed)
}
