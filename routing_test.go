package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ttpr0/go-hybrid-routing/corridor"
	"github.com/ttpr0/go-hybrid-routing/geo"
	"github.com/ttpr0/go-hybrid-routing/graph"
	"github.com/ttpr0/go-hybrid-routing/parser"
	"github.com/ttpr0/go-hybrid-routing/store"
	"github.com/ttpr0/go-hybrid-routing/traffic"
	. "github.com/ttpr0/go-hybrid-routing/util"
)

type fixedFeed struct {
	samples []graph.SpeedSample
}

func (self *fixedFeed) FetchSegmentSpeeds(ctx context.Context) ([]graph.SpeedSample, error) {
	samples := make([]graph.SpeedSample, len(self.samples))
	copy(samples, self.samples)
	return samples, nil
}

func testManager(t *testing.T) *RoutingManager {
	t.Helper()
	return testManagerWithFeed(t, nil)
}

func testManagerWithFeed(t *testing.T, feed traffic.Feed) *RoutingManager {
	t.Helper()
	config := Config{}.withDefaults()
	config.Database.Path = filepath.Join(t.TempDir(), "graph.db")

	roads := []graph.RoadGeometry{
		{
			WayID:  1,
			Coords: geo.CoordArray{{36.300, 41.3}, {36.301, 41.3}, {36.302, 41.3}},
			Tags:   Dict[string, string]{"highway": "residential"},
		},
	}
	g, _, err := graph.BuildGraph(roads, &parser.DrivingDecoder{}, graph.BuildOptions{
		Tolerance: config.Build.SnapTolerance,
		Area:      config.ServiceArea.Bound(),
	})
	require.NoError(t, err)

	st, err := store.Open(config.Database.Path)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.SaveGraph(context.Background(), g))

	return NewRoutingManager(config, st, g, nil, feed, nil)
}

func testServer(t *testing.T, manager *RoutingManager) *httptest.Server {
	t.Helper()
	app := NewRegistry()
	require.NoError(t, manager.MapRoutes(app))
	server := httptest.NewServer(app.Handler())
	t.Cleanup(server.Close)
	return server
}

func post(t *testing.T, server *httptest.Server, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(server.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestRegistryRejectsDuplicateRoutes(t *testing.T) {
	app := NewRegistry()
	handler := func(ctx context.Context, req HealRequest) Result { return OK(1) }

	require.NoError(t, MapPost(app, "/v1/test", handler))
	assert.ErrorIs(t, MapPost(app, "/v1/test", handler), ErrDuplicateRoute)
	assert.NoError(t, MapGet(app, "/v1/test", handler))
	assert.Equal(t, 2, app.Routes())
}

func TestRouteEndpoint(t *testing.T) {
	server := testServer(t, testManager(t))

	resp, out := post(t, server, "/v1/route", RouteRequest{
		Start: []float64{36.300, 41.3},
		End:   []float64{36.302, 41.3},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	summary := out["summary"].(map[string]any)
	assert.Equal(t, "local", summary["provenance"])
	assert.Equal(t, "fastest", summary["mode"])
	assert.InDelta(t, 167, summary["distance"].(float64), 2)
	assert.Greater(t, summary["duration"].(float64), 0.0)
	assert.NotEmpty(t, out["polyline"])

	route := out["route"].(map[string]any)
	assert.Equal(t, "Feature", route["type"])
	coords := route["geometry"].(map[string]any)["coordinates"].([]any)
	assert.Len(t, coords, 3)
}

func TestRouteEndpointErrors(t *testing.T) {
	server := testServer(t, testManager(t))

	tests := []struct {
		name   string
		req    RouteRequest
		status int
	}{
		{"unknown mode", RouteRequest{Start: []float64{36.3, 41.3}, End: []float64{36.302, 41.3}, Mode: "scenic"}, http.StatusBadRequest},
		{"missing end", RouteRequest{Start: []float64{36.3, 41.3}}, http.StatusBadRequest},
		{"invalid latitude", RouteRequest{Start: []float64{36.3, 141.3}, End: []float64{36.302, 41.3}}, http.StatusBadRequest},
		{"outside area without remote", RouteRequest{Start: []float64{29.0, 41.0}, End: []float64{36.302, 41.3}}, http.StatusNotFound},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			resp, out := post(t, server, "/v1/route", test.req)
			assert.Equal(t, test.status, resp.StatusCode)
			assert.Equal(t, "/v1/route", out["request"])
		})
	}
}

func TestMalformedBodyIsBadRequest(t *testing.T) {
	server := testServer(t, testManager(t))

	resp, err := http.Post(server.URL+"/v1/route", "application/json", bytes.NewReader([]byte("{")))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSampleEndpoint(t *testing.T) {
	server := testServer(t, testManager(t))

	line := geo.CoordArray{{36.300, 41.3}, {36.302, 41.3}}
	resp, out := post(t, server, "/v1/sample", SampleRequest{
		GeometryParams: GeometryParams{Polyline: geo.EncodePolyline(line)},
		Interval:       50,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	// 0, 50, 100, 150 and the endpoint at ~167 m
	assert.Equal(t, 5.0, out["count"])

	resp, _ = post(t, server, "/v1/sample", SampleRequest{GeometryParams: GeometryParams{Polyline: "_p~iF~ps|U_"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCorridorEndpoint(t *testing.T) {
	server := testServer(t, testManager(t))

	point := func(name string, lon, lat float64) corridor.Point {
		return corridor.Point{Name: name, Lon: &lon, Lat: &lat}
	}
	resp, out := post(t, server, "/v1/corridor", CorridorRequest{
		GeometryParams: GeometryParams{Coordinates: [][]float64{{36.300, 41.3}, {36.302, 41.3}}},
		Points: []corridor.Point{
			point("far", 36.301, 41.32),
			point("near", 36.301, 41.3015),
			point("gone", 36.301, 41.4),
			{Name: "missing"},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 2.0, out["count"])

	matches := out["matches"].([]any)
	first := matches[0].(map[string]any)
	second := matches[1].(map[string]any)
	assert.Equal(t, "near", first["point"].(map[string]any)["name"])
	assert.Equal(t, "on_route", first["tier"])
	assert.Equal(t, "far", second["point"].(map[string]any)["name"])
	assert.Equal(t, "detour", second["tier"])
	assert.Contains(t, second["label"], "km")

	resp, _ = post(t, server, "/v1/corridor", CorridorRequest{Points: []corridor.Point{point("a", 36.3, 41.3)}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthAndHealEndpoints(t *testing.T) {
	server := testServer(t, testManager(t))

	resp, err := http.Get(server.URL + "/v1/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var health HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.True(t, health.Graph.Healthy)
	assert.Equal(t, 3, health.Graph.Nodes)
	assert.Equal(t, 2, health.Graph.Edges)
	assert.Equal(t, 0, health.Mapped)

	resp2, out := post(t, server, "/v1/heal", HealRequest{})
	require.Equal(t, http.StatusOK, resp2.StatusCode)
	report := out["report"].(map[string]any)
	assert.Equal(t, false, report["changed"])
}

func TestMatchEndpoint(t *testing.T) {
	manager := testManager(t)
	server := testServer(t, manager)

	resp, out := post(t, server, "/v1/match", MatchRequest{
		References: json.RawMessage(`[{"S": 7, "G": "[[41.3, 36.3], [41.3, 36.302]]"}]`),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	report := out["report"].(map[string]any)
	assert.Equal(t, 2.0, report["new_mappings"])
	assert.Equal(t, 1.0, report["ratio"])
	assert.Equal(t, 2, manager.Graph().MappedCount())

	resp, _ = post(t, server, "/v1/match", MatchRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = post(t, server, "/v1/match", MatchRequest{References: json.RawMessage(`[{"S": 1}]`)})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateEndpoint(t *testing.T) {
	resp, _ := post(t, testServer(t, testManager(t)), "/v1/update", UpdateRequest{})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	manager := testManagerWithFeed(t, &fixedFeed{samples: []graph.SpeedSample{{SegmentID: 7, Speed: -5}}})
	manager.Graph().SetMapping(0, 7)
	server := testServer(t, manager)

	resp, out := post(t, server, "/v1/update", UpdateRequest{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	report := out["report"].(map[string]any)
	assert.Equal(t, 1.0, report["clamped"])
	assert.Equal(t, 1.0, report["updated"])
	assert.Equal(t, 3.0, manager.Graph().Costs().GetCurrentSpeed(0))
}

func TestPrintJSONToFile(t *testing.T) {
	outFile = filepath.Join(t.TempDir(), "report.json")
	defer func() { outFile = "" }()

	require.NoError(t, printJSON(map[string]int{"edges": 2}))
	value, err := ReadJSONFromFile[map[string]int](outFile)
	require.NoError(t, err)
	assert.Equal(t, 2, value["edges"])
}

func TestParseCoordArg(t *testing.T) {
	c, err := parseCoordArg("36.3, 41.3")
	require.NoError(t, err)
	assert.Equal(t, geo.Coord{36.3, 41.3}, c)

	for _, arg := range []string{"36.3", "a,b", "36.3,141.3"} {
		_, err := parseCoordArg(arg)
		assert.Error(t, err, arg)
	}
}
