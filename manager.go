package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/ttpr0/go-hybrid-routing/graph"
	"github.com/ttpr0/go-hybrid-routing/matcher"
	"github.com/ttpr0/go-hybrid-routing/metrics"
	"github.com/ttpr0/go-hybrid-routing/parser"
	"github.com/ttpr0/go-hybrid-routing/routing"
	"github.com/ttpr0/go-hybrid-routing/store"
	"github.com/ttpr0/go-hybrid-routing/traffic"
	"golang.org/x/exp/slog"
)

var ErrNoSource = errors.New("no osm source configured")

//*******************************************
// routing manager
//*******************************************

// RoutingManager holds the loaded graph and every component working on it.
type RoutingManager struct {
	config  Config
	store   *store.Store
	graph   *graph.Graph
	healer  *graph.Healer
	matcher *matcher.Matcher
	// nil when no traffic feed is configured
	updater *traffic.Updater
	planner *routing.Planner
	metrics *metrics.Metrics
}

func NewRoutingManager(config Config, st *store.Store, g *graph.Graph, remote routing.RemoteRouter, feed traffic.Feed, m *metrics.Metrics) *RoutingManager {
	manager := &RoutingManager{
		config:  config,
		store:   st,
		graph:   g,
		healer:  graph.NewHealer(g, st, config.HealerOptions(), m),
		matcher: matcher.NewMatcher(g, st, config.Matcher.MaxDistance, m),
		planner: routing.NewPlanner(g, remote, m),
		metrics: m,
	}
	if feed != nil {
		manager.updater = traffic.NewUpdater(g, feed, st, config.UpdaterOptions(), m)
	}
	return manager
}

func (self *RoutingManager) Graph() *graph.Graph {
	return self.graph
}

func (self *RoutingManager) Healer() *graph.Healer {
	return self.healer
}

func (self *RoutingManager) Matcher() *matcher.Matcher {
	return self.matcher
}

func (self *RoutingManager) Updater() *traffic.Updater {
	return self.updater
}

func (self *RoutingManager) Planner() *routing.Planner {
	return self.planner
}

// Matches the configured reference file against the graph.
func (self *RoutingManager) MatchReferences(ctx context.Context, file string) (matcher.MatchReport, error) {
	if file == "" {
		file = self.config.Source.References
	}
	refs, err := matcher.LoadReferences(file)
	if err != nil {
		return matcher.MatchReport{}, err
	}
	return self.matcher.Match(ctx, refs)
}

//*******************************************
// setup helpers
//*******************************************

func OpenStore(config Config) (*store.Store, error) {
	dir := filepath.Dir(config.Database.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	return store.Open(config.Database.Path)
}

// Parses the osm source, builds the graph, stores it and heals it.
func BuildFromSource(ctx context.Context, config Config, st *store.Store, m *metrics.Metrics) (*graph.Graph, error) {
	if config.Source.OSM == "" {
		return nil, ErrNoSource
	}
	slog.Info("parsing osm source", "file", config.Source.OSM)
	roads, err := parser.ParseRoads(ctx, config.Source.OSM)
	if err != nil {
		return nil, err
	}
	g, report, err := graph.BuildGraph(roads, &parser.DrivingDecoder{}, graph.BuildOptions{
		Tolerance: config.Build.SnapTolerance,
		Area:      config.ServiceArea.Bound(),
	})
	if err != nil {
		return nil, err
	}
	slog.Info("built graph", "ways", report.Ways, "skipped", report.Skipped, "nodes", report.Nodes, "edges", report.Edges)
	if err := st.SaveGraph(ctx, g); err != nil {
		return nil, fmt.Errorf("failed to save graph: %w", err)
	}
	healer := graph.NewHealer(g, st, config.HealerOptions(), m)
	if _, err := healer.Heal(ctx); err != nil {
		return nil, fmt.Errorf("failed to heal graph: %w", err)
	}
	return g, nil
}

// Loads the stored graph and builds it from source if the store is empty.
func LoadOrBuildGraph(ctx context.Context, config Config, st *store.Store, m *metrics.Metrics) (*graph.Graph, error) {
	g, err := st.LoadGraph(ctx, config.ServiceArea.Bound())
	if errors.Is(err, store.ErrNoGraph) {
		slog.Info("store holds no graph, building from source")
		return BuildFromSource(ctx, config, st, m)
	}
	if err != nil {
		return nil, err
	}
	slog.Info("loaded graph", "nodes", g.NodeCount(), "edges", g.EdgeCount(), "mapped", g.MappedCount())
	return g, nil
}

// Returns nil when no remote provider is configured.
func NewRemoteRouter(config Config) routing.RemoteRouter {
	if len(config.Remote) == 0 {
		return nil
	}
	providers := make([]routing.Provider, 0, len(config.Remote))
	for _, remote := range config.Remote {
		providers = append(providers, routing.Provider{
			Name:    remote.Name,
			Router:  routing.NewOSRMRouter(remote.URL, remote.Timeout),
			Timeout: remote.Timeout,
		})
	}
	return routing.NewProviderChain(providers...)
}

// Returns nil when no feed url is configured.
func NewTrafficFeed(config Config) traffic.Feed {
	if config.Traffic.URL == "" {
		return nil
	}
	return traffic.NewFeedClient(config.Traffic.URL, config.Traffic.Headers, config.Traffic.Timeout)
}

// Opens the store, loads the graph and wires all components.
func CreateManager(ctx context.Context, config Config, reg prometheus.Registerer) (*RoutingManager, error) {
	st, err := OpenStore(config)
	if err != nil {
		return nil, err
	}
	m := metrics.New(reg)
	g, err := LoadOrBuildGraph(ctx, config, st, m)
	if err != nil {
		st.Close()
		return nil, err
	}
	return NewRoutingManager(config, st, g, NewRemoteRouter(config), NewTrafficFeed(config), m), nil
}

func (self *RoutingManager) Close() error {
	return self.store.Close()
}
